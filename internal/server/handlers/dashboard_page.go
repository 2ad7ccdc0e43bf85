package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/blobb999/selfsustain/internal/errors"
	"github.com/blobb999/selfsustain/internal/version"
)

// DashboardPageData feeds the server-rendered dashboard shell. Live data
// arrives via the JSON endpoints the page polls.
type DashboardPageData struct {
	Title   string
	Version string
	Now     time.Time
}

// DashboardPageHandlers serves the dashboard HTML shell.
type DashboardPageHandlers struct {
	title        string
	errorAdapter *errors.HTTPErrorAdapter
}

// NewDashboardPageHandlers creates a dashboard page handlers instance.
func NewDashboardPageHandlers(title string) *DashboardPageHandlers {
	if title == "" {
		title = "Self-Sustain Control Panel"
	}
	return &DashboardPageHandlers{
		title:        title,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleDashboard renders the dashboard page.
func (h *DashboardPageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	t, err := template.New("dashboard").Parse(dashboardHTMLTemplate)
	if err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to parse dashboard template")
		h.errorAdapter.WriteErrorResponse(w, internalErr)
		return
	}
	data := DashboardPageData{
		Title:   h.title,
		Version: version.Version,
		Now:     time.Now().UTC(),
	}
	if err := t.Execute(w, data); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to render dashboard template")
		h.errorAdapter.WriteErrorResponse(w, internalErr)
		return
	}
}

const dashboardHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 20px; background: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; background: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .header { border-bottom: 2px solid #eee; padding-bottom: 20px; margin-bottom: 30px; }
        .tiles { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 20px; margin: 30px 0; }
        .tile { background: #f8f9fa; padding: 15px; border-radius: 6px; border-left: 4px solid #6c757d; }
        .tile.online { border-left-color: #28a745; }
        .tile.offline { border-left-color: #dc3545; }
        .tile-name { font-size: 16px; font-weight: bold; }
        .tile-state { display: inline-block; padding: 2px 10px; border-radius: 12px; font-size: 11px; font-weight: bold; margin-top: 6px; }
        .tile-state.online { background: #d4edda; color: #155724; }
        .tile-state.offline { background: #f8d7da; color: #721c24; }
        .tile-detail { color: #666; font-size: 12px; margin-top: 6px; }
        .tabs { display: flex; gap: 8px; border-bottom: 1px solid #dee2e6; margin-bottom: 16px; }
        .tab { padding: 8px 16px; cursor: pointer; border: none; background: none; font-size: 14px; color: #666; }
        .tab.active { border-bottom: 2px solid #007bff; color: #007bff; font-weight: bold; }
        .panel { display: none; }
        .panel.active { display: block; }
        .chat-log { border: 1px solid #dee2e6; border-radius: 6px; padding: 12px; height: 320px; overflow-y: auto; background: #fafafa; }
        .bubble { margin: 8px 0; padding: 8px 12px; border-radius: 8px; max-width: 80%; font-size: 14px; }
        .bubble.user { background: #007bff; color: white; margin-left: auto; }
        .bubble.assistant { background: #e9ecef; }
        .bubble.error { background: #f8d7da; color: #721c24; }
        .chat-form { display: flex; gap: 8px; margin-top: 10px; }
        .chat-form input { flex: 1; padding: 8px; border: 1px solid #dee2e6; border-radius: 6px; }
        .chat-form select { padding: 8px; border: 1px solid #dee2e6; border-radius: 6px; }
        button { padding: 8px 16px; border: none; border-radius: 6px; background: #007bff; color: white; cursor: pointer; }
        button.secondary { background: #6c757d; }
        .flow-card { background: #f8f9fa; padding: 12px; border-radius: 6px; border: 1px solid #dee2e6; margin-bottom: 10px; display: flex; justify-content: space-between; align-items: center; }
        pre.raw { background: #f8f9fa; border: 1px solid #dee2e6; border-radius: 6px; padding: 12px; font-size: 12px; overflow-x: auto; }
        .updated { color: #666; font-size: 12px; text-align: center; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
            <p>Version {{.Version}} &middot; rendered {{.Now.Format "2006-01-02 15:04:05 UTC"}}</p>
        </div>

        <div class="tiles" id="tiles"></div>

        <div class="tabs">
            <button class="tab active" data-panel="chat">Chat</button>
            <button class="tab" data-panel="workflows">Workflows</button>
            <button class="tab" data-panel="learning">Learning</button>
            <button class="tab" data-panel="ethics">Ethics</button>
            <button class="tab" data-panel="security">Security</button>
            <button class="tab" data-panel="services">Services</button>
        </div>

        <div class="panel active" id="panel-chat">
            <div class="chat-log" id="chat-log"></div>
            <form class="chat-form" id="chat-form">
                <select id="chat-target"><option value="">Direct LLM</option></select>
                <input id="chat-input" placeholder="Ask something..." autocomplete="off">
                <button type="submit">Send</button>
            </form>
        </div>

        <div class="panel" id="panel-workflows">
            <div id="flow-list"></div>
        </div>

        <div class="panel" id="panel-learning">
            <button id="btn-improve">Trigger autonomous improvement</button>
            <button class="secondary" id="btn-refresh-learning">Refresh</button>
            <h3>Status</h3>
            <pre class="raw" id="learning-status">loading...</pre>
            <h3>Version history</h3>
            <pre class="raw" id="learning-history">loading...</pre>
        </div>

        <div class="panel" id="panel-ethics">
            <h3>Immutable principles</h3>
            <pre class="raw" id="ethics-principles">loading...</pre>
        </div>

        <div class="panel" id="panel-security">
            <h3>Security configuration</h3>
            <pre class="raw" id="security-config">loading...</pre>
        </div>

        <div class="panel" id="panel-services">
            <button id="btn-analyze">Re-run needs analysis</button>
            <h3>System needs analysis</h3>
            <pre class="raw" id="services-analysis">loading...</pre>
        </div>

        <div class="updated" id="updated"></div>
    </div>

    <script>
    let sessionId = null;

    function esc(s) {
        const d = document.createElement('div');
        d.textContent = s == null ? '' : String(s);
        return d.innerHTML;
    }

    async function pollStatus() {
        try {
            const res = await fetch('/api/status');
            if (!res.ok) throw new Error('status ' + res.status);
            const data = await res.json();
            const tiles = document.getElementById('tiles');
            tiles.innerHTML = '';
            for (const svc of data.services) {
                const cls = svc.online ? 'online' : 'offline';
                const detail = svc.online
                    ? 'latency ' + Math.round(svc.latency_ms / 1e6) + ' ms'
                    : esc(svc.last_error || 'unreachable');
                tiles.insertAdjacentHTML('beforeend',
                    '<div class="tile ' + cls + '">' +
                    '<div class="tile-name">' + esc(svc.name) + '</div>' +
                    '<span class="tile-state ' + cls + '">' + (svc.online ? 'online' : 'offline') + '</span>' +
                    '<div class="tile-detail">' + detail + '</div></div>');
            }
            document.getElementById('updated').textContent = 'Last updated: ' + new Date(data.timestamp).toLocaleTimeString();
        } catch (err) {
            document.getElementById('updated').textContent = 'Status unavailable: ' + err.message;
        }
    }

    function addBubble(role, text, isError) {
        const log = document.getElementById('chat-log');
        const cls = isError ? 'error' : role;
        log.insertAdjacentHTML('beforeend', '<div class="bubble ' + cls + '">' + esc(text) + '</div>');
        log.scrollTop = log.scrollHeight;
    }

    document.getElementById('chat-form').addEventListener('submit', async function (e) {
        e.preventDefault();
        const input = document.getElementById('chat-input');
        const message = input.value.trim();
        if (!message) return;
        input.value = '';
        addBubble('user', message, false);
        const body = { message: message };
        if (sessionId) body.session_id = sessionId;
        const target = document.getElementById('chat-target').value;
        if (target) body.chatflow_id = target;
        try {
            const res = await fetch('/api/chat', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify(body)
            });
            const data = await res.json();
            if (!res.ok) throw new Error(data.error || ('status ' + res.status));
            sessionId = data.session_id;
            addBubble('assistant', data.reply.content, data.reply.error === true);
        } catch (err) {
            addBubble('assistant', 'Request failed: ' + err.message, true);
        }
    });

    async function loadChatflows() {
        try {
            const res = await fetch('/api/flowise/chatflows');
            if (!res.ok) throw new Error('status ' + res.status);
            const flows = await res.json();
            const select = document.getElementById('chat-target');
            select.innerHTML = '<option value="">Direct LLM</option>';
            const list = document.getElementById('flow-list');
            list.innerHTML = '';
            for (const f of flows) {
                select.insertAdjacentHTML('beforeend', '<option value="' + esc(f.id) + '">' + esc(f.name) + '</option>');
                list.insertAdjacentHTML('beforeend',
                    '<div class="flow-card"><div><strong>' + esc(f.name) + '</strong>' +
                    (f.deployed ? ' (deployed)' : '') + '</div>' +
                    '<button data-flow="' + esc(f.id) + '" class="optimize">Optimize</button></div>');
            }
            for (const btn of list.querySelectorAll('button.optimize')) {
                btn.addEventListener('click', async function () {
                    btn.disabled = true;
                    try {
                        const res = await fetch('/api/flowise/chatflows/' + btn.dataset.flow + '/optimize', {
                            method: 'POST',
                            headers: { 'Content-Type': 'application/json' },
                            body: JSON.stringify({ temperature: 0.7, maxTokens: 1000 })
                        });
                        if (!res.ok) throw new Error('status ' + res.status);
                        await loadChatflows();
                    } catch (err) {
                        alert('Optimize failed: ' + err.message);
                    } finally {
                        btn.disabled = false;
                    }
                });
            }
        } catch (err) {
            document.getElementById('flow-list').innerHTML = '<em>Flowise unavailable: ' + esc(err.message) + '</em>';
        }
    }

    async function fillPanels(pairs) {
        for (const [id, url] of pairs) {
            try {
                const res = await fetch(url + '?pretty=1');
                document.getElementById(id).textContent = res.ok ? await res.text() : 'unavailable (status ' + res.status + ')';
            } catch (err) {
                document.getElementById(id).textContent = 'unavailable: ' + err.message;
            }
        }
    }

    function loadLearning() {
        return fillPanels([
            ['learning-status', '/api/learning/status'],
            ['learning-history', '/api/learning/version-history']
        ]);
    }

    function loadInfoPanels() {
        return fillPanels([
            ['ethics-principles', '/api/ethics/principles'],
            ['security-config', '/api/config/security'],
            ['services-analysis', '/api/services/analyze']
        ]);
    }

    document.getElementById('btn-improve').addEventListener('click', async function () {
        try {
            const res = await fetch('/api/learning/autonomous-improvement', { method: 'POST' });
            if (!res.ok) throw new Error('status ' + res.status);
            await loadLearning();
        } catch (err) {
            alert('Trigger failed: ' + err.message);
        }
    });
    document.getElementById('btn-refresh-learning').addEventListener('click', loadLearning);
    document.getElementById('btn-analyze').addEventListener('click', function () {
        return fillPanels([['services-analysis', '/api/services/analyze']]);
    });

    for (const tab of document.querySelectorAll('.tab')) {
        tab.addEventListener('click', function () {
            document.querySelectorAll('.tab').forEach(t => t.classList.remove('active'));
            document.querySelectorAll('.panel').forEach(p => p.classList.remove('active'));
            tab.classList.add('active');
            document.getElementById('panel-' + tab.dataset.panel).classList.add('active');
        });
    }

    pollStatus();
    loadChatflows();
    loadLearning();
    loadInfoPanels();
    setInterval(pollStatus, 5000);
    </script>
</body>
</html>`
