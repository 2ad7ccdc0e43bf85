package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyService    = "service"
	KeyEndpoint   = "endpoint"
	KeyChatflow   = "chatflow_id"
	KeySession    = "session_id"
	KeyModel      = "model"
	KeyDurationMS = "duration_ms"
	KeyOnline     = "online"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Service(name string) slog.Attr   { return slog.String(KeyService, name) }
func Endpoint(url string) slog.Attr   { return slog.String(KeyEndpoint, url) }
func Chatflow(id string) slog.Attr    { return slog.String(KeyChatflow, id) }
func Session(id string) slog.Attr     { return slog.String(KeySession, id) }
func Model(name string) slog.Attr     { return slog.String(KeyModel, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Online(up bool) slog.Attr        { return slog.Bool(KeyOnline, up) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
