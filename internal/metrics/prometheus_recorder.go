package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	probeDuration *prom.HistogramVec
	probeResults  *prom.CounterVec
	serviceUp     *prom.GaugeVec
	httpRequests  *prom.CounterVec
	chatDuration  *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.probeDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "selfsustain",
			Name:      "probe_duration_seconds",
			Help:      "Duration of individual service health probes",
			Buckets:   prom.DefBuckets,
		}, []string{"service"})
		pr.probeResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "selfsustain",
			Name:      "probe_results_total",
			Help:      "Probe result counts by outcome",
		}, []string{"service", "result"})
		pr.serviceUp = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "selfsustain",
			Name:      "service_up",
			Help:      "Whether a monitored service is currently reachable (1/0)",
		}, []string{"service"})
		pr.httpRequests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "selfsustain",
			Name:      "http_requests_total",
			Help:      "Dashboard and admin HTTP requests by method, path, and status",
		}, []string{"method", "path", "status"})
		pr.chatDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "selfsustain",
			Name:      "chat_roundtrip_seconds",
			Help:      "Chat round-trip duration per target model or chatflow",
			Buckets:   prom.DefBuckets,
		}, []string{"target", "result"})
		reg.MustRegister(pr.probeDuration, pr.probeResults, pr.serviceUp, pr.httpRequests, pr.chatDuration)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveProbeDuration(service string, d time.Duration) {
	if p == nil || p.probeDuration == nil {
		return
	}
	p.probeDuration.WithLabelValues(service).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncProbeResult(service string, result ResultLabel) {
	if p == nil || p.probeResults == nil {
		return
	}
	p.probeResults.WithLabelValues(service, string(result)).Inc()
}

func (p *PrometheusRecorder) SetServiceUp(service string, up bool) {
	if p == nil || p.serviceUp == nil {
		return
	}
	v := 0.0
	if up {
		v = 1.0
	}
	p.serviceUp.WithLabelValues(service).Set(v)
}

func (p *PrometheusRecorder) IncHTTPRequest(method, path string, status int) {
	if p == nil || p.httpRequests == nil {
		return
	}
	p.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) ObserveChatDuration(target string, d time.Duration, errored bool) {
	if p == nil || p.chatDuration == nil {
		return
	}
	result := "success"
	if errored {
		result = "failure"
	}
	p.chatDuration.WithLabelValues(target, result).Observe(d.Seconds())
}
