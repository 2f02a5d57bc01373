package metrics

import "github.com/prometheus/client_golang/prometheus"

// FormMetrics exposes counters/histograms for the form submission pipeline.
type FormMetrics struct {
	submissionsTotal *prometheus.CounterVec
	persistAttempts  *prometheus.HistogramVec
	notifyTotal      *prometheus.CounterVec
	rateLimitedTotal *prometheus.CounterVec
	pipelineLatency  *prometheus.HistogramVec
}

func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "childcare",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Form submissions by kind and terminal outcome",
		}, []string{"kind", "outcome"}),
		persistAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "childcare",
			Subsystem: "forms",
			Name:      "persist_attempts",
			Help:      "Store calls made per submission",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}, []string{"kind"}),
		notifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "childcare",
			Subsystem: "forms",
			Name:      "notifications_total",
			Help:      "Notification sends by audience and status",
		}, []string{"audience", "status"}),
		rateLimitedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "childcare",
			Subsystem: "forms",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limiter",
		}, []string{"scope"}),
		pipelineLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "childcare",
			Subsystem: "forms",
			Name:      "pipeline_latency_seconds",
			Help:      "End-to-end latency of form handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.persistAttempts, m.notifyTotal, m.rateLimitedTotal, m.pipelineLatency)
	return m
}

func (m *FormMetrics) ObserveSubmission(kind, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *FormMetrics) ObservePersistAttempts(kind string, attempts int) {
	if m == nil || attempts <= 0 {
		return
	}
	m.persistAttempts.WithLabelValues(kind).Observe(float64(attempts))
}

func (m *FormMetrics) ObserveNotification(audience string, ok bool) {
	if m == nil {
		return
	}
	status := "sent"
	if !ok {
		status = "failed"
	}
	m.notifyTotal.WithLabelValues(audience, status).Inc()
}

func (m *FormMetrics) ObserveRateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimitedTotal.WithLabelValues(scope).Inc()
}

func (m *FormMetrics) ObservePipelineLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.pipelineLatency.WithLabelValues(kind).Observe(seconds)
}
