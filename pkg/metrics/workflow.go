package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records moderation and loan decision outcomes plus document
// attachment results.
type WorkflowMetrics struct {
	decisions      *prometheus.CounterVec
	attachments    *prometheus.CounterVec
	attachDuration *prometheus.HistogramVec
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_decisions_total",
		Help: "Review decisions recorded per workflow.",
	}, []string{"workflow", "decision"})
	attachments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_attachments_total",
		Help: "Document attachment attempts by outcome.",
	}, []string{"kind", "outcome"})
	attachDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "document_attach_duration_seconds",
		Help:    "Duration of async document attachment batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	reg.MustRegister(decisions, attachments, attachDuration)
	return &WorkflowMetrics{
		decisions:      decisions,
		attachments:    attachments,
		attachDuration: attachDuration,
	}
}

// IncDecision increments the decision counter for the named workflow.
func (w *WorkflowMetrics) IncDecision(workflow, decision string) {
	if w == nil || w.decisions == nil {
		return
	}
	w.decisions.WithLabelValues(normalizeLabel(workflow), normalizeLabel(decision)).Inc()
}

// IncAttachment increments the attachment counter for the given kind/outcome.
func (w *WorkflowMetrics) IncAttachment(kind, outcome string) {
	if w == nil || w.attachments == nil {
		return
	}
	w.attachments.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// ObserveAttachDuration records how long an attachment batch took.
func (w *WorkflowMetrics) ObserveAttachDuration(kind string, duration time.Duration) {
	if w == nil || w.attachDuration == nil {
		return
	}
	w.attachDuration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
