package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики pipeline и отправок для /metrics.
var (
	stageExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearway_stage_executions_total",
		Help: "Stage executions by pipeline, stage and outcome.",
	}, []string{"pipeline", "stage", "outcome"})

	stageRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearway_stage_retries_total",
		Help: "Failed stage attempts that were retried or exhausted.",
	}, []string{"pipeline", "stage"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clearway_stage_duration_seconds",
		Help:    "Stage execution duration including retries and backoff.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pipeline", "stage"})

	submissionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearway_submission_transitions_total",
		Help: "Submission record status transitions.",
	}, []string{"status"})

	reconcileChecked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clearway_reconcile_checked_total",
		Help: "Submissions checked against the settlement network.",
	})

	reconcileSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clearway_reconcile_settled_total",
		Help: "Submissions that reached a final network status during reconciliation.",
	})

	eventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearway_events_consumed_total",
		Help: "Broker events by queue, event type and outcome (ack, requeue, dlq).",
	}, []string{"queue", "type", "outcome"})
)

// ObserveStage фиксирует завершение выполнения стадии.
func ObserveStage(pipeline, stage, outcome string, duration time.Duration, retries int) {
	stageExecutions.WithLabelValues(pipeline, stage, outcome).Inc()
	stageDuration.WithLabelValues(pipeline, stage).Observe(duration.Seconds())
	if retries > 0 {
		stageRetries.WithLabelValues(pipeline, stage).Add(float64(retries))
	}
}

// ObserveSubmissionStatus фиксирует переход статуса отправки.
func ObserveSubmissionStatus(status string) {
	submissionTransitions.WithLabelValues(status).Inc()
}

// ObserveReconcilePass фиксирует итог одного прохода сверки.
func ObserveReconcilePass(checked, settled int) {
	reconcileChecked.Add(float64(checked))
	reconcileSettled.Add(float64(settled))
}

// ObserveEventConsumed фиксирует исход обработки события из очереди.
func ObserveEventConsumed(queue, eventType, outcome string) {
	eventsConsumed.WithLabelValues(queue, eventType, outcome).Inc()
}
