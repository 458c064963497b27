// Package telemetry records planner activity as OpenTelemetry metrics and
// log events. Each Record function increments a counter and emits an OTel log
// record through the global providers; with the default no-op providers both
// are free.
package telemetry

import (
	"context"
	"sync"

	"github.com/joeycumines/go-htn/internal/htn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterRecorderName = "github.com/joeycumines/go-htn"
	loggerName        = "go-htn"
)

// Metric names.
const (
	MetricReplans           = "htn.planner.replans.total"
	MetricTasks             = "htn.planner.tasks.total"
	MetricTaskOutcomes      = "htn.planner.task_outcomes.total"
	MetricTaskStops         = "htn.planner.task_stops.total"
	MetricConditionFailures = "htn.planner.condition_failures.total"
	MetricAborts            = "htn.planner.aborts.total"
)

// recorderInstruments holds all lazy-initialized OTel metric instruments.
type recorderInstruments struct {
	replanTotal           metric.Int64Counter
	taskTotal             metric.Int64Counter
	taskOutcomeTotal      metric.Int64Counter
	taskStopTotal         metric.Int64Counter
	conditionFailureTotal metric.Int64Counter
	abortTotal            metric.Int64Counter
}

var (
	instOnce sync.Once
	inst     recorderInstruments
)

// initInstruments registers the instruments against the current global
// MeterProvider. Called lazily on first use.
func initInstruments() {
	instOnce.Do(func() {
		m := otel.GetMeterProvider().Meter(meterRecorderName)

		inst.replanTotal, _ = m.Int64Counter(MetricReplans,
			metric.WithDescription("Total successful replans"),
		)
		inst.taskTotal, _ = m.Int64Counter(MetricTasks,
			metric.WithDescription("Total tasks taken off a plan"),
		)
		inst.taskOutcomeTotal, _ = m.Int64Counter(MetricTaskOutcomes,
			metric.WithDescription("Total operator updates by outcome"),
		)
		inst.taskStopTotal, _ = m.Int64Counter(MetricTaskStops,
			metric.WithDescription("Total running tasks stopped by a replan"),
		)
		inst.conditionFailureTotal, _ = m.Int64Counter(MetricConditionFailures,
			metric.WithDescription("Total condition failures on the current task"),
		)
		inst.abortTotal, _ = m.Int64Counter(MetricAborts,
			metric.WithDescription("Total plan aborts"),
		)
	})
}

// emit sends an OTel log event with the given body and key-value attributes.
func emit(ctx context.Context, body string, sev otellog.Severity, attrs ...otellog.KeyValue) {
	logger := global.GetLoggerProvider().Logger(loggerName)
	var r otellog.Record
	r.SetBody(otellog.StringValue(body))
	r.SetSeverity(sev)
	r.AddAttributes(attrs...)
	logger.Emit(ctx, r)
}

// RecordReplan records a successful replan. kind is "new" or "replace".
func RecordReplan(ctx context.Context, agent, kind string, length int) {
	initInstruments()
	inst.replanTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent", agent),
			attribute.String("kind", kind),
		),
	)
	emit(ctx, "planner.replan", otellog.SeverityDebug,
		otellog.String("agent", agent),
		otellog.String("kind", kind),
		otellog.Int("length", length),
	)
}

// RecordTask records a task becoming current.
func RecordTask(ctx context.Context, agent, task string) {
	initInstruments()
	inst.taskTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent", agent),
			attribute.String("task", task),
		),
	)
	emit(ctx, "planner.task", otellog.SeverityDebug,
		otellog.String("agent", agent),
		otellog.String("task", task),
	)
}

// RecordTaskOutcome records one operator update. outcome is the
// htn.TaskStatus name.
func RecordTaskOutcome(ctx context.Context, agent, task, outcome string) {
	initInstruments()
	inst.taskOutcomeTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent", agent),
			attribute.String("task", task),
			attribute.String("outcome", outcome),
		),
	)
	sev := otellog.SeverityDebug
	if outcome == htn.Failure.String() {
		sev = otellog.SeverityWarn
	}
	emit(ctx, "planner.task_outcome", sev,
		otellog.String("agent", agent),
		otellog.String("task", task),
		otellog.String("outcome", outcome),
	)
}

// RecordTaskStop records a running task stopped because its plan was
// replaced.
func RecordTaskStop(ctx context.Context, agent, task string) {
	initInstruments()
	inst.taskStopTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent", agent),
			attribute.String("task", task),
		),
	)
	emit(ctx, "planner.task_stop", otellog.SeverityInfo,
		otellog.String("agent", agent),
		otellog.String("task", task),
	)
}

// RecordConditionFailure records a failed condition. phase is "plan" for a
// planning condition checked when the task became current, "execute" for an
// execution condition.
func RecordConditionFailure(ctx context.Context, agent, task, condition, phase string) {
	initInstruments()
	inst.conditionFailureTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent", agent),
			attribute.String("task", task),
			attribute.String("phase", phase),
		),
	)
	emit(ctx, "planner.condition_failure", otellog.SeverityWarn,
		otellog.String("agent", agent),
		otellog.String("task", task),
		otellog.String("condition", condition),
		otellog.String("phase", phase),
	)
}

// RecordAbort records a plan abort.
func RecordAbort(ctx context.Context, agent, reason string) {
	initInstruments()
	inst.abortTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("agent", agent)),
	)
	emit(ctx, "planner.abort", otellog.SeverityWarn,
		otellog.String("agent", agent),
		otellog.String("reason", reason),
	)
}
