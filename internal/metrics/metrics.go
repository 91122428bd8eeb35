// Package metrics records pipeline, wait and patch metrics for a single
// edgeprov run and pushes them to a Prometheus Pushgateway.
//
// A CLI process is too short-lived to be scraped, so each Recorder owns a
// private registry that is pushed once when the run ends.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/windguard/edgeprov/internal/convergence"
	"github.com/windguard/edgeprov/internal/patcher"
	"github.com/windguard/edgeprov/internal/pipeline"
)

// Job is the Pushgateway job name.
const Job = "edgeprov"

// Recorder collects metrics for one run. It implements pipeline.Observer.
type Recorder struct {
	registry *prometheus.Registry

	stepsTotal    *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	waitPolls     *prometheus.CounterVec
	waitOutcomes  *prometheus.CounterVec
	waitDuration  *prometheus.HistogramVec
	patchesTotal  *prometheus.CounterVec
	lastRunResult *prometheus.GaugeVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "edgeprov",
				Subsystem: "pipeline",
				Name:      "steps_total",
				Help:      "Total number of pipeline steps by status",
			},
			[]string{"pipeline", "step", "status"},
		),

		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "edgeprov",
				Subsystem: "pipeline",
				Name:      "step_duration_seconds",
				Help:      "Duration of pipeline steps in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~14min
			},
			[]string{"pipeline", "step"},
		),

		waitPolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "edgeprov",
				Subsystem: "wait",
				Name:      "polls_total",
				Help:      "Total number of status polls by result",
			},
			[]string{"result"},
		),

		waitOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "edgeprov",
				Subsystem: "wait",
				Name:      "outcomes_total",
				Help:      "Total number of wait outcomes by state",
			},
			[]string{"state"},
		),

		waitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "edgeprov",
				Subsystem: "wait",
				Name:      "duration_seconds",
				Help:      "Time until a resource reached a terminal state, in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 11), // 1s to ~17min
			},
			[]string{"state"},
		),

		patchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "edgeprov",
				Subsystem: "patch",
				Name:      "total",
				Help:      "Total number of ensure-present patches by result",
			},
			[]string{"result"},
		),

		lastRunResult: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "edgeprov",
				Name:      "last_run_success",
				Help:      "Whether the last run of a command succeeded (1) or not (0)",
			},
			[]string{"command"},
		),
	}

	r.registry.MustRegister(
		r.stepsTotal,
		r.stepDuration,
		r.waitPolls,
		r.waitOutcomes,
		r.waitDuration,
		r.patchesTotal,
		r.lastRunResult,
	)
	return r
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// StepStarted implements pipeline.Observer.
func (r *Recorder) StepStarted(string, string, time.Time) {}

// StepFinished implements pipeline.Observer.
func (r *Recorder) StepFinished(pipelineName string, rec pipeline.StepRecord) {
	r.stepsTotal.WithLabelValues(pipelineName, rec.Step, string(rec.Status)).Inc()
	r.stepDuration.WithLabelValues(pipelineName, rec.Step).Observe(rec.Duration.Seconds())
}

// ObservePoll is a convergence.Observer counting polls.
func (r *Recorder) ObservePoll(o convergence.Observation) {
	switch {
	case o.State == convergence.Cancelled:
		return
	case o.Err != nil:
		r.waitPolls.WithLabelValues("error").Inc()
	case o.Snapshot.Ready():
		r.waitPolls.WithLabelValues("ready").Inc()
	default:
		r.waitPolls.WithLabelValues("not_ready").Inc()
	}
}

// RecordWait records the terminal outcome of every resource in report.
func (r *Recorder) RecordWait(report *convergence.Report) {
	if report == nil {
		return
	}
	for _, o := range report.Outcomes {
		r.waitOutcomes.WithLabelValues(string(o.State)).Inc()
		r.waitDuration.WithLabelValues(string(o.State)).Observe(o.Elapsed.Seconds())
	}
}

// RecordPatch records the result of an ensure-present patch.
func (r *Recorder) RecordPatch(change patcher.Change, err error) {
	if err != nil {
		r.patchesTotal.WithLabelValues("Failed").Inc()
		return
	}
	r.patchesTotal.WithLabelValues(string(change)).Inc()
}

// RecordRun records whether command succeeded.
func (r *Recorder) RecordRun(command string, err error) {
	if err != nil {
		r.lastRunResult.WithLabelValues(command).Set(0)
		return
	}
	r.lastRunResult.WithLabelValues(command).Set(1)
}

// Push sends every collected metric to the Pushgateway at url, replacing
// the previous push of the same grouping.
func (r *Recorder) Push(ctx context.Context, url string, grouping map[string]string) error {
	pusher := push.New(url, Job).Gatherer(r.registry)
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
