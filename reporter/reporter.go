package reporter

import (
	Logger "github.com/Luismorlan/contentmux/utils/log"
)

const (
	DdogSideEffectErrorCounter = "contentmux.side_effect.error"
)

// ErrorReporter is the diagnostic sink every failure-isolated side effect
// reports to. Capture must never block the caller for long and never fail.
type ErrorReporter interface {
	Capture(err error, tags ...string)
}

// Counter is the subset of the Datadog statsd client the reporter needs.
// *statsd.Client satisfies it.
type Counter interface {
	Incr(name string, tags []string, rate float64) error
}

// StatsdReporter bumps a Datadog counter tagged with the failing effect so
// that propagation failures can be alerted on. Logging is left to the caller.
type StatsdReporter struct {
	Statsd Counter
}

func NewStatsdReporter(statsd Counter) *StatsdReporter {
	return &StatsdReporter{Statsd: statsd}
}

func (r *StatsdReporter) Capture(err error, tags ...string) {
	if err == nil {
		return
	}
	if r.Statsd == nil {
		return
	}
	if e := r.Statsd.Incr(DdogSideEffectErrorCounter, tags, 1); e != nil {
		Logger.Log.Infoln("cannot report side effect error", e)
	}
}
