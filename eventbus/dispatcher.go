package eventbus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Luismorlan/contentmux/events"
	"github.com/Luismorlan/contentmux/reporter"
	Logger "github.com/Luismorlan/contentmux/utils/log"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Listener reacts to one published event. A returned error (or a panic) is
// reported and swallowed by the dispatcher.
type Listener func(ctx context.Context, e events.Event) error

// Effect is a single side effect run with its own error boundary.
type Effect func(ctx context.Context) error

// Bus is the dispatcher surface handed to components that publish events or
// run failure-isolated side effects.
type Bus interface {
	Publish(ctx context.Context, e events.Event)
	Try(ctx context.Context, name string, fn Effect) bool
	Detach(ctx context.Context, name string, fn Effect)
}

type subscription struct {
	name string
	fn   Listener
}

// Dispatcher is an in-process, synchronous publish/subscribe bus. Listeners
// are registered once at startup, in order, and the registry is sealed
// before serving traffic. After Seal the registry is read-only, so Publish is
// safe to call from many goroutines without locking.
type Dispatcher struct {
	subscriptions map[events.Kind][]subscription
	sealed        atomic.Bool

	reporter reporter.ErrorReporter

	// detached tracks fire-and-forget effects so that shutdown can drain them.
	detached sync.WaitGroup
}

func NewDispatcher(r reporter.ErrorReporter) *Dispatcher {
	return &Dispatcher{
		subscriptions: make(map[events.Kind][]subscription),
		reporter:      r,
	}
}

// Subscribe appends a listener for the given kind. Listeners of the same kind
// run in the order they were subscribed. Panics once the dispatcher is sealed.
func (d *Dispatcher) Subscribe(kind events.Kind, name string, fn Listener) {
	if d.sealed.Load() {
		panic(fmt.Sprintf("eventbus: subscribe %s to %s after seal", name, kind))
	}
	d.subscriptions[kind] = append(d.subscriptions[kind], subscription{name: name, fn: fn})
}

// Seal freezes the registry.
func (d *Dispatcher) Seal() {
	d.sealed.Store(true)
	for kind, subs := range d.subscriptions {
		Logger.Log.WithFields(logrus.Fields{"event": kind, "listeners": len(subs)}).Info("event listeners registered")
	}
}

func (d *Dispatcher) IsSealed() bool {
	return d.sealed.Load()
}

// Listeners returns the names of listeners registered for kind, in order.
func (d *Dispatcher) Listeners(kind events.Kind) []string {
	res := []string{}
	for _, s := range d.subscriptions[kind] {
		res = append(res, s.name)
	}
	return res
}

// Publish runs every listener subscribed to the event's kind, sequentially on
// the calling goroutine. It returns once all of them returned or failed; a
// failing listener never stops its siblings and never reaches the caller.
// Listeners keep the caller's values but not its cancellation, since the
// event describes a change that is already committed.
func (d *Dispatcher) Publish(ctx context.Context, e events.Event) {
	ctx = context.WithoutCancel(ctx)
	for _, s := range d.subscriptions[e.Kind()] {
		d.invoke(ctx, s, e)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, s subscription, e events.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.failListener(fmt.Errorf("panic: %v", r), s.name, e.Kind())
		}
	}()
	if err := s.fn(ctx, e); err != nil {
		d.failListener(err, s.name, e.Kind())
	}
}

// Try runs fn synchronously inside its own error boundary and reports whether
// it succeeded.
func (d *Dispatcher) Try(ctx context.Context, name string, fn Effect) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.failEffect(fmt.Errorf("panic: %v", r), name)
			ok = false
		}
	}()
	if err := fn(ctx); err != nil {
		d.failEffect(err, name)
		return false
	}
	return true
}

// Detach runs fn on its own goroutine. The caller never waits for it and its
// context is detached from the caller's cancellation: a finished request
// does not retract effects it already dispatched.
func (d *Dispatcher) Detach(ctx context.Context, name string, fn Effect) {
	ctx = context.WithoutCancel(ctx)
	d.detached.Add(1)
	go func() {
		defer d.detached.Done()
		d.Try(ctx, name, fn)
	}()
}

// Wait blocks until every detached effect finished. Used on shutdown and in
// tests, never on the request path.
func (d *Dispatcher) Wait() {
	d.detached.Wait()
}

func (d *Dispatcher) failListener(err error, name string, kind events.Kind) {
	d.fail(err, name,
		logrus.Fields{"listener": name, "event": kind},
		[]string{"listener:" + name, "event:" + string(kind)})
}

func (d *Dispatcher) failEffect(err error, name string) {
	d.fail(err, name, logrus.Fields{"effect": name}, []string{"effect:" + name})
}

func (d *Dispatcher) fail(err error, name string, fields logrus.Fields, tags []string) {
	Logger.Log.WithFields(fields).WithError(err).Error("side effect failed")

	if d.reporter != nil {
		d.reporter.Capture(errors.Wrapf(err, "%s", name), tags...)
	}
}
