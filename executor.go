package eventflow

import (
	"context"
	"fmt"
	"time"
)

// Action is the business logic run against a loaded aggregate. It may
// Record and Replay changes and query derived state; returning a Fault
// signals a domain-rule violation, any other error a system failure.
type Action[T any] func(ctx context.Context, ag *Aggregate[T]) error

// Executor runs commands against aggregates of one type: load, action,
// commit, dispatch. A version conflict on commit surfaces as
// driver.ErrConcurrency; the executor never retries on its own.
type Executor[T any] struct {
	Repository *Repository[T]
	Dispatcher *Dispatcher
	// Timeout bounds the whole execution including commit and dispatch.
	// Zero means no bound beyond the caller's context.
	Timeout time.Duration
}

func NewExecutor[T any](repo *Repository[T], d *Dispatcher) *Executor[T] {
	return &Executor[T]{Repository: repo, Dispatcher: d}
}

// With resolves the target aggregate id from the command.
func (x *Executor[T]) With(cmd Command) *Invocation[T] {
	return x.WithID(cmd.AggregateID())
}

// WithID targets an explicit aggregate id, overriding command resolution.
func (x *Executor[T]) WithID(id string) *Invocation[T] {
	return &Invocation[T]{executor: x, id: id}
}

type Invocation[T any] struct {
	executor *Executor[T]
	id       string
}

// Do executes the action and propagates any failure to the caller.
func (inv *Invocation[T]) Do(ctx context.Context, act Action[T]) error {
	return inv.Try(ctx, act).Err()
}

// Try executes the action and defers failure routing to the returned
// Outcome's CatchFault and CatchException.
func (inv *Invocation[T]) Try(ctx context.Context, act Action[T]) *Outcome[T] {
	x := inv.executor
	out := &Outcome[T]{}
	if x.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.Timeout)
		defer cancel()
	}
	ag, err := x.Repository.Load(ctx, inv.id)
	if err != nil {
		out.classify(err)
		return out
	}
	out.state = ag.State()
	if err := act(ag.context(ctx), ag); err != nil {
		out.classify(err)
		return out
	}
	notes, err := x.Repository.Save(ctx, ag)
	if err != nil {
		out.postErr = fmt.Errorf("saving aggregate with ID %v: %w", inv.id, err)
		return out
	}
	if x.Dispatcher != nil && len(notes) > 0 {
		out.postErr = x.Dispatcher.Dispatch(ctx, notes)
	}
	return out
}

// Outcome is the result of one Try. Exactly one of CatchFault and
// CatchException consumes a failing execution, chosen by classification;
// commit-phase and dispatch-phase failures bypass both and come back from
// Err.
type Outcome[T any] struct {
	state   T
	fault   *Fault
	exc     error
	postErr error
	handled bool
}

// CatchFault invokes h if and only if the execution raised a Fault, passing
// the fault and the aggregate state at time of failure.
func (o *Outcome[T]) CatchFault(h func(*Fault, T)) *Outcome[T] {
	if o.fault != nil && !o.handled {
		o.handled = true
		h(o.fault, o.state)
	}
	return o
}

// CatchException invokes h if and only if the execution raised a system
// error (anything not classified as a Fault).
func (o *Outcome[T]) CatchException(h func(error, T)) *Outcome[T] {
	if o.exc != nil && !o.handled {
		o.handled = true
		h(o.exc, o.state)
	}
	return o
}

// State is the aggregate state observed by the execution, zero if loading
// failed.
func (o *Outcome[T]) State() T {
	return o.state
}

// Err returns the failure still owed to the caller: an unconsumed fault or
// system error, or a commit/dispatch-phase failure.
func (o *Outcome[T]) Err() error {
	switch {
	case o.fault != nil && !o.handled:
		return o.fault
	case o.exc != nil && !o.handled:
		return o.exc
	}
	return o.postErr
}

func (o *Outcome[T]) classify(err error) {
	if f, ok := AsFault(err); ok {
		o.fault = f
		return
	}
	o.exc = err
}
