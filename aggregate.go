package eventflow

import (
	"context"
	"reflect"
)

// Aggregate is one domain entity rebuilt from its committed history. It is
// constructed per command execution by Repository.Load, mutated in memory
// through Record and Replay, and discarded after commit.
//
// The history an Aggregate owns is read-only and reachable only through the
// query helpers below, which an action receives via its *Aggregate argument.
// Nothing outside the executing action ever holds the Aggregate, so derived
// state cannot be consulted from command-handling code elsewhere.
type Aggregate[T any] struct {
	id      string
	data    T
	history []any
	changes []change
	version int
}

// change is one entry of the aggregate's in-flight change list. Replayed
// entries are dispatched after commit but never persisted.
type change struct {
	event    any
	replayed bool
}

func (a *Aggregate[T]) ID() string {
	return a.id
}

// State is the value the repository's fold derived from committed history.
// Pending changes never influence it.
func (a *Aggregate[T]) State() T {
	return a.data
}

// Version is the number of committed events at load time. It anchors the
// optimistic concurrency check on commit.
func (a *Aggregate[T]) Version() int {
	return a.version
}

// Record appends evt to the pending changes. On commit it is persisted
// exactly once and then delivered exactly once to every subscriber.
func (a *Aggregate[T]) Record(evt any) {
	a.changes = append(a.changes, change{event: evt})
}

// Replay marks evt for post-commit delivery to subscribers without
// persisting it. Use it when history shows the fact is already recorded and
// only the handler side effect needs to fire again.
func (a *Aggregate[T]) Replay(evt any) {
	a.changes = append(a.changes, change{event: evt, replayed: true})
}

// Changes returns a copy of the pending (not yet persisted) events. Events
// queued through Replay are not pending changes and are excluded.
func (a *Aggregate[T]) Changes() []any {
	var res []any
	for _, c := range a.changes {
		if !c.replayed {
			res = append(res, c.event)
		}
	}
	return res
}

// CountOf counts committed events of type E.
func CountOf[E, T any](a *Aggregate[T]) int {
	var n int
	for _, evt := range a.history {
		if _, ok := evt.(E); ok {
			n++
		}
	}
	return n
}

// HasAny reports whether any committed event of type E exists.
func HasAny[E, T any](a *Aggregate[T]) bool {
	return CountOf[E](a) > 0
}

// LastOf returns the most recent committed event of type E.
func LastOf[E, T any](a *Aggregate[T]) (last E, ok bool) {
	for _, evt := range a.history {
		if e, match := evt.(E); match {
			last, ok = e, true
		}
	}
	return last, ok
}

// Derive evaluates f over the aggregate's committed history. The fold runs
// fresh on every call and never sees pending changes.
func Derive[S, T any](a *Aggregate[T], f *Fold[S]) (S, error) {
	return f.Reduce(a.history)
}

// historyVersion returns the version under which the last committed event
// equal to evt was persisted, -1 when no such fact exists. Replayed
// notifications carry this version so subscribers see the original fact.
func (a *Aggregate[T]) historyVersion(evt any) int {
	for i := len(a.history) - 1; i >= 0; i-- {
		if reflect.DeepEqual(a.history[i], evt) {
			return i
		}
	}
	return -1
}

type aggregateIDKey struct{}

func (a *Aggregate[T]) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, aggregateIDKey{}, a.id)
}

// AggregateID extracts the id of the aggregate a business action is running
// against from the action's context.
func AggregateID(ctx context.Context) string {
	id, _ := ctx.Value(aggregateIDKey{}).(string)
	return id
}
