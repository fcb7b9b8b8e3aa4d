package eventflow

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/go-mixins/eventflow/driver"
)

// ReplayFor builds a coordinator that re-delivers persisted history of the
// repository's aggregate type. Replay only reads: it never writes to the
// store and never touches any aggregate's pending changes. Handlers may
// observe the same event again and are expected to be idempotent.
func ReplayFor[T any](repo *Repository[T], d *Dispatcher) *Replayer[T] {
	return &Replayer[T]{repo: repo, disp: d}
}

type Replayer[T any] struct {
	repo *Repository[T]
	disp *Dispatcher
}

// EventsWithAggregateID narrows the replay to one aggregate's full history.
func (r *Replayer[T]) EventsWithAggregateID(id string) *ReplayQuery[T] {
	return &ReplayQuery[T]{replayer: r, id: id}
}

// AllEvents selects every history of the aggregate type, in persisted order.
func (r *Replayer[T]) AllEvents() *ReplayQuery[T] {
	return &ReplayQuery[T]{replayer: r, all: true}
}

type ReplayQuery[T any] struct {
	replayer  *Replayer[T]
	id        string
	all       bool
	eventType string
}

// OfType filters the selection to events of the prototype's type.
func (q *ReplayQuery[T]) OfType(proto any) *ReplayQuery[T] {
	q.eventType = EventName(proto)
	return q
}

// ToAllEventHandlers delivers the selected events to every subscriber of the
// dispatcher, in original persisted order.
func (q *ReplayQuery[T]) ToAllEventHandlers(ctx context.Context) error {
	notes, err := q.collect(ctx)
	if err != nil {
		return err
	}
	return q.replayer.disp.Dispatch(ctx, notes)
}

// To delivers the selected events to the named handler only. A failing
// delivery is reported and does not stop the remaining events; cancellation
// stops the stream between events.
func (q *ReplayQuery[T]) To(ctx context.Context, h Handler) error {
	notes, err := q.collect(ctx)
	if err != nil {
		return err
	}
	var errs *multierror.Error
	for _, n := range notes {
		if err := ctx.Err(); err != nil {
			return multierror.Append(errs, err).ErrorOrNil()
		}
		if err := h.Handle(ctx, n); err != nil {
			errs = multierror.Append(errs, &DispatchError{Notification: n, Err: err})
		}
	}
	return errs.ErrorOrNil()
}

func (q *ReplayQuery[T]) collect(ctx context.Context) ([]Notification, error) {
	var (
		dtos []driver.Event
		err  error
	)
	if q.all {
		dtos, err = q.replayer.repo.Backend.LoadAll(ctx)
	} else {
		dtos, err = q.replayer.repo.Backend.Load(ctx, q.id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading history for replay: %w", err)
	}
	var notes []Notification
	for _, e := range dtos {
		if q.eventType != "" && e.Type != q.eventType {
			continue
		}
		evt, err := q.replayer.repo.Registry.Unmarshal(e.Type, e.Payload)
		if err != nil {
			return nil, err
		}
		notes = append(notes, Notification{
			AggregateID:      e.AggregateID,
			AggregateVersion: e.AggregateVersion,
			Event:            evt,
		})
	}
	return notes, nil
}
