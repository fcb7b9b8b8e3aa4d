package eventflow

import (
	"context"
	"fmt"

	"github.com/go-mixins/eventflow/driver"
)

// Repository loads and saves aggregates of one type. Load rebuilds derived
// state by reducing the stored history through Fold; Save appends the
// aggregate's pending changes with sequential versions, relying on the
// backend's version uniqueness for the optimistic concurrency check.
type Repository[T any] struct {
	Backend  driver.Backend
	Registry *Registry
	Fold     *Fold[T]
}

func NewRepository[T any](backend driver.Backend, fold *Fold[T]) *Repository[T] {
	return &Repository[T]{
		Backend:  backend,
		Registry: NewRegistry(),
		Fold:     fold,
	}
}

// RegisterEvents declares the event types this repository persists.
func (es *Repository[T]) RegisterEvents(protos ...any) error {
	return es.Registry.Register(protos...)
}

func (es *Repository[T]) Load(ctx context.Context, id string) (*Aggregate[T], error) {
	evtDTOs, err := es.Backend.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading history for %q: %w", id, err)
	}
	history := make([]any, len(evtDTOs))
	for i, e := range evtDTOs {
		evt, err := es.Registry.Unmarshal(e.Type, e.Payload)
		if err != nil {
			return nil, err
		}
		history[i] = evt
	}
	data, err := es.Fold.Reduce(history)
	if err != nil {
		return nil, err
	}
	return &Aggregate[T]{
		id:      id,
		data:    data,
		history: history,
		version: len(history),
	}, nil
}

// Save persists the aggregate's recorded changes and returns the
// notifications to dispatch, in the order the changes were produced.
// Replayed entries are included in the notifications but never written;
// they carry the version of the matching committed fact, -1 when the
// replayed value matches nothing in history.
func (es *Repository[T]) Save(ctx context.Context, ag *Aggregate[T]) ([]Notification, error) {
	id, version := ag.ID(), ag.Version()
	notes := make([]Notification, 0, len(ag.changes))
	var evtDTOs []driver.Event
	for _, c := range ag.changes {
		if c.replayed {
			notes = append(notes, Notification{AggregateID: id, AggregateVersion: ag.historyVersion(c.event), Event: c.event})
			continue
		}
		typeName, data, err := es.Registry.Marshal(c.event)
		if err != nil {
			return nil, err
		}
		evtDTOs = append(evtDTOs, driver.Event{
			AggregateID:      id,
			AggregateVersion: version,
			Type:             typeName,
			Payload:          data,
		})
		notes = append(notes, Notification{AggregateID: id, AggregateVersion: version, Event: c.event})
		version++
	}
	if len(evtDTOs) == 0 {
		return notes, nil
	}
	if err := es.Backend.Save(ctx, evtDTOs); err != nil {
		return nil, err
	}
	return notes, nil
}
