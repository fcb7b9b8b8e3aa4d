package driver

import (
	"context"
	"errors"
)

// Event is the persisted form of a domain event. AggregateVersion is unique
// within one AggregateID and assigned sequentially on save.
type Event struct {
	AggregateID      string
	AggregateVersion int
	Type             string
	Payload          []byte
}

// ErrConcurrency is returned on event version conflict when saving an Aggregate
var ErrConcurrency = errors.New("concurrency triggered")

type Codec interface {
	Unmarshal(data []byte, dest interface{}) error
	Marshal(src interface{}) ([]byte, error)
}

// Backend stores the event streams of one aggregate type. Load returns a
// single aggregate's events in version order. LoadAll returns every stream
// the backend holds, ordered by aggregate id and version, for replay.
type Backend interface {
	Load(ctx context.Context, id string) ([]Event, error)
	LoadAll(ctx context.Context) ([]Event, error)
	Save(ctx context.Context, events []Event) error
}
