package eventflow

import (
	"context"
	"reflect"
)

// Notification carries one committed or replayed event to subscribers.
type Notification struct {
	AggregateID      string
	AggregateVersion int
	Event            any
}

// Handler consumes committed or replayed events. Handlers must tolerate
// seeing the same event more than once: replay re-delivers durable facts.
type Handler interface {
	Handle(ctx context.Context, n Notification) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, n Notification) error

func (f HandlerFunc) Handle(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Command is any value that can resolve the aggregate it targets.
type Command interface {
	AggregateID() string
}

// EventName returns the type tag under which evt folds, registers and
// persists: the bare struct type name.
func EventName(evt any) string {
	return reflect.TypeOf(evt).Name()
}
