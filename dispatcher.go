package eventflow

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DispatchError reports one handler's failure during delivery. Delivery to
// the remaining handlers continues; persistence is never rolled back.
type DispatchError struct {
	Handler      int
	Notification Notification
	Err          error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatching %T to handler %d: %v", e.Notification.Event, e.Handler, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Dispatcher fans committed and replayed events out to its subscribers.
// Wire all subscribers during initialization; the list is not locked and
// must not change once dispatching starts.
type Dispatcher struct {
	// OnError is the supervisory callback invoked per failing handler.
	OnError func(DispatchError)

	handlers []Handler
}

// PublishNewStateTo starts a dispatcher with its first subscriber.
func PublishNewStateTo(h Handler) *Dispatcher {
	return &Dispatcher{handlers: []Handler{h}}
}

// And appends a further subscriber, preserving registration order.
func (d *Dispatcher) And(h Handler) *Dispatcher {
	d.handlers = append(d.handlers, h)
	return d
}

// Dispatch delivers each notification, in the order produced, to every
// subscriber in registration order. Handler failures are reported through
// OnError and the aggregated return value, and do not block delivery to
// subsequent handlers. Context cancellation stops delivery between handlers.
func (d *Dispatcher) Dispatch(ctx context.Context, notes []Notification) error {
	var errs *multierror.Error
	for _, n := range notes {
		for i, h := range d.handlers {
			if err := ctx.Err(); err != nil {
				return multierror.Append(errs, err).ErrorOrNil()
			}
			if err := h.Handle(ctx, n); err != nil {
				de := DispatchError{Handler: i, Notification: n, Err: err}
				if d.OnError != nil {
					d.OnError(de)
				}
				errs = multierror.Append(errs, &de)
			}
		}
	}
	return errs.ErrorOrNil()
}
