package main

import (
	"context"
	"log"

	"github.com/go-mixins/eventflow"
)

type PlaceOrder struct {
	OrderID  string
	Customer string
	Total    int
}

func (c PlaceOrder) AggregateID() string { return c.OrderID }

func (c PlaceOrder) Run(ctx context.Context, ag *eventflow.Aggregate[Order]) error {
	log.Printf("processing %T for %s", c, eventflow.AggregateID(ctx))
	if eventflow.HasAny[OrderPlaced](ag) {
		return eventflow.ErrCommandAborted
	}
	ag.Record(OrderPlaced{Customer: c.Customer, Total: c.Total})
	return nil
}

type PayOrder struct {
	OrderID string
	Amount  int
}

func (c PayOrder) AggregateID() string { return c.OrderID }

func (c PayOrder) Run(_ context.Context, ag *eventflow.Aggregate[Order]) error {
	o := ag.State()
	if o.shipped {
		return eventflow.ErrCommandAborted
	}
	if o.paid+c.Amount > o.total {
		return eventflow.Faultf("payment of %d exceeds outstanding balance of %d", c.Amount, o.total-o.paid)
	}
	ag.Record(OrderPaid{Amount: c.Amount})
	return nil
}

type ShipOrder struct {
	OrderID string
	Carrier string
}

func (c ShipOrder) AggregateID() string { return c.OrderID }

func (c ShipOrder) Run(_ context.Context, ag *eventflow.Aggregate[Order]) error {
	o := ag.State()
	if o.shipped {
		// already durable: re-fire the handler side effect only
		if last, ok := eventflow.LastOf[OrderShipped](ag); ok {
			ag.Replay(last)
		}
		return nil
	}
	if o.paid < o.total {
		return eventflow.Faultf("order paid %d of %d, cannot ship", o.paid, o.total)
	}
	ag.Record(OrderShipped{Carrier: c.Carrier})
	return nil
}
