package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/exp/slog"
	"gorm.io/driver/sqlite"

	"github.com/rs/xid"

	g "github.com/go-mixins/gorm/v4"
	"github.com/go-mixins/log/v2"

	"github.com/carlmjohnson/versioninfo"
	"github.com/go-mixins/eventflow"
	"github.com/go-mixins/eventflow/driver/gorm"
)

type Order struct {
	customer string
	total    int
	paid     int
	shipped  bool
}

func orderFold() *eventflow.Fold[Order] {
	f := eventflow.NewFold(Order{})
	must(eventflow.On(f, func(o Order, e OrderPlaced) Order {
		o.customer = e.Customer
		o.total = e.Total
		return o
	}))
	must(eventflow.On(f, func(o Order, e OrderPaid) Order {
		o.paid += e.Amount
		return o
	}))
	must(eventflow.On(f, func(o Order, e OrderShipped) Order {
		o.shipped = true
		return o
	}))
	f.Otherwise(func(o Order, evt any) (Order, error) {
		return o, eventflow.Faultf("unexpected event %T in order history", evt)
	})
	return f
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	logger := log.Wrap(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	}))
	ctx := log.WithAttrs(context.TODO(), slog.String("version", versioninfo.Revision))
	slog.SetDefault(slog.New(logger))
	gormBackend := &g.Backend{Driver: sqlite.Open("example.db")}
	if err := gormBackend.Connect(); err != nil {
		slog.ErrorCtx(ctx, "failed to connect DB", "error", err)
		return
	}
	backend := gorm.NewBackend[Order](gormBackend)
	if err := backend.Connect(true); err != nil {
		panic(err)
	}
	repo := eventflow.NewRepository(backend.WithDebug(), orderFold())
	must(repo.RegisterEvents(OrderPlaced{}, OrderPaid{}, OrderShipped{}))

	auditor := eventflow.HandlerFunc(func(ctx context.Context, n eventflow.Notification) error {
		slog.InfoCtx(ctx, "signaled", "event", fmt.Sprintf("%T: %+v", n.Event, n.Event), "aggregate", n.AggregateID)
		return nil
	})
	dispatcher := eventflow.PublishNewStateTo(auditor)
	dispatcher.OnError = func(de eventflow.DispatchError) {
		slog.ErrorCtx(ctx, "dispatch failed", "error", de.Err, "handler", de.Handler)
	}
	exec := eventflow.NewExecutor(repo, dispatcher)

	id := xid.New().String()
	place := PlaceOrder{OrderID: id, Customer: "Vasya", Total: 120}
	if err := exec.With(place).Do(ctx, place.Run); err != nil {
		slog.ErrorCtx(ctx, "execution failed", "error", err)
		return
	}
	pay := PayOrder{OrderID: id, Amount: 120}
	if err := exec.With(pay).Do(ctx, pay.Run); err != nil {
		slog.ErrorCtx(ctx, "execution failed", "error", err)
		return
	}
	overpay := PayOrder{OrderID: id, Amount: 1}
	if err := exec.With(overpay).
		Try(ctx, overpay.Run).
		CatchFault(func(f *eventflow.Fault, o Order) {
			slog.WarnCtx(ctx, "rejected by domain rule", "fault", f, "paid", o.paid)
		}).
		CatchException(func(err error, _ Order) {
			slog.ErrorCtx(ctx, "unexpected failure", "error", err)
		}).Err(); err != nil {
		slog.ErrorCtx(ctx, "execution failed", "error", err)
		return
	}
	ship := ShipOrder{OrderID: id, Carrier: "DHL"}
	if err := exec.With(ship).Do(ctx, ship.Run); err != nil {
		slog.ErrorCtx(ctx, "execution failed", "error", err)
		return
	}
	// shipping twice re-fires the notification without a second write
	if err := exec.With(ship).Do(ctx, ship.Run); err != nil {
		slog.ErrorCtx(ctx, "execution failed", "error", err)
		return
	}
	if err := eventflow.ReplayFor(repo, dispatcher).
		EventsWithAggregateID(id).
		OfType(OrderPaid{}).
		ToAllEventHandlers(ctx); err != nil {
		slog.ErrorCtx(ctx, "replay failed", "error", err)
	}
}
