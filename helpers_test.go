package eventflow_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-mixins/eventflow"
	"github.com/go-mixins/eventflow/driver"
)

// Job is the aggregate state used throughout the tests: a unit of work
// accumulating progress until completed.
type Job struct {
	progress int
	done     bool
}

type Started struct{ V int }

type Progressed struct{ V int }

type Completed struct{}

type Unexpected struct{}

func jobFold() *eventflow.Fold[Job] {
	f := eventflow.NewFold(Job{})
	if err := eventflow.On(f, func(j Job, e Started) Job {
		j.progress = e.V
		return j
	}); err != nil {
		panic(err)
	}
	if err := eventflow.On(f, func(j Job, e Progressed) Job {
		j.progress += e.V
		return j
	}); err != nil {
		panic(err)
	}
	if err := eventflow.On(f, func(j Job, e Completed) Job {
		j.done = true
		return j
	}); err != nil {
		panic(err)
	}
	f.Otherwise(func(j Job, evt any) (Job, error) {
		return j, eventflow.Faultf("job history contains unexpected event %T", evt)
	})
	return f
}

// recorder is a subscriber capturing delivered notifications in order.
type recorder struct {
	mu    sync.Mutex
	notes []eventflow.Notification
	fail  error
}

func (r *recorder) Handle(_ context.Context, n eventflow.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.notes = append(r.notes, n)
	return nil
}

func (r *recorder) seen() []eventflow.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]eventflow.Notification, len(r.notes))
	copy(res, r.notes)
	return res
}

func (r *recorder) events() []any {
	var res []any
	for _, n := range r.seen() {
		res = append(res, n.Event)
	}
	return res
}

type rig struct {
	backend *driver.InMemory
	repo    *eventflow.Repository[Job]
	disp    *eventflow.Dispatcher
	exec    *eventflow.Executor[Job]
	subs    []*recorder
}

func newRig(t *testing.T, nSubs int) *rig {
	t.Helper()
	r := &rig{backend: &driver.InMemory{}}
	r.repo = eventflow.NewRepository(r.backend, jobFold())
	require.NoError(t, r.repo.RegisterEvents(Started{}, Progressed{}, Completed{}, Unexpected{}))
	for i := 0; i < nSubs; i++ {
		sub := &recorder{}
		r.subs = append(r.subs, sub)
		if r.disp == nil {
			r.disp = eventflow.PublishNewStateTo(sub)
		} else {
			r.disp.And(sub)
		}
	}
	r.exec = eventflow.NewExecutor(r.repo, r.disp)
	return r
}

// stored returns the persisted events of one aggregate.
func (r *rig) stored(t *testing.T, id string) []driver.Event {
	t.Helper()
	evts, err := r.backend.Load(context.Background(), id)
	require.NoError(t, err)
	return evts
}

func record(evts ...any) eventflow.Action[Job] {
	return func(_ context.Context, ag *eventflow.Aggregate[Job]) error {
		for _, e := range evts {
			ag.Record(e)
		}
		return nil
	}
}
