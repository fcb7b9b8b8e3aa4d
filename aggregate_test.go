package eventflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-mixins/eventflow"
)

func TestAggregate_HistoryQueries(t *testing.T) {
	r := newRig(t, 0)
	ctx := context.Background()
	require.NoError(t, r.exec.WithID("job-1").Do(ctx, record(
		Started{V: 1}, Progressed{V: 2}, Progressed{V: 3},
	)))

	err := r.exec.WithID("job-1").Do(ctx, func(_ context.Context, ag *eventflow.Aggregate[Job]) error {
		assert.Equal(t, 2, eventflow.CountOf[Progressed](ag))
		assert.True(t, eventflow.HasAny[Started](ag))
		assert.False(t, eventflow.HasAny[Completed](ag))

		last, ok := eventflow.LastOf[Progressed](ag)
		require.True(t, ok)
		assert.Equal(t, Progressed{V: 3}, last)

		_, ok = eventflow.LastOf[Completed](ag)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestAggregate_DeriveRunsFoldFresh(t *testing.T) {
	r := newRig(t, 0)
	ctx := context.Background()
	require.NoError(t, r.exec.WithID("job-1").Do(ctx, record(Started{V: 1}, Progressed{V: 2})))

	steps := eventflow.NewFold(0)
	require.NoError(t, eventflow.On(steps, func(n int, _ Started) int { return n + 1 }))
	require.NoError(t, eventflow.On(steps, func(n int, _ Progressed) int { return n + 1 }))
	steps.Otherwise(func(n int, _ any) (int, error) { return n, nil })

	err := r.exec.WithID("job-1").Do(ctx, func(_ context.Context, ag *eventflow.Aggregate[Job]) error {
		got, err := eventflow.Derive(ag, steps)
		require.NoError(t, err)
		assert.Equal(t, 2, got)

		// a pending change does not leak into the derivation
		ag.Record(Progressed{V: 9})
		got, err = eventflow.Derive(ag, steps)
		require.NoError(t, err)
		assert.Equal(t, 2, got)
		return nil
	})
	require.NoError(t, err)
}

func TestAggregate_StateReflectsCommittedHistoryOnly(t *testing.T) {
	r := newRig(t, 0)
	ctx := context.Background()
	require.NoError(t, r.exec.WithID("job-1").Do(ctx, record(Started{V: 4})))

	err := r.exec.WithID("job-1").Do(ctx, func(_ context.Context, ag *eventflow.Aggregate[Job]) error {
		assert.Equal(t, 4, ag.State().progress)
		ag.Record(Progressed{V: 10})
		assert.Equal(t, 4, ag.State().progress)
		return nil
	})
	require.NoError(t, err)
}
