package eventflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-mixins/eventflow"
)

func TestFold_SeededScenario(t *testing.T) {
	f := eventflow.NewFold(0)
	require.NoError(t, eventflow.On(f, func(_ int, e Started) int { return e.V }))
	require.NoError(t, eventflow.On(f, func(s int, e Progressed) int { return s + e.V }))

	history := []any{Started{V: 1}, Progressed{V: 2}}
	got, err := f.Reduce(history)
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestFold_Deterministic(t *testing.T) {
	f := eventflow.NewFold(0)
	require.NoError(t, eventflow.On(f, func(_ int, e Started) int { return e.V }))
	require.NoError(t, eventflow.On(f, func(s int, e Progressed) int { return s + e.V }))

	history := []any{Started{V: 5}, Progressed{V: 7}, Progressed{V: 1}}
	first, err := f.Reduce(history)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := f.Reduce(history)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFold_DuplicateRuleRejected(t *testing.T) {
	f := eventflow.NewFold(0)
	require.NoError(t, eventflow.On(f, func(_ int, e Started) int { return e.V }))
	err := eventflow.On(f, func(s int, _ Started) int { return s })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already handled")
}

func TestFold_PointerEventRejected(t *testing.T) {
	f := eventflow.NewFold(0)
	require.Error(t, eventflow.On(f, func(s int, _ *Started) int { return s }))
}

func TestFold_OnValue(t *testing.T) {
	f := eventflow.NewFold(false)
	require.NoError(t, eventflow.OnValue[bool, Completed](f, true))
	require.NoError(t, eventflow.On(f, func(s bool, _ Progressed) bool { return s }))

	got, err := f.Reduce([]any{Progressed{V: 1}, Completed{}})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestFold_OtherwiseRaisesFault(t *testing.T) {
	f := eventflow.NewFold(0)
	require.NoError(t, eventflow.On(f, func(_ int, e Started) int { return e.V }))
	f.Otherwise(func(s int, evt any) (int, error) {
		return s, eventflow.Faultf("forbidden event %T", evt)
	})

	_, err := f.Reduce([]any{Started{V: 1}, Unexpected{}})
	require.Error(t, err)
	_, isFault := eventflow.AsFault(err)
	assert.True(t, isFault, "fallback failure must classify as a business fault")
}

func TestFold_OtherwiseCanAccept(t *testing.T) {
	f := eventflow.NewFold(0)
	require.NoError(t, eventflow.On(f, func(s int, e Progressed) int { return s + e.V }))
	f.Otherwise(func(s int, _ any) (int, error) { return s, nil })

	got, err := f.Reduce([]any{Unexpected{}, Progressed{V: 4}})
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestFold_UnmatchedWithoutFallbackErrs(t *testing.T) {
	f := eventflow.NewFold(0)
	require.NoError(t, eventflow.On(f, func(_ int, e Started) int { return e.V }))

	_, err := f.Reduce([]any{Unexpected{}})
	require.Error(t, err)
	_, isFault := eventflow.AsFault(err)
	assert.False(t, isFault, "missing fallback is a wiring defect, not a domain fault")
}
