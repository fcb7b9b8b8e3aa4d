package eventflow

import (
	"fmt"
	"reflect"
)

type transition[S any] func(S, any) (S, error)

// Fold derives a value of type S from an aggregate's committed history by
// applying one registered transition per event, left to right, starting from
// the seed. A Fold is stateless: Reduce never mutates it, so one Fold per
// aggregate subtype is defined once and reused.
type Fold[S any] struct {
	seed      S
	rules     map[string]transition[S]
	otherwise transition[S]
}

// NewFold seeds the derived value.
func NewFold[S any](seed S) *Fold[S] {
	return &Fold[S]{seed: seed, rules: make(map[string]transition[S])}
}

// On registers the transition applied to events of type E. Registering two
// rules for one event type is rejected, as are pointer event types.
func On[S, E any](f *Fold[S], fn func(S, E) S) error {
	name, err := ruleName[E]()
	if err != nil {
		return err
	}
	if _, ok := f.rules[name]; ok {
		return fmt.Errorf("event %s is already handled", name)
	}
	f.rules[name] = func(s S, evt any) (S, error) {
		return fn(s, evt.(E)), nil
	}
	return nil
}

// OnValue registers a transition that ignores the prior state and produces v
// whenever an event of type E occurs.
func OnValue[S, E any](f *Fold[S], v S) error {
	return On(f, func(S, E) S { return v })
}

// Otherwise registers the fallback invoked for event types with no rule. The
// fallback may return a Fault to forbid histories containing such events.
func (f *Fold[S]) Otherwise(fn func(S, any) (S, error)) {
	f.otherwise = fn
}

// Reduce folds history strictly left to right. An event with no matching
// rule invokes the fallback; with no fallback registered it is an error
// rather than a silent skip.
func (f *Fold[S]) Reduce(history []any) (S, error) {
	var zero S
	s := f.seed
	for _, evt := range history {
		r, ok := f.rules[EventName(evt)]
		if !ok {
			if f.otherwise == nil {
				return zero, fmt.Errorf("no rule for event %T and no fallback registered", evt)
			}
			r = f.otherwise
		}
		var err error
		if s, err = r(s, evt); err != nil {
			return zero, err
		}
	}
	return s, nil
}

func ruleName[E any]() (string, error) {
	var e E
	t := reflect.TypeOf(e)
	if t == nil || t.Kind() == reflect.Pointer {
		return "", fmt.Errorf("required non-pointer concrete type, got %v", t)
	}
	return t.Name(), nil
}
