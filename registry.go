package eventflow

import (
	"fmt"
	"reflect"

	"github.com/go-mixins/eventflow/driver"
)

// Registry maps persisted event type tags to concrete Go types so payloads
// round-trip through the store. Payloads are encoded with Codec, JSON unless
// overridden. Register everything during startup wiring; the registry is not
// safe for concurrent mutation afterwards.
type Registry struct {
	Codec driver.Codec

	types map[string]reflect.Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]reflect.Type)}
}

func (r *Registry) codec() driver.Codec {
	if r.Codec != nil {
		return r.Codec
	}
	return driver.JSON{}
}

// Register adds event prototypes. Pointer types and duplicate names are
// rejected.
func (r *Registry) Register(protos ...any) error {
	for _, p := range protos {
		t := reflect.TypeOf(p)
		if t == nil || t.Kind() == reflect.Pointer {
			return fmt.Errorf("required non-pointer concrete type, got %v", t)
		}
		if _, ok := r.types[t.Name()]; ok {
			return fmt.Errorf("event %s is already registered", t.Name())
		}
		r.types[t.Name()] = t
	}
	return nil
}

func (r *Registry) Marshal(evt any) (eventType string, data []byte, err error) {
	eventType = EventName(evt)
	if _, ok := r.types[eventType]; !ok {
		return "", nil, fmt.Errorf("event %s is not registered", eventType)
	}
	data, err = r.codec().Marshal(evt)
	return eventType, data, err
}

func (r *Registry) Unmarshal(eventType string, data []byte) (any, error) {
	t, ok := r.types[eventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
	v := reflect.New(t)
	if err := r.codec().Unmarshal(data, v.Interface()); err != nil {
		return nil, err
	}
	return v.Elem().Interface(), nil
}
