package driver

import (
	"context"
	"sort"
	"sync"
)

// InMemory keeps event streams in process memory. It detects version
// conflicts the same way a durable backend would, which makes it suitable
// for tests exercising optimistic concurrency.
type InMemory struct {
	store    map[string][]Event
	evtsSeen map[string]map[int]struct{}
	mu       sync.RWMutex
}

func (m *InMemory) Load(ctx context.Context, id string) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	evts := m.store[id]
	res := make([]Event, len(evts))
	copy(res, evts)
	return res, nil
}

func (m *InMemory) LoadAll(ctx context.Context) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.store))
	for id := range m.store {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var res []Event
	for _, id := range ids {
		res = append(res, m.store[id]...)
	}
	return res, nil
}

// Save appends the batch atomically: a version conflict anywhere in the
// batch, including between two of its own events, leaves the store untouched.
func (m *InMemory) Save(ctx context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.evtsSeen == nil {
		m.evtsSeen = make(map[string]map[int]struct{})
	}
	if m.store == nil {
		m.store = make(map[string][]Event)
	}
	staged := make(map[string]map[int]struct{})
	for _, e := range events {
		evtsSeen := m.evtsSeen[e.AggregateID]
		if evtsSeen == nil {
			evtsSeen = make(map[int]struct{})
			for _, e := range m.store[e.AggregateID] {
				evtsSeen[e.AggregateVersion] = struct{}{}
			}
			m.evtsSeen[e.AggregateID] = evtsSeen
		}
		if _, ok := evtsSeen[e.AggregateVersion]; ok {
			return ErrConcurrency
		}
		st := staged[e.AggregateID]
		if st == nil {
			st = make(map[int]struct{})
			staged[e.AggregateID] = st
		}
		if _, ok := st[e.AggregateVersion]; ok {
			return ErrConcurrency
		}
		st[e.AggregateVersion] = struct{}{}
	}
	for _, e := range events {
		m.evtsSeen[e.AggregateID][e.AggregateVersion] = struct{}{}
		m.store[e.AggregateID] = append(m.store[e.AggregateID], e)
	}
	return nil
}
