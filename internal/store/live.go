package store

import (
	"context"
	"sync"
)

// Snapshot is one result of a live query.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// notifier fans committed table changes out to live queries. Each
// subscriber holds a one-slot channel, so bursts of writes coalesce into a
// single re-query.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscriber
}

type subscriber struct {
	tables map[string]bool
	ch     chan struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]*subscriber)}
}

func (n *notifier) subscribe(tables ...string) (<-chan struct{}, func()) {
	sub := &subscriber{tables: make(map[string]bool, len(tables)), ch: make(chan struct{}, 1)}
	for _, t := range tables {
		sub.tables[t] = true
	}

	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = sub
	n.mu.Unlock()

	return sub.ch, func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *notifier) publish(tables ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		for _, t := range tables {
			if !sub.tables[t] {
				continue
			}
			select {
			case sub.ch <- struct{}{}:
			default:
			}
			break
		}
	}
}

// allTables is published when a baby is deleted and its records cascade.
func allTables() []string {
	tables := []string{"babies"}
	for _, c := range Categories {
		tables = append(tables, c.table())
	}
	return tables
}

// watch runs query now and again after every change to tables until ctx
// ends. The subscription is taken before the first query so no commit
// between the two is missed.
func watch[T any](ctx context.Context, s *Store, query func() (T, error), tables ...string) <-chan Snapshot[T] {
	changed, unsubscribe := s.changes.subscribe(tables...)
	out := make(chan Snapshot[T])

	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			v, err := query()
			select {
			case out <- Snapshot[T]{Value: v, Err: err}:
			case <-ctx.Done():
				return
			}
			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
