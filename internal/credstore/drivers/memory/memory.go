// Package memory is the in-process credential store used for the ephemeral
// scope. Contents die with the process, the same way sessionStorage dies
// with the tab.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
)

type namespace struct {
	values  map[string]string
	touched time.Time
}

type Store struct {
	mu  sync.Mutex
	ns  map[string]*namespace
	now func() time.Time
}

var (
	_ credstore.Store   = (*Store)(nil)
	_ credstore.Sweeper = (*Store)(nil)
)

func New() *Store {
	return &Store{ns: make(map[string]*namespace), now: time.Now}
}

// NewWithClock is New with an injectable clock for sweep tests.
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

func (s *Store) Get(_ context.Context, ns, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.ns[ns]
	if !ok {
		return "", credstore.ErrNotFound
	}
	v, ok := n.values[key]
	if !ok {
		return "", credstore.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, ns, key, value string) error {
	return s.SetMany(ctx, ns, map[string]string{key: value})
}

func (s *Store) SetMany(_ context.Context, ns string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.ns[ns]
	if !ok {
		n = &namespace{values: make(map[string]string, len(values))}
		s.ns[ns] = n
	}
	for k, v := range values {
		n.values[k] = v
	}
	n.touched = s.now()
	return nil
}

func (s *Store) Remove(_ context.Context, ns, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.ns[ns]
	if !ok {
		return nil
	}
	delete(n.values, key)
	if len(n.values) == 0 {
		delete(s.ns, ns)
	}
	return nil
}

func (s *Store) Clear(_ context.Context, ns string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ns, ns)
	return nil
}

func (s *Store) Sweep(_ context.Context, idle time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	removed := 0
	for id, n := range s.ns {
		if n.touched.Before(cutoff) {
			delete(s.ns, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of live namespaces.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ns)
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }
