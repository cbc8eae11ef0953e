package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"careerplan/generator"
)

// Memory keeps surveys in a map guarded by a mutex. Callers get copies, so
// mutating a returned survey does not change the stored one.
type Memory struct {
	mu      sync.Mutex
	surveys map[string]*Survey
}

func NewMemory() *Memory {
	return &Memory{surveys: make(map[string]*Survey)}
}

func (m *Memory) Create(_ context.Context, s *Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surveys[s.ID]; ok {
		return errors.Errorf("survey %s already exists", s.ID)
	}
	m.surveys[s.ID] = clone(s)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.surveys[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

func (m *Memory) List(_ context.Context) ([]*Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Survey, 0, len(m.surveys))
	for _, s := range m.surveys {
		out = append(out, clone(s))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *Memory) Update(_ context.Context, s *Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surveys[s.ID]; !ok {
		return ErrNotFound
	}
	m.surveys[s.ID] = clone(s)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surveys[id]; !ok {
		return ErrNotFound
	}
	delete(m.surveys, id)
	return nil
}

func (m *Memory) Close() error { return nil }

func clone(s *Survey) *Survey {
	c := *s
	c.Answers.Interests = append([]string(nil), s.Answers.Interests...)
	c.History = append([]generator.Turn(nil), s.History...)
	return &c
}
