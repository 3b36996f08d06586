package db

import (
	"context"
	"sync"
	"time"

	"github.com/wendylandcan/liqingai/models"
)

// nowFunc is swappable in tests.
var nowFunc = time.Now

// MemoryCaseStore is an in-process CaseStore used by tests and local runs
// without a MongoDB instance. It applies patches with the same field-wise
// semantics as the Mongo implementation.
type MemoryCaseStore struct {
	mu    sync.Mutex
	cases map[string]*models.Case
}

func NewMemoryCaseStore() *MemoryCaseStore {
	return &MemoryCaseStore{cases: make(map[string]*models.Case)}
}

func (s *MemoryCaseStore) Insert(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = c.Clone()
	return nil
}

func (s *MemoryCaseStore) FetchByID(ctx context.Context, id string) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryCaseStore) FetchByJoinCode(ctx context.Context, code string) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cases {
		if c.JoinCode == code {
			return c.Clone(), nil
		}
	}
	return nil, ErrCaseNotFound
}

func (s *MemoryCaseStore) FetchByParticipant(ctx context.Context, userID string) ([]*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Case
	for _, c := range s.cases {
		if c.PlaintiffID == userID || c.DefendantID == userID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (s *MemoryCaseStore) Update(ctx context.Context, id string, patch *models.CasePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return ErrCaseNotFound
	}
	patch.Apply(c)
	return nil
}

func (s *MemoryCaseStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[id]; !ok {
		return ErrCaseNotFound
	}
	delete(s.cases, id)
	return nil
}
