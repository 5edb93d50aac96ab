package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"intellectdca/internal/domain"
	"intellectdca/internal/ports"
)

// CaseBook is an in-memory ports.CaseRepository.
type CaseBook struct {
	mu    sync.RWMutex
	cases map[string]domain.Case
}

func NewCaseBook() *CaseBook {
	return &CaseBook{cases: make(map[string]domain.Case)}
}

func (b *CaseBook) Get(_ context.Context, caseID string) (domain.Case, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.cases[caseID]
	if !ok {
		return domain.Case{}, ports.ErrNotFound
	}
	return c, nil
}

// List returns a snapshot ordered by case id.
func (b *CaseBook) List(_ context.Context) ([]domain.Case, error) {
	b.mu.RLock()
	out := make([]domain.Case, 0, len(b.cases))
	for _, c := range b.cases {
		out = append(out, c)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *CaseBook) Upsert(_ context.Context, c domain.Case) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cases[c.ID] = c
	return nil
}

func (b *CaseBook) Reassign(_ context.Context, caseID, owner string, lastUpdate time.Time) (domain.Case, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.cases[caseID]
	if !ok {
		return domain.Case{}, ports.ErrNotFound
	}
	c.Owner = owner
	c.LastUpdate = lastUpdate
	b.cases[caseID] = c
	return c, nil
}

func (b *CaseBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.cases)
}
