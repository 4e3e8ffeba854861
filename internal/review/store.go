// Package review holds the state a user works through while reviewing
// extracted candidates: the candidate list and the single open annotation.
package review

import (
	"fmt"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

// Store is the ordered collection of candidates currently visible to the user.
// It has a single owner and does no locking.
type Store struct {
	index      map[string]int
	candidates []model.Candidate
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Load replaces the full contents of the store, keeping the given order.
func (s *Store) Load(candidates []model.Candidate) error {
	index := make(map[string]int, len(candidates))
	for i, c := range candidates {
		if _, dup := index[c.ID]; dup {
			return fmt.Errorf("%w: candidate %s", common.ErrDuplicateEntry, c.ID)
		}
		index[c.ID] = i
	}

	s.candidates = append(make([]model.Candidate, 0, len(candidates)), candidates...)
	s.index = index
	return nil
}

// Remove drops the candidate with the given id. Removing an absent id is a
// no-op and reports false.
func (s *Store) Remove(id string) bool {
	pos, ok := s.index[id]
	if !ok {
		return false
	}

	s.candidates = append(s.candidates[:pos], s.candidates[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.candidates); i++ {
		s.index[s.candidates[i].ID] = i
	}
	return true
}

// Get returns the candidate with the given id.
func (s *Store) Get(id string) (model.Candidate, bool) {
	pos, ok := s.index[id]
	if !ok {
		return model.Candidate{}, false
	}
	return s.candidates[pos], true
}

// MarkFailed flags a candidate whose last reconciliation attempt failed.
// The candidate stays in the store and can be opened again for another
// attempt; Open and a later success treat FAILED like PENDING.
func (s *Store) MarkFailed(id string) bool {
	pos, ok := s.index[id]
	if !ok {
		return false
	}
	s.candidates[pos].Status = model.StatusFailed
	return true
}

// All returns a copy of the candidates in insertion order.
func (s *Store) All() []model.Candidate {
	out := make([]model.Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Len returns the number of candidates.
func (s *Store) Len() int {
	return len(s.candidates)
}
