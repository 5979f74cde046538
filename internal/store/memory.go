package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/safestreets/safemap/internal/models"
)

// ErrNotFound is returned when an operation references an incident id that is
// not in the store.
var ErrNotFound = errors.New("incident not found")

// Memory is the in-memory incident store. It owns the canonical list; callers
// only ever see copies.
type Memory struct {
	mu        sync.Mutex
	incidents []models.Incident
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Insert assigns the next id (1 + max existing id, or 1 when empty) and the
// creation date, then appends the incident.
func (s *Memory) Insert(_ context.Context, draft *models.Incident) (*models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxID := 0
	for _, inc := range s.incidents {
		if inc.ID > maxID {
			maxID = inc.ID
		}
	}

	inc := *draft
	inc.ID = maxID + 1
	inc.Date = time.Now().UTC()
	s.incidents = append(s.incidents, inc)

	out := inc
	return &out, nil
}

// Update replaces the mutable fields of the incident with the given id. The
// id and creation date are immutable. Returns ErrNotFound for an unknown id.
func (s *Memory) Update(_ context.Context, id int, patch *models.Incident) (*models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.incidents {
		if s.incidents[i].ID != id {
			continue
		}
		s.incidents[i].Type = patch.Type
		s.incidents[i].Location = patch.Location
		s.incidents[i].Description = patch.Description
		s.incidents[i].Postcode = patch.Postcode
		s.incidents[i].Coordinates = patch.Coordinates

		out := s.incidents[i]
		return &out, nil
	}
	return nil, ErrNotFound
}

// Delete removes the incident with the given id. Deleting an unknown id is a
// no-op, not an error.
func (s *Memory) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.incidents[:0]
	for _, inc := range s.incidents {
		if inc.ID != id {
			kept = append(kept, inc)
		}
	}
	s.incidents = kept
	return nil
}

// List returns all incidents in insertion order.
func (s *Memory) List(_ context.Context) ([]*models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Incident, len(s.incidents))
	for i := range s.incidents {
		inc := s.incidents[i]
		out[i] = &inc
	}
	return out, nil
}
