package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps accumulations in process memory. It backs
// DYNAMO_MODE=none and tests, honoring the same one-row-per-key merge
// contract as the DynamoDB store.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[memKey]*ConnectedTime
}

type memKey struct {
	fecha string
	email string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[memKey]*ConnectedTime)}
}

func (s *MemoryStore) Accumulate(_ context.Context, fecha, email string, seconds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	k := memKey{fecha: fecha, email: email}
	if row, ok := s.rows[k]; ok {
		row.TotalSeconds += seconds
		row.UpdatedAt = now
		return nil
	}
	s.rows[k] = &ConnectedTime{
		Fecha:        fecha,
		Email:        email,
		TotalSeconds: seconds,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, fecha, email string) (ConnectedTime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[memKey{fecha: fecha, email: email}]
	if !ok {
		return ConnectedTime{}, ErrNotFound
	}
	return *row, nil
}

// Len reports the number of distinct (fecha, email) rows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
