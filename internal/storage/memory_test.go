package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestAccumulateInsertsThenMerges(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Accumulate(ctx, "2026-08-01", "a@x.com", 300); err != nil {
		t.Fatalf("accumulate failed: %v", err)
	}
	if err := s.Accumulate(ctx, "2026-08-01", "a@x.com", 300); err != nil {
		t.Fatalf("accumulate failed: %v", err)
	}

	row, err := s.Get(ctx, "2026-08-01", "a@x.com")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if row.TotalSeconds != 600 {
		t.Errorf("expected 600 total seconds, got %d", row.TotalSeconds)
	}
	if s.Len() != 1 {
		t.Errorf("expected exactly one row, got %d", s.Len())
	}
	if row.UpdatedAt.Before(row.CreatedAt) {
		t.Error("expected UpdatedAt >= CreatedAt")
	}
}

func TestAccumulateSeparateKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Accumulate(ctx, "2026-08-01", "a@x.com", 100)
	s.Accumulate(ctx, "2026-08-02", "a@x.com", 200)
	s.Accumulate(ctx, "2026-08-01", "b@x.com", 300)

	if s.Len() != 3 {
		t.Errorf("expected 3 rows, got %d", s.Len())
	}

	row, err := s.Get(ctx, "2026-08-02", "a@x.com")
	if err != nil || row.TotalSeconds != 200 {
		t.Errorf("unexpected row for day 2: %+v, %v", row, err)
	}
}

func TestAccumulateConcurrentSameKey(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const n = 50
	const each = int64(30)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Accumulate(ctx, "2026-08-01", "a@x.com", each); err != nil {
				t.Errorf("accumulate failed: %v", err)
			}
		}()
	}
	wg.Wait()

	row, err := s.Get(ctx, "2026-08-01", "a@x.com")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if row.TotalSeconds != n*each {
		t.Errorf("expected %d total seconds, got %d", n*each, row.TotalSeconds)
	}
	if s.Len() != 1 {
		t.Errorf("expected exactly one row under concurrency, got %d", s.Len())
	}
}

func TestGetMissingKey(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "2026-08-01", "missing@x.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadDynamoConfigDefaults(t *testing.T) {
	cfg := LoadDynamoConfig()
	if cfg.Mode != DynamoModeNone {
		t.Errorf("expected default mode none, got %s", cfg.Mode)
	}
	if cfg.ConnectedTimeTable == "" {
		t.Error("expected a default table name")
	}
}
