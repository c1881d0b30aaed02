// Package storage persists accumulated agent connected seconds, keyed
// by (fecha, email).
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no row exists for the key.
var ErrNotFound = errors.New("connected time not found")

// ConnectedTime is one accumulation row. At most one exists per
// (Fecha, Email); repeated submissions merge into TotalSeconds.
type ConnectedTime struct {
	Fecha        string    `dynamodbav:"Fecha" json:"fecha"`
	Email        string    `dynamodbav:"Email" json:"email"`
	TotalSeconds int64     `dynamodbav:"TotalSeconds" json:"total_seconds"`
	CreatedAt    time.Time `dynamodbav:"CreatedAt" json:"created_at"`
	UpdatedAt    time.Time `dynamodbav:"UpdatedAt" json:"updated_at"`
}

// Store defines the upsert contract. Accumulate must be a single atomic
// insert-or-merge: concurrent callers on the same key end up with one
// row holding the sum, never duplicates.
type Store interface {
	Accumulate(ctx context.Context, fecha, email string, seconds int64) error
	Get(ctx context.Context, fecha, email string) (ConnectedTime, error)
}
