// Package store persists surveys together with their generated plans.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"careerplan/generator"
)

// ErrNotFound is returned when no survey has the requested id.
var ErrNotFound = errors.New("survey not found")

// Survey is a filled-in survey with its current plan and plan history.
type Survey struct {
	ID        string            `json:"id"`
	Answers   generator.Answers `json:"answers"`
	Plan      generator.Plan    `json:"plan"`
	History   []generator.Turn  `json:"history"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Store is implemented by the in-memory and SQLite backends.
type Store interface {
	Create(ctx context.Context, s *Survey) error
	Get(ctx context.Context, id string) (*Survey, error)
	// List returns every survey, most recently updated first.
	List(ctx context.Context) ([]*Survey, error)
	Update(ctx context.Context, s *Survey) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open returns a SQLite store for a non-empty path and a memory store
// otherwise.
func Open(path string) (Store, error) {
	if path == "" {
		return NewMemory(), nil
	}
	return NewSQLite(path)
}
