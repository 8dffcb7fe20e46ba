// Package store persists finalized registrations, keyed by UBRN.
package store

import (
	"context"
	"errors"

	"ebirth/internal/registration/models"
)

// ErrNotFound is returned when no record exists for the given key.
var ErrNotFound = errors.New("registration not found")

// Store is the external key-value collaborator for registration records. The
// session engine never owns persistence state directly.
type Store interface {
	// Put persists a finalized registration. Writing the same UBRN twice is
	// a programming error surfaced as a conflict by the backend.
	Put(ctx context.Context, reg *models.Registration) error

	// Get returns the record for a UBRN, or ErrNotFound.
	Get(ctx context.Context, ubrn string) (*models.Registration, error)

	// FindBySessionKey returns the record finalized under a gateway session
	// key, or ErrNotFound. Used to make retried confirmations idempotent.
	FindBySessionKey(ctx context.Context, key string) (*models.Registration, error)
}
