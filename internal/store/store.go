// Package store implements the client for the external PostStore REST
// service, which owns every post record. The client keeps no authoritative
// state; the cached layer is a read-through snapshot for page rendering.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/inkwellapp/inkwell/internal/config"
	"github.com/inkwellapp/inkwell/internal/model"
)

var storeLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	storeLogger = l.With().Str("component", "store").Logger()
}

// ErrNotFound is returned when the store has no record for the given id.
var ErrNotFound = errors.New("post not found")

type PostStore interface {
	List(ctx context.Context) ([]model.Post, error)
	Get(ctx context.Context, id model.PostID) (*model.Post, error)
	Create(ctx context.Context, post *model.Post) (*model.Post, error)
	Update(ctx context.Context, id model.PostID, post *model.Post) (*model.Post, error)
	Delete(ctx context.Context, id model.PostID) error
}

// StoreError is a rejection from the PostStore: a non-2xx response,
// carrying the server-provided message when one was present in the body.
type StoreError struct {
	StatusCode int
	Message    string
}

func (e *StoreError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("store rejected request (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("store rejected request (%d)", e.StatusCode)
}

// UserMessage is what pages show: the store's own message if it sent one,
// else a generic fallback.
func (e *StoreError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return config.ErrGenericStoreMessage
}
