// Package store defines the persistence contract for recorded trips.
package store

import (
	"context"
	"fmt"

	"github.com/drivetime/drivetime/pkg/model"
)

// TripStore persists trips. Ids are assigned by the store in ascending order.
type TripStore interface {
	// Insert stores the trip and returns its id. The trip is not modified.
	Insert(ctx context.Context, trip *model.Trip) (int64, error)
	// QueryByRoute returns all trips of the route ordered by timestamp.
	// An unknown route yields an empty result.
	QueryByRoute(ctx context.Context, routeID string) ([]*model.Trip, error)
	Close() error
}

// PersistenceError wraps any failure reported by a store backend.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error on %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
