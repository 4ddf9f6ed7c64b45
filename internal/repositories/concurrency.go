package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// ErrRowVersionConflict is returned when a compare-and-swap update matched
// no row because another writer bumped row_version first.
var ErrRowVersionConflict = errors.New("row_version_conflict")

/*
EntityWithVersion:

* `comparable`  → lets us use `==` to compare two values of type T
* the three concurrency methods
*/
type EntityWithVersion interface {
	comparable
	GetID() string
	GetRowVersion() int64
	SetRowVersion(int64)
}

type UpdateIfVersionFunc[T EntityWithVersion] func(
	ctx context.Context,
	entity T,
	expectedVersion int64,
) (pgconn.CommandTag, error)

type GetByIDFunc[T EntityWithVersion] func(
	ctx context.Context,
	id string,
) (T, error)

/*
WithRetry runs a read‑mutate‑update loop with optimistic locking.
*/
func WithRetry[T EntityWithVersion](
	ctx context.Context,
	maxRetries int,
	id string,
	getByID GetByIDFunc[T],
	updateIfVersion UpdateIfVersionFunc[T],
	mutate func(T) error,
) error {
	for attempt := 0; attempt < maxRetries; attempt++ {
		current, err := getByID(ctx, id)
		if err != nil {
			return err
		}

		// zero value of T (nil for pointers)
		var zero T
		if current == zero {
			return pgx.ErrNoRows
		}

		oldVersion := current.GetRowVersion()

		if err := mutate(current); err != nil {
			return err
		}

		tag, err := updateIfVersion(ctx, current, oldVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			current.SetRowVersion(oldVersion + 1)
			return nil
		}
		// someone else updated first – retry
	}
	return fmt.Errorf("too much contention updating %q: %w", id, ErrRowVersionConflict)
}

// SaveVersioned performs a single compare-and-swap update of an entity the
// caller already holds (typically locked FOR UPDATE). A miss is a conflict,
// not a retry: the surrounding transaction must roll back.
func SaveVersioned[T EntityWithVersion](
	ctx context.Context,
	entity T,
	updateIfVersion UpdateIfVersionFunc[T],
) error {
	expected := entity.GetRowVersion()
	tag, err := updateIfVersion(ctx, entity, expected)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("updating %q at version %d: %w", entity.GetID(), expected, ErrRowVersionConflict)
	}
	entity.SetRowVersion(expected + 1)
	return nil
}
