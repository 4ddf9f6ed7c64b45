package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/require"
)

type fakeEntity struct {
	id      string
	version int64
	value   int
}

func (f *fakeEntity) GetID() string         { return f.id }
func (f *fakeEntity) GetRowVersion() int64  { return f.version }
func (f *fakeEntity) SetRowVersion(n int64) { f.version = n }

// fakeTable mimics a single row guarded by row_version.
type fakeTable struct {
	row          fakeEntity
	bumpOnUpdate int // simulate concurrent writers on the first n updates
}

func (t *fakeTable) get(_ context.Context, id string) (*fakeEntity, error) {
	if id != t.row.id {
		return nil, nil
	}
	cp := t.row
	return &cp, nil
}

func (t *fakeTable) updateIfVersion(_ context.Context, e *fakeEntity, expected int64) (pgconn.CommandTag, error) {
	if t.bumpOnUpdate > 0 {
		t.bumpOnUpdate--
		t.row.version++
	}
	if t.row.version != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	t.row.value = e.value
	t.row.version++
	return pgconn.CommandTag("UPDATE 1"), nil
}

func TestWithRetryRetriesOnContention(t *testing.T) {
	tbl := &fakeTable{row: fakeEntity{id: "a", version: 1}, bumpOnUpdate: 2}
	err := WithRetry(context.Background(), 3, "a", tbl.get, tbl.updateIfVersion, func(e *fakeEntity) error {
		e.value = 42
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, tbl.row.value)
}

func TestWithRetryGivesUp(t *testing.T) {
	tbl := &fakeTable{row: fakeEntity{id: "a", version: 1}, bumpOnUpdate: 5}
	err := WithRetry(context.Background(), 3, "a", tbl.get, tbl.updateIfVersion, func(e *fakeEntity) error {
		e.value = 1
		return nil
	})
	require.ErrorIs(t, err, ErrRowVersionConflict)
}

func TestWithRetryMissingRow(t *testing.T) {
	tbl := &fakeTable{row: fakeEntity{id: "a", version: 1}}
	err := WithRetry(context.Background(), 3, "missing", tbl.get, tbl.updateIfVersion, func(*fakeEntity) error { return nil })
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestWithRetryMutateError(t *testing.T) {
	tbl := &fakeTable{row: fakeEntity{id: "a", version: 1}}
	boom := errors.New("boom")
	err := WithRetry(context.Background(), 3, "a", tbl.get, tbl.updateIfVersion, func(*fakeEntity) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, int64(1), tbl.row.version)
}

func TestSaveVersioned(t *testing.T) {
	tbl := &fakeTable{row: fakeEntity{id: "a", version: 4}}
	e, _ := tbl.get(context.Background(), "a")
	e.value = 7
	require.NoError(t, SaveVersioned(context.Background(), e, tbl.updateIfVersion))
	require.Equal(t, int64(5), e.version)
	require.Equal(t, int64(5), tbl.row.version)

	stale := &fakeEntity{id: "a", version: 4, value: 9}
	err := SaveVersioned(context.Background(), stale, tbl.updateIfVersion)
	require.ErrorIs(t, err, ErrRowVersionConflict)
	require.Equal(t, 7, tbl.row.value)
}
