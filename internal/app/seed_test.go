package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/testhelpers"
)

func TestSeedAllTestDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewMemStore()

	require.NoError(t, SeedAllTestData(ctx, store))
	commits := store.Commits()

	landlord, err := store.Users().GetByID(ctx, uuid.MustParse(SeedLandlordID))
	require.NoError(t, err)
	require.NotNil(t, landlord)
	assert.Equal(t, models.RoleLandlord, landlord.Role)

	a, err := store.Agreements().GetByID(ctx, uuid.MustParse(SeedAgreementID))
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, models.AgreementStatusDraft, a.Status)
	require.NotNil(t, a.TenantID)
	assert.Equal(t, uuid.MustParse(SeedTenantID), *a.TenantID)

	units, err := store.Units().ListByPropertyID(ctx, uuid.MustParse(SeedPropertyID))
	require.NoError(t, err)
	assert.Len(t, units, 1)

	require.NoError(t, SeedAllTestData(ctx, store))
	assert.Equal(t, commits, store.Commits(), "second run must not write")
}

func TestSeedAllTestDataPropagatesStoreErrors(t *testing.T) {
	store := testhelpers.NewMemStore()
	store.FailOn("Users.GetByID", assert.AnError)
	assert.ErrorIs(t, SeedAllTestData(context.Background(), store), assert.AnError)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("seed user: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(assert.AnError))
	assert.False(t, isUniqueViolation(nil))
}
