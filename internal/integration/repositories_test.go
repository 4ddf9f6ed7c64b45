//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/testhelpers"
)

func day(now time.Time, offset int) time.Time {
	return now.AddDate(0, 0, offset).Truncate(time.Microsecond)
}

func TestRentPaymentQueries(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	l := testhelpers.SeedLease(t, store, models.AgreementStatusActive, 100000, 0)

	oldest := testhelpers.SeedObligation(t, store, l, day(now, -60), 100000, 0, models.PaymentStatusPending)
	partial := testhelpers.SeedObligation(t, store, l, day(now, -30), 100000, 40000, models.PaymentStatusPartial)
	testhelpers.SeedObligation(t, store, l, day(now, -10), 100000, 100000, models.PaymentStatusCompleted)
	future := testhelpers.SeedObligation(t, store, l, day(now, 20), 100000, 100000, models.PaymentStatusCompleted)

	err := store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		dues, err := tx.Payments().ListOutstandingForUpdate(ctx, l.Agreement.ID)
		require.NoError(t, err)
		require.Len(t, dues, 2)
		assert.Equal(t, oldest.ID, dues[0].ID)
		assert.Equal(t, partial.ID, dues[1].ID)
		return nil
	})
	require.NoError(t, err)

	unpaid, err := store.Payments().MostRecentUnpaid(ctx, l.Agreement.ID)
	require.NoError(t, err)
	require.NotNil(t, unpaid)
	assert.Equal(t, partial.ID, unpaid.ID)

	latest, err := store.Payments().LatestDueDate(ctx, l.Agreement.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.WithinDuration(t, future.DueDate, *latest, time.Millisecond)

	sum, err := store.Payments().SumFutureCompleted(ctx, l.Agreement.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), sum)

	// A second obligation for an existing due date is skipped, not an error.
	dup := *oldest
	dup.ID = uuid.New()
	fresh := *oldest
	fresh.ID = uuid.New()
	fresh.DueDate = day(now, 50)
	require.NoError(t, store.Payments().CreateMany(ctx, []*models.RentPayment{&dup, &fresh}))
	list, err := store.Payments().ListByAgreement(ctx, l.Agreement.ID)
	require.NoError(t, err)
	assert.Len(t, list, 5)

	inserted, err := store.Payments().CreateIfNotExists(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	marked, err := store.Payments().MarkOverdue(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, marked, int64(1))
	got, err := store.Payments().GetByID(ctx, oldest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusOverdued, got.Status)
	got, err = store.Payments().GetByID(ctx, partial.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPartial, got.Status)

	refunded, err := store.Payments().RefundFutureCompleted(ctx, l.Agreement.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), refunded)

	// overdued, partial and the pending one due in 50 days
	cancelled, err := store.Payments().CancelOutstanding(ctx, l.Agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cancelled)

	unpaid, err = store.Payments().MostRecentUnpaid(ctx, l.Agreement.ID)
	require.NoError(t, err)
	assert.Nil(t, unpaid)
}

func TestSaveDetectsStaleRowVersion(t *testing.T) {
	ctx := context.Background()
	l := testhelpers.SeedLease(t, store, models.AgreementStatusActive, 100000, 0)

	first, err := store.Agreements().GetByID(ctx, l.Agreement.ID)
	require.NoError(t, err)
	stale, err := store.Agreements().GetByID(ctx, l.Agreement.ID)
	require.NoError(t, err)

	first.DidAdminApproveBreach = true
	require.NoError(t, store.Agreements().Save(ctx, first))

	stale.TenantAcceptedTermination = true
	err = store.Agreements().Save(ctx, stale)
	require.True(t, errors.Is(err, repositories.ErrRowVersionConflict), "got %v", err)

	got, err := store.Agreements().GetByID(ctx, l.Agreement.ID)
	require.NoError(t, err)
	assert.True(t, got.DidAdminApproveBreach)
	assert.False(t, got.TenantAcceptedTermination)
	assert.Equal(t, first.RowVersion, got.RowVersion)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	l := testhelpers.SeedLease(t, store, models.AgreementStatusActive, 100000, 50000)
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		testhelpers.SeedDeposit(t, tx, l, 50000, models.DepositStatusHeld)
		return boom
	})
	require.ErrorIs(t, err, boom)

	dep, err := store.Deposits().GetByAgreementID(ctx, l.Agreement.ID)
	require.NoError(t, err)
	assert.Nil(t, dep)
}

func TestOpenLogLookups(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	l := testhelpers.SeedLease(t, store, models.AgreementStatusActive, 100000, 0)

	e := &models.EvictionLog{
		ID:                uuid.New(),
		RentalAgreementID: l.Agreement.ID,
		InitiatedBy:       l.Landlord.ID,
		InitiatorRole:     models.RoleLandlord,
		Reason:            models.TerminationOwnerRequirement,
		Status:            models.EvictionStatusWarning,
		WarningSentAt:     day(now, -8),
		GracePeriodEnd:    day(now, -1),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, store.Evictions().Create(ctx, e))

	open, err := store.Evictions().GetOpenByAgreement(ctx, l.Agreement.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, e.ID, open.ID)

	expired, err := store.Evictions().ListExpiredWarnings(ctx, now)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(expired))
	for _, x := range expired {
		ids = append(ids, x.ID)
	}
	assert.Contains(t, ids, e.ID)

	open.Status = models.EvictionStatusCancelled
	require.NoError(t, store.Evictions().Save(ctx, open))
	open, err = store.Evictions().GetOpenByAgreement(ctx, l.Agreement.ID)
	require.NoError(t, err)
	assert.Nil(t, open)
}
