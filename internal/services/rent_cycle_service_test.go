package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/testhelpers"
)

func setEndDate(t *testing.T, h *harness, agreementID uuid.UUID, end time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		a, err := tx.Agreements().GetByIDForUpdate(ctx, agreementID)
		if err != nil {
			return err
		}
		a.EndDate = &end
		return tx.Agreements().Save(ctx, a)
	}))
}

func TestGenerateUpcomingRentObligationsCatchesUp(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	l := testhelpers.SeedLease(t, h.store, models.AgreementStatusActive, 80000, 0)
	testhelpers.SeedObligation(t, h.store, l, testNow.AddDate(0, 0, -65), 80000, 80000, models.PaymentStatusCompleted)
	fresh := testhelpers.SeedLease(t, h.store, models.AgreementStatusActive, 80000, 0)

	n, err := h.rentCycles.GenerateUpcomingRentObligations(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := h.store.Payments().ListByAgreement(ctx, l.Agreement.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[1].DueDate.Equal(testNow.AddDate(0, 0, -35)))
	assert.True(t, list[2].DueDate.Equal(testNow.AddDate(0, 0, -5)))
	for _, p := range list[1:] {
		assert.Equal(t, models.PaymentStatusPending, p.Status)
		assert.Equal(t, int64(80000), p.DueAmountCents)
		assert.Zero(t, p.AmountPaidCents)
	}
	assert.Equal(t, []string{"Rent due", "Rent due"}, h.events.NotificationsFor(l.Tenant.ID))

	// agreements without any obligation have no cycle to continue from
	none, err := h.store.Payments().ListByAgreement(ctx, fresh.Agreement.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err = h.rentCycles.GenerateUpcomingRentObligations(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGenerateUpcomingRentObligationsStopsAtEndDate(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	l := testhelpers.SeedLease(t, h.store, models.AgreementStatusActive, 80000, 0)
	testhelpers.SeedObligation(t, h.store, l, testNow.AddDate(0, 0, -65), 80000, 80000, models.PaymentStatusCompleted)
	setEndDate(t, h, l.Agreement.ID, testNow.AddDate(0, 0, -20))

	n, err := h.rentCycles.GenerateUpcomingRentObligations(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMarkOverdueObligations(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	l := testhelpers.SeedLease(t, h.store, models.AgreementStatusActive, 1000, 0)
	late := testhelpers.SeedObligation(t, h.store, l, testNow.AddDate(0, 0, -3), 1000, 0, models.PaymentStatusPending)
	partial := testhelpers.SeedObligation(t, h.store, l, testNow.AddDate(0, 0, -2), 1000, 400, models.PaymentStatusPartial)
	upcoming := testhelpers.SeedObligation(t, h.store, l, testNow.AddDate(0, 0, 1), 1000, 0, models.PaymentStatusPending)

	n, err := h.rentCycles.MarkOverdueObligations(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for id, want := range map[uuid.UUID]models.PaymentStatus{
		late.ID:     models.PaymentStatusOverdued,
		partial.ID:  models.PaymentStatusPartial,
		upcoming.ID: models.PaymentStatusPending,
	} {
		p, err := h.store.Payments().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, p.Status)
	}

	n, err = h.rentCycles.MarkOverdueObligations(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, n)
}
