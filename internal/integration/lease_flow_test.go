//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/services"
	"github.com/poofware/leasing-service/internal/testhelpers"
	"github.com/poofware/leasing-service/internal/utils"
)

// TestLeaseFlowOnPostgres drives a lease from first payment to a finalized
// owner-requirement termination through the pgx store.
func TestLeaseFlowOnPostgres(t *testing.T) {
	ctx := context.Background()
	events := &testhelpers.RecordingPublisher{}
	payments := services.NewPaymentService(store, services.NewSimulatedGateway(), events)
	refunds := services.NewRefundService(store, events)
	terminations := services.NewTerminationService(store, events)

	l := testhelpers.SeedLease(t, store, models.AgreementStatusPendingPayment, 100000, 50000)

	initial, err := payments.RecordInitialPayment(ctx, services.InitialPaymentInput{
		AgreementID: l.Agreement.ID,
		TenantID:    l.Tenant.ID,
		AmountCents: 150000,
		Method:      models.PaymentMethodSimulated,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AgreementStatusActive, initial.AgreementStatus)
	assert.Equal(t, models.DepositStatusHeld, initial.Deposit.Status)

	paid, err := payments.RecordPayment(ctx, services.PaymentInput{
		AgreementID: l.Agreement.ID,
		CallerID:    l.Tenant.ID,
		CallerRole:  models.RoleTenant,
		AmountCents: 150000,
		Method:      models.PaymentMethodSimulated,
	})
	require.NoError(t, err)
	assert.Equal(t, services.PaymentOutcomeAdvance, paid.Status)
	assert.Len(t, paid.CreatedObligationIDs, 2)

	owner := services.TerminationInput{
		AgreementID:   l.Agreement.ID,
		InitiatorID:   l.Landlord.ID,
		InitiatorRole: models.RoleLandlord,
		Reason:        models.TerminationOwnerRequirement,
	}
	_, err = terminations.InitiateTermination(ctx, owner)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.ErrorIs(t, appErr.Err, utils.ErrRefundRequired)

	_, err = refunds.RefundDeposit(ctx, services.RefundDepositInput{
		AgreementID: l.Agreement.ID,
		LandlordID:  l.Landlord.ID,
		Role:        models.RoleLandlord,
	})
	require.NoError(t, err)
	adv, err := refunds.RefundAdvanceRent(ctx, l.Agreement.ID, l.Landlord.ID, models.RoleLandlord)
	require.NoError(t, err)
	assert.Equal(t, int64(1), adv.RefundedObligations)

	res, err := terminations.InitiateTermination(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, res.EvictionLogID)

	finalized, err := terminations.AutoFinalizeExpiredGracePeriods(ctx, time.Now().UTC().AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, finalized, 1)

	a, err := store.Agreements().GetByID(ctx, l.Agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AgreementStatusTerminated, a.Status)
	require.NotNil(t, a.TerminationEffectiveDate)

	e, err := store.Evictions().GetByID(ctx, *res.EvictionLogID)
	require.NoError(t, err)
	assert.Equal(t, models.EvictionStatusEvicted, e.Status)

	prop, err := store.Properties().GetByID(ctx, l.Property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OccupancyAvailable, prop.Status)

	list, err := store.Payments().ListByAgreement(ctx, l.Agreement.ID)
	require.NoError(t, err)
	for _, p := range list {
		assert.False(t, p.Status.IsOutstanding(), "obligation %s left %s", p.ID, p.Status)
	}
}
