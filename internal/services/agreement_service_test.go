package services

import (
	"context"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/testhelpers"
	"github.com/poofware/leasing-service/internal/utils"
)

func seedPropertyWithUnit(t *testing.T, h *harness, owner *models.User) (*models.Property, *models.Unit) {
	t.Helper()
	ctx := context.Background()
	prop := &models.Property{
		ID:        uuid.New(),
		OwnerID:   owner.ID,
		Name:      "Maple Court",
		Address:   "22 Maple Ct",
		HasUnits:  true,
		Status:    models.OccupancyAvailable,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	require.NoError(t, h.store.Properties().Create(ctx, prop))
	unit := &models.Unit{
		ID:         uuid.New(),
		PropertyID: prop.ID,
		UnitNumber: "2B",
		Status:     models.OccupancyAvailable,
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}
	require.NoError(t, h.store.Units().Create(ctx, unit))
	return prop, unit
}

func TestAgreementLifecycleThroughCompletion(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	landlord := testhelpers.SeedUser(t, h.store, models.RoleLandlord, "owner")
	tenant := testhelpers.SeedUser(t, h.store, models.RoleTenant, "renter")
	prop, unit := seedPropertyWithUnit(t, h, landlord)
	end := testNow.AddDate(0, 6, 0)

	in := CreateAgreementInput{
		OwnerID:              landlord.ID,
		OwnerRole:            models.RoleLandlord,
		PropertyID:           prop.ID,
		MonthlyRentCents:     120000,
		SecurityDepositCents: 60000,
		EndDate:              &end,
	}
	_, err := h.agreements.CreateAgreement(ctx, in)
	requireAppError(t, err, http.StatusBadRequest, utils.ErrInvalidPayload)

	in.UnitID = &unit.ID
	a, err := h.agreements.CreateAgreement(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.AgreementStatusDraft, a.Status)
	assert.Equal(t, int64(1), a.RowVersion)

	_, err = h.agreements.CreateAgreement(ctx, in)
	requireForbidden(t, err, utils.ErrAgreementUnavailable)

	_, err = h.agreements.MarkReady(ctx, a.ID, landlord.ID, models.RoleLandlord)
	requireAppError(t, err, http.StatusBadRequest, utils.ErrInvalidPayload)

	_, err = h.agreements.AssignTenant(ctx, a.ID, landlord.ID, models.RoleLandlord, landlord.ID)
	requireAppError(t, err, http.StatusNotFound, utils.ErrTenantNotFound)

	a, err = h.agreements.AssignTenant(ctx, a.ID, landlord.ID, models.RoleLandlord, tenant.ID)
	require.NoError(t, err)
	require.NotNil(t, a.TenantID)
	assert.Equal(t, []string{"Rental agreement invitation"}, h.events.NotificationsFor(tenant.ID))

	a, err = h.agreements.MarkReady(ctx, a.ID, landlord.ID, models.RoleLandlord)
	require.NoError(t, err)
	assert.Equal(t, models.AgreementStatusReady, a.Status)

	_, err = h.agreements.AcceptAgreement(ctx, a.ID, landlord.ID)
	requireForbidden(t, err, utils.ErrNotAgreementTenant)

	a, err = h.agreements.AcceptAgreement(ctx, a.ID, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AgreementStatusPendingPayment, a.Status)
	assert.True(t, a.TenantAcceptedAgreement)

	_, err = h.agreements.AssignTenant(ctx, a.ID, landlord.ID, models.RoleLandlord, tenant.ID)
	requireForbidden(t, err, utils.ErrWrongStatus)

	res, err := h.payments.RecordInitialPayment(ctx, InitialPaymentInput{
		AgreementID: a.ID,
		TenantID:    tenant.ID,
		AmountCents: 180000,
		Method:      models.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AgreementStatusActive, res.AgreementStatus)

	u, err := h.store.Units().GetByID(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OccupancyOccupied, u.Status)

	a = getAgreement(t, h, a.ID)
	require.NotNil(t, a.StartDate)
	require.NotNil(t, a.EndDate)
	assert.True(t, a.StartDate.Equal(testNow))
	assert.True(t, a.EndDate.Equal(end))

	testhelpers.SeedObligation(t, h.store, &testhelpers.Lease{Tenant: tenant, Property: prop, Agreement: a},
		testNow.AddDate(0, 0, 30), 120000, 0, models.PaymentStatusPending)

	got, err := h.agreements.GetAgreement(ctx, a.ID, tenant.ID, models.RoleTenant)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	stranger := testhelpers.SeedUser(t, h.store, models.RoleTenant, "stranger")
	_, err = h.agreements.GetAgreement(ctx, a.ID, stranger.ID, models.RoleTenant)
	requireForbidden(t, err, utils.ErrNotAgreementOwner)

	n, err := h.agreements.CompleteExpiredAgreements(ctx, end.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = h.agreements.CompleteExpiredAgreements(ctx, end)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	a = getAgreement(t, h, a.ID)
	assert.Equal(t, models.AgreementStatusCompleted, a.Status)
	u, err = h.store.Units().GetByID(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OccupancyAvailable, u.Status)

	outstanding, err := h.store.Payments().ListOutstandingForUpdate(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, outstanding)

	n, err = h.agreements.CompleteExpiredAgreements(ctx, end)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// the unit is free for a new lease
	in.TenantID = nil
	_, err = h.agreements.CreateAgreement(ctx, in)
	require.NoError(t, err)
}

func TestCreateAgreementOwnership(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	landlord := testhelpers.SeedUser(t, h.store, models.RoleLandlord, "owner")
	other := testhelpers.SeedUser(t, h.store, models.RoleLandlord, "other")
	prop, unit := seedPropertyWithUnit(t, h, landlord)

	base := CreateAgreementInput{
		OwnerID:          other.ID,
		OwnerRole:        models.RoleLandlord,
		PropertyID:       prop.ID,
		UnitID:           &unit.ID,
		MonthlyRentCents: 1000,
	}

	_, err := h.agreements.CreateAgreement(ctx, base)
	requireForbidden(t, err, utils.ErrNotAgreementOwner)

	tenantRole := base
	tenantRole.OwnerRole = models.RoleTenant
	_, err = h.agreements.CreateAgreement(ctx, tenantRole)
	requireForbidden(t, err, utils.ErrRoleNotAllowed)

	missing := base
	missing.OwnerID = landlord.ID
	missing.PropertyID = uuid.New()
	_, err = h.agreements.CreateAgreement(ctx, missing)
	requireAppError(t, err, http.StatusNotFound, utils.ErrPropertyNotFound)

	foreignUnit := base
	foreignUnit.OwnerID = landlord.ID
	stray := uuid.New()
	foreignUnit.UnitID = &stray
	_, err = h.agreements.CreateAgreement(ctx, foreignUnit)
	requireAppError(t, err, http.StatusNotFound, utils.ErrUnitNotFound)

	freeRent := base
	freeRent.OwnerID = landlord.ID
	freeRent.MonthlyRentCents = 0
	_, err = h.agreements.CreateAgreement(ctx, freeRent)
	requireAppError(t, err, http.StatusBadRequest, utils.ErrInvalidPayload)

	huge := base
	huge.OwnerID = landlord.ID
	huge.MonthlyRentCents = math.MaxInt64 - 10
	huge.SecurityDepositCents = 11
	_, err = h.agreements.CreateAgreement(ctx, huge)
	requireAppError(t, err, http.StatusBadRequest, utils.ErrInvalidPayload)

	backwards := base
	backwards.OwnerID = landlord.ID
	start := testNow
	end := testNow.AddDate(0, 0, -1)
	backwards.StartDate = &start
	backwards.EndDate = &end
	_, err = h.agreements.CreateAgreement(ctx, backwards)
	requireAppError(t, err, http.StatusBadRequest, utils.ErrInvalidPayload)

	assert.Equal(t, 0, h.store.Commits())
}

func TestCancelAgreement(t *testing.T) {
	ctx := context.Background()

	t.Run("owner cancels pending payment", func(t *testing.T) {
		h := newHarness()
		l := testhelpers.SeedLease(t, h.store, models.AgreementStatusPendingPayment, 1000, 0)
		a, err := h.agreements.CancelAgreement(ctx, l.Agreement.ID, l.Landlord.ID, models.RoleLandlord)
		require.NoError(t, err)
		assert.Equal(t, models.AgreementStatusCancelled, a.Status)
		assert.Nil(t, a.TenantID)
		assert.Len(t, h.events.NotificationsFor(l.Tenant.ID), 1)
	})

	t.Run("admin cancels draft", func(t *testing.T) {
		h := newHarness()
		l := testhelpers.SeedLease(t, h.store, models.AgreementStatusDraft, 1000, 0)
		a, err := h.agreements.CancelAgreement(ctx, l.Agreement.ID, l.Admin.ID, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, models.AgreementStatusCancelled, a.Status)
	})

	t.Run("tenant cannot cancel", func(t *testing.T) {
		h := newHarness()
		l := testhelpers.SeedLease(t, h.store, models.AgreementStatusReady, 1000, 0)
		_, err := h.agreements.CancelAgreement(ctx, l.Agreement.ID, l.Tenant.ID, models.RoleTenant)
		requireForbidden(t, err, utils.ErrRoleNotAllowed)
	})

	t.Run("active agreements go through termination", func(t *testing.T) {
		h := newHarness()
		l := testhelpers.SeedLease(t, h.store, models.AgreementStatusActive, 1000, 0)
		_, err := h.agreements.CancelAgreement(ctx, l.Agreement.ID, l.Landlord.ID, models.RoleLandlord)
		requireForbidden(t, err, utils.ErrWrongStatus)
		assert.Equal(t, models.AgreementStatusActive, getAgreement(t, h, l.Agreement.ID).Status)
	})

	t.Run("unknown agreement", func(t *testing.T) {
		h := newHarness()
		_, err := h.agreements.CancelAgreement(ctx, uuid.New(), uuid.New(), models.RoleAdmin)
		requireAppError(t, err, http.StatusNotFound, utils.ErrAgreementNotFound)
	})
}

func TestCompleteExpiredAgreementsClosesOpenTerminations(t *testing.T) {
	ctx := context.Background()

	expireIn := func(t *testing.T, h *harness, l *testhelpers.Lease, days int) {
		end := testNow.AddDate(0, 0, days)
		require.NoError(t, h.store.Agreements().UpdateWithRetry(ctx, l.Agreement.ID, func(a *models.RentalAgreement) error {
			a.EndDate = &end
			return nil
		}))
	}

	t.Run("eviction in grace period", func(t *testing.T) {
		h := newHarness()
		l := testhelpers.SeedLease(t, h.store, models.AgreementStatusActive, 10000, 0)
		expireIn(t, h, l, 3)

		res, err := h.terminations.InitiateTermination(ctx, ownerRequirement(l, 10))
		require.NoError(t, err)
		require.NotNil(t, res.EvictionLogID)

		n, err := h.agreements.CompleteExpiredAgreements(ctx, testNow.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		a := getAgreement(t, h, l.Agreement.ID)
		assert.Equal(t, models.AgreementStatusCompleted, a.Status)
		assert.Nil(t, a.TerminationRequestedAt)
		assert.Nil(t, a.TerminationReason)

		e, err := h.store.Evictions().GetByID(ctx, *res.EvictionLogID)
		require.NoError(t, err)
		assert.Equal(t, models.EvictionStatusCancelled, e.Status)
		require.NotNil(t, e.CancelReason)

		for i := 0; i < 3; i++ {
			finalized, err := h.terminations.AutoFinalizeExpiredGracePeriods(ctx, testNow.AddDate(0, 0, 11+i))
			require.NoError(t, err)
			assert.Zero(t, finalized)
		}
		expired, err := h.store.Evictions().ListExpiredWarnings(ctx, testNow.AddDate(0, 0, 30))
		require.NoError(t, err)
		assert.Empty(t, expired)
	})

	t.Run("breach under review", func(t *testing.T) {
		h := newHarness()
		l := testhelpers.SeedLease(t, h.store, models.AgreementStatusActive, 10000, 0)
		expireIn(t, h, l, 3)

		res, err := h.terminations.InitiateTermination(ctx, breachInput(l))
		require.NoError(t, err)
		require.NotNil(t, res.BreachLogID)

		n, err := h.agreements.CompleteExpiredAgreements(ctx, testNow.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		a := getAgreement(t, h, l.Agreement.ID)
		assert.Equal(t, models.AgreementStatusCompleted, a.Status)
		assert.Nil(t, a.TerminationRequestedAt)
		assert.False(t, a.DidAdminApproveBreach)

		b, err := h.store.Breaches().GetByID(ctx, *res.BreachLogID)
		require.NoError(t, err)
		assert.Equal(t, models.BreachStatusCancelled, b.Status)
	})
}
