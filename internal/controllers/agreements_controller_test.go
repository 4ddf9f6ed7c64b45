package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/dtos"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/routes"
	"github.com/poofware/leasing-service/internal/services"
	"github.com/poofware/leasing-service/internal/testhelpers"
	"github.com/poofware/leasing-service/internal/utils"
)

func newAgreementsController(store *testhelpers.MemStore) *AgreementsController {
	return NewAgreementsController(services.NewAgreementService(store, &testhelpers.RecordingPublisher{}))
}

func seedProperty(t *testing.T, store *testhelpers.MemStore, owner *models.User) *models.Property {
	t.Helper()
	now := time.Now().UTC()
	p := &models.Property{
		ID:        uuid.New(),
		OwnerID:   owner.ID,
		Name:      "Birch House",
		Address:   "9 Birch Rd",
		Status:    models.OccupancyAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Properties().Create(context.Background(), p))
	return p
}

func TestCreateAgreementHandler(t *testing.T) {
	store := testhelpers.NewMemStore()
	c := newAgreementsController(store)
	landlord := testhelpers.SeedUser(t, store, models.RoleLandlord, "owner")
	tenant := testhelpers.SeedUser(t, store, models.RoleTenant, "renter")
	prop := seedProperty(t, store, landlord)

	t.Run("Unauthenticated", func(t *testing.T) {
		rr := serve(t, c.CreateAgreementHandler, http.MethodPost, routes.Agreements, routes.Agreements,
			map[string]any{"property_id": prop.ID, "monthly_rent": "1200.00"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		rr := serve(t, c.CreateAgreementHandler, http.MethodPost, routes.Agreements, routes.Agreements, "{", landlord)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, utils.ErrCodeInvalidPayload, decodeError(t, rr).Code)
	})

	t.Run("MissingRent", func(t *testing.T) {
		rr := serve(t, c.CreateAgreementHandler, http.MethodPost, routes.Agreements, routes.Agreements,
			map[string]any{"property_id": prop.ID}, landlord)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeError(t, rr)
		assert.Equal(t, utils.ErrCodeValidation, resp.Code)
		assert.NotNil(t, resp.Details)
	})

	t.Run("TooManyDecimals", func(t *testing.T) {
		rr := serve(t, c.CreateAgreementHandler, http.MethodPost, routes.Agreements, routes.Agreements,
			map[string]any{"property_id": prop.ID, "monthly_rent": "1200.005"}, landlord)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("NegativeDeposit", func(t *testing.T) {
		rr := serve(t, c.CreateAgreementHandler, http.MethodPost, routes.Agreements, routes.Agreements,
			map[string]any{"property_id": prop.ID, "monthly_rent": "1200", "security_deposit": "-1"}, landlord)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("TenantCannotCreate", func(t *testing.T) {
		rr := serve(t, c.CreateAgreementHandler, http.MethodPost, routes.Agreements, routes.Agreements,
			map[string]any{"property_id": prop.ID, "monthly_rent": "1200"}, tenant)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, utils.ErrCodeForbidden, decodeError(t, rr).Code)
	})

	t.Run("Created", func(t *testing.T) {
		rr := serve(t, c.CreateAgreementHandler, http.MethodPost, routes.Agreements, routes.Agreements,
			map[string]any{
				"property_id":      prop.ID,
				"tenant_id":        tenant.ID,
				"monthly_rent":     "1200",
				"security_deposit": "0",
			}, landlord)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var resp dtos.AgreementResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, models.AgreementStatusDraft, resp.Status)
		assert.Equal(t, "1200.00", resp.MonthlyRent)
		assert.Equal(t, "0.00", resp.SecurityDeposit)
		require.NotNil(t, resp.TenantID)
		assert.Equal(t, tenant.ID, *resp.TenantID)
	})

	t.Run("PropertyAlreadyLeased", func(t *testing.T) {
		rr := serve(t, c.CreateAgreementHandler, http.MethodPost, routes.Agreements, routes.Agreements,
			map[string]any{"property_id": prop.ID, "monthly_rent": "900"}, landlord)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestGetAgreementHandler(t *testing.T) {
	store := testhelpers.NewMemStore()
	c := newAgreementsController(store)
	l := testhelpers.SeedLease(t, store, models.AgreementStatusActive, 150000, 50000)
	stranger := testhelpers.SeedUser(t, store, models.RoleTenant, "stranger")

	rr := serve(t, c.GetAgreementHandler, http.MethodGet, routes.Agreement, "/api/v1/agreements/not-a-uuid", nil, l.Tenant)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(t, c.GetAgreementHandler, http.MethodGet, routes.Agreement, "/api/v1/agreements/"+uuid.NewString(), nil, l.Tenant)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, utils.ErrCodeNotFound, decodeError(t, rr).Code)

	url := "/api/v1/agreements/" + l.Agreement.ID.String()
	rr = serve(t, c.GetAgreementHandler, http.MethodGet, routes.Agreement, url, nil, stranger)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	for _, caller := range []*models.User{l.Tenant, l.Landlord, l.Admin} {
		rr = serve(t, c.GetAgreementHandler, http.MethodGet, routes.Agreement, url, nil, caller)
		require.Equal(t, http.StatusOK, rr.Code, "caller role %s", caller.Role)
		var resp dtos.AgreementResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, l.Agreement.ID, resp.ID)
		assert.Equal(t, "1500.00", resp.MonthlyRent)
		assert.Equal(t, "500.00", resp.SecurityDeposit)
	}
}

func TestAgreementWorkflowHandlers(t *testing.T) {
	store := testhelpers.NewMemStore()
	c := newAgreementsController(store)
	l := testhelpers.SeedLease(t, store, models.AgreementStatusDraft, 100000, 0)
	id := l.Agreement.ID.String()

	rr := serve(t, c.AcceptAgreementHandler, http.MethodPost, routes.AgreementAccept, "/api/v1/agreements/"+id+"/accept", nil, l.Tenant)
	assert.Equal(t, http.StatusForbidden, rr.Code, "draft agreements cannot be accepted")

	rr = serve(t, c.MarkReadyHandler, http.MethodPost, routes.AgreementReady, "/api/v1/agreements/"+id+"/ready", nil, l.Tenant)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(t, c.MarkReadyHandler, http.MethodPost, routes.AgreementReady, "/api/v1/agreements/"+id+"/ready", nil, l.Landlord)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(t, c.AcceptAgreementHandler, http.MethodPost, routes.AgreementAccept, "/api/v1/agreements/"+id+"/accept", nil, l.Landlord)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(t, c.AcceptAgreementHandler, http.MethodPost, routes.AgreementAccept, "/api/v1/agreements/"+id+"/accept", nil, l.Tenant)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp dtos.AgreementResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.AgreementStatusPendingPayment, resp.Status)
	assert.True(t, resp.TenantAcceptedAgreement)

	rr = serve(t, c.CancelAgreementHandler, http.MethodPost, routes.AgreementCancel, "/api/v1/agreements/"+id+"/cancel", nil, l.Landlord)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.AgreementStatusCancelled, resp.Status)
}

func TestAssignTenantHandlerValidation(t *testing.T) {
	store := testhelpers.NewMemStore()
	c := newAgreementsController(store)
	l := testhelpers.SeedLease(t, store, models.AgreementStatusDraft, 100000, 0)
	url := "/api/v1/agreements/" + l.Agreement.ID.String() + "/tenant"

	rr := serve(t, c.AssignTenantHandler, http.MethodPost, routes.AgreementTenant, url, map[string]any{}, l.Landlord)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	other := testhelpers.SeedUser(t, store, models.RoleTenant, "other")
	rr = serve(t, c.AssignTenantHandler, http.MethodPost, routes.AgreementTenant, url, map[string]any{"tenant_id": other.ID}, l.Landlord)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp dtos.AgreementResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.TenantID)
	assert.Equal(t, other.ID, *resp.TenantID)
}
