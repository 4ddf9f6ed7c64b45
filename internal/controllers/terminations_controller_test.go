package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/dtos"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/routes"
	"github.com/poofware/leasing-service/internal/services"
	"github.com/poofware/leasing-service/internal/testhelpers"
)

func newTerminationsController(store *testhelpers.MemStore) *TerminationsController {
	return NewTerminationsController(services.NewTerminationService(store, &testhelpers.RecordingPublisher{}))
}

func TestInitiateTerminationHandlerValidation(t *testing.T) {
	store := testhelpers.NewMemStore()
	c := newTerminationsController(store)
	l := testhelpers.SeedLease(t, store, models.AgreementStatusActive, 100000, 0)
	url := "/api/v1/agreements/" + l.Agreement.ID.String() + "/terminations"

	cases := []struct {
		name string
		body map[string]any
	}{
		{"UnknownReason", map[string]any{"reason": "BORED"}},
		{"GraceTooLong", map[string]any{"reason": "OWNER_REQUIREMENT", "grace_days": 120}},
		{"BadEvidenceURL", map[string]any{"reason": "BREACH_OF_AGREEMENT", "evidence_file_url": "not a url"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, c.InitiateTerminationHandler, http.MethodPost, routes.AgreementTerminations, url, tc.body, l.Landlord)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}

	t.Run("BreachWithoutEvidence", func(t *testing.T) {
		rr := serve(t, c.InitiateTerminationHandler, http.MethodPost, routes.AgreementTerminations, url,
			map[string]any{"reason": "BREACH_OF_AGREEMENT"}, l.Landlord)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestMutualTerminationHandlers(t *testing.T) {
	store := testhelpers.NewMemStore()
	c := newTerminationsController(store)
	l := testhelpers.SeedLease(t, store, models.AgreementStatusActive, 100000, 0)
	base := "/api/v1/agreements/" + l.Agreement.ID.String()

	rr := serve(t, c.InitiateTerminationHandler, http.MethodPost, routes.AgreementTerminations, base+"/terminations",
		map[string]any{"reason": "MUTUAL_AGREEMENT", "description": "moving abroad"}, l.Tenant)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var res services.TerminationResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.AwaitingAcceptance)

	rr = serve(t, c.AcceptMutualTerminationHandler, http.MethodPost, routes.AgreementTerminationAccept, base+"/terminations/accept", nil, l.Landlord)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.False(t, res.AwaitingAcceptance)
	require.NotNil(t, res.EvictionLogID)

	rr = serve(t, c.ConfirmEvictionHandler, http.MethodPost, routes.TerminationsConfirm, routes.TerminationsConfirm,
		map[string]any{"kind": "eviction", "id": *res.EvictionLogID}, l.Landlord)
	assert.Equal(t, http.StatusForbidden, rr.Code, "grace period has not expired")

	rr = serve(t, c.CancelTerminationHandler, http.MethodPost, routes.TerminationsCancel, routes.TerminationsCancel,
		map[string]any{"kind": "eviction", "id": *res.EvictionLogID, "reason": "staying after all"}, l.Tenant)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var cancelled services.CancelResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cancelled))
	assert.Equal(t, l.Agreement.ID, cancelled.AgreementID)

	a, err := store.Agreements().GetByID(context.Background(), l.Agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AgreementStatusActive, a.Status)
	assert.Nil(t, a.TerminationReason)
}

func TestTerminationRefValidation(t *testing.T) {
	store := testhelpers.NewMemStore()
	c := newTerminationsController(store)
	l := testhelpers.SeedLease(t, store, models.AgreementStatusActive, 100000, 0)

	rr := serve(t, c.ConfirmEvictionHandler, http.MethodPost, routes.TerminationsConfirm, routes.TerminationsConfirm,
		map[string]any{"kind": "lease", "id": uuid.New()}, l.Landlord)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(t, c.CancelTerminationHandler, http.MethodPost, routes.TerminationsCancel, routes.TerminationsCancel,
		map[string]any{"kind": "eviction"}, l.Landlord)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(t, c.ConfirmEvictionHandler, http.MethodPost, routes.TerminationsConfirm, routes.TerminationsConfirm,
		map[string]any{"kind": "eviction", "id": uuid.New()}, l.Landlord)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBreachHandlers(t *testing.T) {
	store := testhelpers.NewMemStore()
	c := newTerminationsController(store)
	l := testhelpers.SeedLease(t, store, models.AgreementStatusActive, 100000, 0)

	rr := serve(t, c.InitiateTerminationHandler, http.MethodPost, routes.AgreementTerminations,
		"/api/v1/agreements/"+l.Agreement.ID.String()+"/terminations",
		map[string]any{
			"reason":             "BREACH_OF_AGREEMENT",
			"description":        "unauthorized subletting",
			"evidence_file_name": "photo.jpg",
			"evidence_file_url":  "https://files.example.com/photo.jpg",
		}, l.Landlord)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var res services.TerminationResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.NotNil(t, res.BreachLogID)
	reviewURL := "/api/v1/admin/breaches/" + res.BreachLogID.String() + "/review"

	rr = serve(t, c.ReviewBreachHandler, http.MethodPost, routes.AdminBreachReview, reviewURL,
		map[string]any{"outcome": "evicted"}, l.Admin)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(t, c.ReviewBreachHandler, http.MethodPost, routes.AdminBreachReview, reviewURL,
		map[string]any{"outcome": "pending_remedy", "remedy_days": 14, "notes": "fix within two weeks"}, l.Admin)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var b dtos.BreachLogResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b))
	assert.Equal(t, string(models.BreachStatusPendingRemedy), b.Status)
	assert.NotNil(t, b.RemedyDeadline)
	assert.NotNil(t, b.ReviewedAt)

	resolveURL := "/api/v1/breaches/" + res.BreachLogID.String() + "/resolve"
	rr = serve(t, c.ResolveBreachHandler, http.MethodPost, routes.BreachResolve, resolveURL, nil, l.Tenant)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(t, c.ResolveBreachHandler, http.MethodPost, routes.BreachResolve, resolveURL, nil, l.Landlord)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b))
	assert.Equal(t, string(models.BreachStatusResolved), b.Status)
	assert.NotNil(t, b.ResolvedAt)
}
