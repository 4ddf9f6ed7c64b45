package services

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/testhelpers"
	"github.com/poofware/leasing-service/internal/utils"
)

var testNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	store        *testhelpers.MemStore
	events       *testhelpers.RecordingPublisher
	gateway      *SimulatedGateway
	payments     *PaymentService
	terminations *TerminationService
	agreements   *AgreementService
	refunds      *RefundService
	rentCycles   *RentCycleService
}

func newHarness() *harness {
	store := testhelpers.NewMemStore()
	events := &testhelpers.RecordingPublisher{}
	gateway := NewSimulatedGateway()
	h := &harness{
		store:        store,
		events:       events,
		gateway:      gateway,
		payments:     NewPaymentService(store, gateway, events),
		terminations: NewTerminationService(store, events),
		agreements:   NewAgreementService(store, events),
		refunds:      NewRefundService(store, events),
		rentCycles:   NewRentCycleService(store, events),
	}
	h.setNow(testNow)
	return h
}

func (h *harness) setNow(now time.Time) {
	c := func() time.Time { return now }
	h.payments.now = c
	h.terminations.now = c
	h.agreements.now = c
	h.refunds.now = c
}

func requireAppError(t *testing.T, err error, status int, sentinel error) {
	t.Helper()
	require.Error(t, err)
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr), "expected *utils.AppError, got %T: %v", err, err)
	require.Equal(t, status, appErr.StatusCode, appErr.Message)
	if sentinel != nil {
		require.ErrorIs(t, err, sentinel)
	}
}

func requireForbidden(t *testing.T, err error, sentinel error) {
	t.Helper()
	requireAppError(t, err, http.StatusForbidden, sentinel)
}
