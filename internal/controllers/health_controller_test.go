package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poofware/leasing-service/internal/routes"
	"github.com/poofware/leasing-service/internal/utils"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthCheckHandler(t *testing.T) {
	ok := NewHealthController(stubPinger{})
	rr := serve(t, ok.HealthCheckHandler, http.MethodGet, routes.Health, routes.Health, nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rr.Body.String())

	down := NewHealthController(stubPinger{err: errors.New("connection refused")})
	rr = serve(t, down.HealthCheckHandler, http.MethodGet, routes.Health, routes.Health, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, utils.ErrCodeInternal, decodeError(t, rr).Code)
}
