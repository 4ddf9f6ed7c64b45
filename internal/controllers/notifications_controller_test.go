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

	"github.com/poofware/leasing-service/internal/config"
	"github.com/poofware/leasing-service/internal/dtos"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/routes"
	"github.com/poofware/leasing-service/internal/services"
	"github.com/poofware/leasing-service/internal/testhelpers"
)

func TestListNotificationsHandler(t *testing.T) {
	store := testhelpers.NewMemStore()
	c := NewNotificationsController(services.NewNotificationService(
		&config.Config{OrganizationName: config.OrganizationName}, store.Users(), store.Notifications(), nil, nil))
	user := testhelpers.SeedUser(t, store, models.RoleTenant, "renter")
	other := testhelpers.SeedUser(t, store, models.RoleLandlord, "owner")

	base := time.Now().UTC()
	for i, u := range []*models.User{user, user, user, other} {
		require.NoError(t, store.Notifications().Create(context.Background(), &models.Notification{
			ID:        uuid.New(),
			UserID:    u.ID,
			Title:     "Rent due",
			Body:      "Your rent is due soon.",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rr := serve(t, c.ListNotificationsHandler, http.MethodGet, routes.Notifications, routes.Notifications+"?limit=abc", nil, user)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(t, c.ListNotificationsHandler, http.MethodGet, routes.Notifications, routes.Notifications, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(t, c.ListNotificationsHandler, http.MethodGet, routes.Notifications, routes.Notifications, nil, user)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []dtos.NotificationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 3)

	rr = serve(t, c.ListNotificationsHandler, http.MethodGet, routes.Notifications, routes.Notifications+"?limit=2", nil, user)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}
