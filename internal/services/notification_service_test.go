package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/config"
	"github.com/poofware/leasing-service/internal/eventbus"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/testhelpers"
)

func newTestNotificationService(store *testhelpers.MemStore) *NotificationService {
	cfg := &config.Config{
		OrganizationName:         config.OrganizationName,
		LDFlag_SendgridFromEmail: "no-reply@example.com",
		LDFlag_TwilioFromPhone:   "+15550000000",
	}
	return NewNotificationService(cfg, store.Users(), store.Notifications(), nil, nil)
}

func TestNotifyStoresInAppNotification(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewMemStore()
	svc := newTestNotificationService(store)
	u := testhelpers.SeedUser(t, store, models.RoleTenant, "tenant")

	require.NoError(t, svc.Notify(ctx, u.ID, "Rent due", "Rent of 100.00 is due."))

	// unknown users still get the in-app row
	ghost := uuid.New()
	require.NoError(t, svc.Notify(ctx, ghost, "Hello", "body"))

	list, err := svc.ListNotifications(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Rent due", list[0].Title)
	assert.Equal(t, "Rent of 100.00 is due.", list[0].Body)

	ghostList, err := svc.ListNotifications(ctx, ghost, 10)
	require.NoError(t, err)
	assert.Len(t, ghostList, 1)
}

func TestNotifyFailsWhenStoreFails(t *testing.T) {
	store := testhelpers.NewMemStore()
	svc := newTestNotificationService(store)
	store.FailOn("Notifications.Create", errors.New("db down"))

	err := svc.Notify(context.Background(), uuid.New(), "t", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewMemStore()
	svc := newTestNotificationService(store)
	userID := uuid.New()

	evt := eventbus.NewNotificationEvent(uuid.New(), time.Now(), eventbus.NotificationRequested{
		UserID: userID,
		Title:  "Lease activated",
		Body:   "Your lease is now active.",
	})
	require.NoError(t, svc.HandleEvent(ctx, evt))

	require.NoError(t, svc.HandleEvent(ctx, eventbus.Event{ID: uuid.New(), Type: "something_else"}))

	bad := evt
	bad.Payload = "not a notification"
	require.Error(t, svc.HandleEvent(ctx, bad))

	list, err := svc.ListNotifications(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Lease activated", list[0].Title)
}

func TestListNotificationsCapsLimit(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewMemStore()
	svc := newTestNotificationService(store)
	userID := uuid.New()
	for i := 0; i < 60; i++ {
		require.NoError(t, svc.Notify(ctx, userID, fmt.Sprintf("n%d", i), "b"))
	}

	list, err := svc.ListNotifications(ctx, userID, 500)
	require.NoError(t, err)
	assert.Len(t, list, 50)
	assert.Equal(t, "n59", list[0].Title)

	list, err = svc.ListNotifications(ctx, userID, 5)
	require.NoError(t, err)
	assert.Len(t, list, 5)
}
