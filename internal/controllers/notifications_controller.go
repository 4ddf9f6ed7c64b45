package controllers

import (
	"net/http"
	"strconv"

	"github.com/poofware/leasing-service/internal/dtos"
	"github.com/poofware/leasing-service/internal/services"
	"github.com/poofware/leasing-service/internal/utils"
)

type NotificationsController struct {
	notifications *services.NotificationService
}

func NewNotificationsController(s *services.NotificationService) *NotificationsController {
	return &NotificationsController{notifications: s}
}

// GET /api/v1/notifications?limit=N
func (c *NotificationsController) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := callerFromRequest(r)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			utils.HandleAppError(w, utils.NewValidationError("limit", "must be an integer"))
			return
		}
	}

	list, err := c.notifications.ListNotifications(r.Context(), callerID, limit)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	resp := make([]dtos.NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, dtos.NotificationResponse{ID: n.ID, Title: n.Title, Body: n.Body, CreatedAt: n.CreatedAt})
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
