package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/poofware/leasing-service/internal/config"
	"github.com/poofware/leasing-service/internal/eventbus"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/utils"
)

const leaseNotificationEmailHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>%s</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; background-color: #f3f4f6; color: #1f2937; margin: 0; padding: 20px; }
  .container { max-width: 600px; margin: auto; background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; }
  .header { background-color: #dbeafe; padding: 15px 20px; border-bottom: 1px solid #bfdbfe; }
  .header h1 { margin: 0; font-size: 20px; color: #1e40af; }
  .content { padding: 20px; }
  .footer { padding: 10px 20px; font-size: 12px; color: #6b7280; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      <p>Hi %s,</p>
      <p>%s</p>
    </div>
    <div class="footer">Sent by %s on %s (UTC).</div>
  </div>
</body>
</html>`

const defaultNotificationListLimit = 50

// NotificationService delivers lease notifications: an in-app row always,
// plus SMS and email when those clients are configured. It is the consumer
// of NotificationRequested events.
type NotificationService struct {
	cfg           *config.Config
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	twilioClient  *twilio.RestClient
	sgClient      *sendgrid.Client
}

func NewNotificationService(
	cfg *config.Config,
	users repositories.UserRepository,
	notifications repositories.NotificationRepository,
	twClient *twilio.RestClient,
	sgClient *sendgrid.Client,
) *NotificationService {
	return &NotificationService{
		cfg:           cfg,
		users:         users,
		notifications: notifications,
		twilioClient:  twClient,
		sgClient:      sgClient,
	}
}

// HandleEvent implements eventbus.Handler.
func (s *NotificationService) HandleEvent(ctx context.Context, evt eventbus.Event) error {
	if evt.Type != eventbus.EventNotificationRequested {
		return nil
	}
	n, ok := evt.Payload.(eventbus.NotificationRequested)
	if !ok {
		return fmt.Errorf("event %s: unexpected payload %T", evt.ID, evt.Payload)
	}
	return s.Notify(ctx, n.UserID, n.Title, n.Body)
}

// Notify stores the in-app notification and fans out to SMS and email.
// Only the in-app write can fail the call; channel failures are logged.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, title, body string) error {
	now := time.Now().UTC()
	row := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		CreatedAt: now,
	}
	if err := s.notifications.Create(ctx, row); err != nil {
		return fmt.Errorf("store notification for user %s: %w", userID, err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		utils.Logger.WithError(err).Warnf("Notify: failed to load user %s, skipping SMS/email", userID)
		return nil
	}
	if user == nil {
		utils.Logger.Warnf("Notify: user %s not found, skipping SMS/email", userID)
		return nil
	}

	s.sendSMS(user, title, body)
	s.sendEmail(user, title, body, now)
	return nil
}

func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > defaultNotificationListLimit {
		limit = defaultNotificationListLimit
	}
	list, err := s.notifications.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, toAppError(err)
	}
	return list, nil
}

func (s *NotificationService) sendSMS(user *models.User, title, body string) {
	if s.twilioClient == nil {
		utils.Logger.Debugf("Twilio client is nil, skipping SMS to user %s", user.ID)
		return
	}
	if user.PhoneNumber == nil || *user.PhoneNumber == "" || s.cfg.LDFlag_TwilioFromPhone == "" {
		return
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(*user.PhoneNumber)
	params.SetFrom(s.cfg.LDFlag_TwilioFromPhone)
	params.SetBody(title + " :: " + body)
	if _, err := s.twilioClient.Api.CreateMessage(params); err != nil {
		utils.Logger.WithError(err).Warnf("Failed to send SMS to user %s", user.ID)
	}
}

func (s *NotificationService) sendEmail(user *models.User, title, body string, at time.Time) {
	if s.sgClient == nil {
		utils.Logger.Debugf("SendGrid client is nil, skipping email to user %s", user.ID)
		return
	}
	if user.Email == "" || s.cfg.LDFlag_SendgridFromEmail == "" {
		return
	}
	subject := fmt.Sprintf("%s: %s", s.cfg.OrganizationName, title)
	htmlBody := fmt.Sprintf(leaseNotificationEmailHTML,
		html.EscapeString(subject),
		html.EscapeString(title),
		html.EscapeString(user.Name),
		html.EscapeString(body),
		html.EscapeString(s.cfg.OrganizationName),
		at.Format(time.RFC1123Z),
	)

	from := mail.NewEmail(s.cfg.OrganizationName, s.cfg.LDFlag_SendgridFromEmail)
	to := mail.NewEmail(user.Name, user.Email)
	msg := mail.NewSingleEmail(from, subject, to, body, htmlBody)
	msg.TrackingSettings = &mail.TrackingSettings{
		ClickTracking: &mail.ClickTrackingSetting{
			Enable: utils.Ptr(false),
		},
	}
	if s.cfg.LDFlag_SendgridSandboxMode {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}
	if _, err := s.sgClient.Send(msg); err != nil {
		utils.Logger.WithError(err).Warnf("Email send failure to user %s", user.ID)
	}
}
