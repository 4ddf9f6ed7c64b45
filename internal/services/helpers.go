package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/poofware/leasing-service/internal/eventbus"
	"github.com/poofware/leasing-service/internal/lifecycle"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/utils"
)

type clock func() time.Time

// errSkip aborts a sweep transaction whose candidate no longer qualifies.
var errSkip = errors.New("skip")

func errorsIsSkip(err error) bool {
	return errors.Is(err, errSkip)
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// toAppError maps store and state-machine failures onto the error taxonomy.
// AppErrors pass through untouched.
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, repositories.ErrRowVersionConflict):
		return utils.NewConflictError(err)
	case errors.Is(err, lifecycle.ErrRejected):
		return utils.NewForbiddenError(utils.ErrWrongStatus, err.Error())
	}
	return utils.NewServerError("An unexpected error occurred", err)
}

func agreementNotFound(id uuid.UUID) error {
	return utils.NewNotFoundError(utils.ErrAgreementNotFound, "rental agreement", id)
}

func wrongStatus(a *models.RentalAgreement, want models.AgreementStatus) error {
	return utils.NewForbiddenError(utils.ErrWrongStatus,
		fmt.Sprintf("rental agreement %s is %s, expected %s", a.ID, a.Status, want))
}

// lockAgreement loads the agreement row FOR UPDATE; every atomic operation
// starts here so concurrent callers serialize on the aggregate root.
func lockAgreement(ctx context.Context, tx repositories.UnitOfWork, id uuid.UUID) (*models.RentalAgreement, error) {
	a, err := tx.Agreements().GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, agreementNotFound(id)
	}
	return a, nil
}

func loadAgreement(ctx context.Context, uow repositories.UnitOfWork, id uuid.UUID) (*models.RentalAgreement, error) {
	a, err := uow.Agreements().GetByID(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	if a == nil {
		return nil, agreementNotFound(id)
	}
	return a, nil
}

func requireOwner(a *models.RentalAgreement, userID uuid.UUID, role models.Role) error {
	if role != models.RoleLandlord {
		return utils.NewForbiddenError(utils.ErrRoleNotAllowed, "only the landlord may perform this action")
	}
	if a.OwnerID != userID {
		return utils.NewForbiddenError(utils.ErrNotAgreementOwner, "caller does not own this rental agreement")
	}
	return nil
}

func requireTenant(a *models.RentalAgreement, userID uuid.UUID) error {
	if !a.IsTenant(userID) {
		return utils.NewForbiddenError(utils.ErrNotAgreementTenant, "caller is not the tenant of this rental agreement")
	}
	return nil
}

// transitionAgreement applies ev through the agreement state machine.
func transitionAgreement(a *models.RentalAgreement, ev lifecycle.Event) error {
	next, err := lifecycle.AgreementTransition(a.Status, ev)
	if err != nil {
		return err
	}
	a.Status = next
	return nil
}

// setOccupancy flips the leased unit, or the property when the agreement
// has no unit, to status.
func setOccupancy(ctx context.Context, tx repositories.UnitOfWork, a *models.RentalAgreement, status models.OccupancyStatus) error {
	if a.UnitID != nil {
		err := tx.Units().UpdateWithRetry(ctx, *a.UnitID, func(u *models.Unit) error {
			u.Status = status
			return nil
		})
		if errors.Is(err, pgx.ErrNoRows) {
			return utils.NewNotFoundError(utils.ErrUnitNotFound, "unit", *a.UnitID)
		}
		return err
	}
	err := tx.Properties().UpdateWithRetry(ctx, a.PropertyID, func(p *models.Property) error {
		p.Status = status
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return utils.NewNotFoundError(utils.ErrPropertyNotFound, "property", a.PropertyID)
	}
	return err
}

// outbox collects notifications inside a transaction; they are published
// only once the transaction has committed.
type outbox struct {
	events []eventbus.Event
}

func (o *outbox) notify(agreementID uuid.UUID, at time.Time, userID *uuid.UUID, title, body string) {
	if userID == nil || *userID == uuid.Nil {
		return
	}
	o.events = append(o.events, eventbus.NewNotificationEvent(agreementID, at, eventbus.NotificationRequested{
		UserID: *userID,
		Title:  title,
		Body:   body,
	}))
}

func (o *outbox) notifyParties(a *models.RentalAgreement, at time.Time, title, tenantBody, landlordBody string) {
	o.notify(a.ID, at, a.TenantID, title, tenantBody)
	owner := a.OwnerID
	o.notify(a.ID, at, &owner, title, landlordBody)
}

func (o *outbox) flush(ctx context.Context, pub eventbus.Publisher) {
	if pub == nil {
		return
	}
	for _, evt := range o.events {
		pub.Publish(ctx, evt)
	}
	o.events = nil
}

func graceDaysOrDefault(days, def int) int {
	if days <= 0 {
		return def
	}
	return days
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func formatDate(t time.Time) string {
	return t.Format("01/02/2006")
}
