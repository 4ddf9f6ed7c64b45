package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/leasing-service/internal/eventbus"
	"github.com/poofware/leasing-service/internal/lifecycle"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/utils"
)

type CreateAgreementInput struct {
	OwnerID              uuid.UUID
	OwnerRole            models.Role
	PropertyID           uuid.UUID
	UnitID               *uuid.UUID
	TenantID             *uuid.UUID
	MonthlyRentCents     int64
	SecurityDepositCents int64
	StartDate            *time.Time
	EndDate              *time.Time
}

type AgreementService struct {
	store  repositories.Store
	events eventbus.Publisher
	now    clock
}

func NewAgreementService(store repositories.Store, events eventbus.Publisher) *AgreementService {
	return &AgreementService{store: store, events: events, now: utcNow}
}

// CreateAgreement drafts a lease for a property, or one of its units. Only
// one live agreement may exist per property/unit.
func (s *AgreementService) CreateAgreement(ctx context.Context, in CreateAgreementInput) (*models.RentalAgreement, error) {
	if in.OwnerRole != models.RoleLandlord {
		return nil, utils.NewForbiddenError(utils.ErrRoleNotAllowed, "only a landlord may create a rental agreement")
	}
	if in.MonthlyRentCents <= 0 {
		return nil, utils.NewValidationError("monthly_rent", "must be positive")
	}
	if in.SecurityDepositCents < 0 {
		return nil, utils.NewValidationError("security_deposit", "must not be negative")
	}
	if in.SecurityDepositCents > math.MaxInt64-in.MonthlyRentCents {
		return nil, utils.NewValidationError("security_deposit", "rent plus deposit is too large")
	}
	if in.StartDate != nil && in.EndDate != nil && !in.EndDate.After(*in.StartDate) {
		return nil, utils.NewValidationError("end_date", "must be after start_date")
	}

	prop, err := s.store.Properties().GetByID(ctx, in.PropertyID)
	if err != nil {
		return nil, toAppError(err)
	}
	if prop == nil {
		return nil, utils.NewNotFoundError(utils.ErrPropertyNotFound, "property", in.PropertyID)
	}
	if prop.OwnerID != in.OwnerID {
		return nil, utils.NewForbiddenError(utils.ErrNotAgreementOwner, "caller does not own this property")
	}
	if in.UnitID != nil {
		unit, err := s.store.Units().GetByID(ctx, *in.UnitID)
		if err != nil {
			return nil, toAppError(err)
		}
		if unit == nil || unit.PropertyID != prop.ID {
			return nil, utils.NewNotFoundError(utils.ErrUnitNotFound, "unit", *in.UnitID)
		}
	} else if prop.HasUnits {
		return nil, utils.NewValidationError("unit_id", "required for a property with units")
	}
	if in.TenantID != nil {
		if err := s.requireTenantUser(ctx, *in.TenantID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	a := &models.RentalAgreement{
		ID:                   uuid.New(),
		PropertyID:           in.PropertyID,
		UnitID:               in.UnitID,
		OwnerID:              in.OwnerID,
		TenantID:             in.TenantID,
		Status:               models.AgreementStatusDraft,
		MonthlyRentCents:     in.MonthlyRentCents,
		SecurityDepositCents: in.SecurityDepositCents,
		StartDate:            in.StartDate,
		EndDate:              in.EndDate,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		live, err := tx.Agreements().HasLiveAgreement(ctx, a.PropertyID, a.UnitID)
		if err != nil {
			return err
		}
		if live {
			return utils.NewForbiddenError(utils.ErrAgreementUnavailable,
				"the property already has a live rental agreement")
		}
		return tx.Agreements().Create(ctx, a)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"agreement_id": a.ID,
		"property_id":  a.PropertyID,
		"owner_id":     a.OwnerID,
	}).Info("Rental agreement drafted")
	return a, nil
}

// AssignTenant attaches or replaces the tenant while the agreement is
// still draft or ready.
func (s *AgreementService) AssignTenant(ctx context.Context, agreementID, ownerID uuid.UUID, role models.Role, tenantID uuid.UUID) (*models.RentalAgreement, error) {
	if err := s.requireTenantUser(ctx, tenantID); err != nil {
		return nil, err
	}
	out := &outbox{}
	now := s.now()
	a, err := s.mutate(ctx, agreementID, func(tx repositories.UnitOfWork, a *models.RentalAgreement) error {
		if err := requireOwner(a, ownerID, role); err != nil {
			return err
		}
		if !lifecycle.CanAttachTenant(a.Status) {
			return wrongStatus(a, models.AgreementStatusDraft)
		}
		t := tenantID
		a.TenantID = &t
		a.TenantAcceptedAgreement = false
		out.notify(a.ID, now, &t, "Rental agreement invitation",
			"You were added as the tenant on a rental agreement. Review and accept it to continue.")
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.flush(ctx, s.events)
	return a, nil
}

// MarkReady moves a draft with a tenant to ready for acceptance.
func (s *AgreementService) MarkReady(ctx context.Context, agreementID, ownerID uuid.UUID, role models.Role) (*models.RentalAgreement, error) {
	out := &outbox{}
	now := s.now()
	a, err := s.mutate(ctx, agreementID, func(tx repositories.UnitOfWork, a *models.RentalAgreement) error {
		if err := requireOwner(a, ownerID, role); err != nil {
			return err
		}
		if a.TenantID == nil {
			return utils.NewValidationError("tenant_id", "a tenant must be assigned before the agreement is ready")
		}
		if err := transitionAgreement(a, lifecycle.AgreementMarkReady); err != nil {
			return err
		}
		out.notify(a.ID, now, a.TenantID, "Rental agreement ready",
			"Your rental agreement is ready for your review and acceptance.")
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.flush(ctx, s.events)
	return a, nil
}

// AcceptAgreement is the tenant's acceptance; the agreement then waits for
// the initial payment.
func (s *AgreementService) AcceptAgreement(ctx context.Context, agreementID, tenantID uuid.UUID) (*models.RentalAgreement, error) {
	out := &outbox{}
	now := s.now()
	a, err := s.mutate(ctx, agreementID, func(tx repositories.UnitOfWork, a *models.RentalAgreement) error {
		if err := requireTenant(a, tenantID); err != nil {
			return err
		}
		if err := transitionAgreement(a, lifecycle.AgreementTenantAccept); err != nil {
			return err
		}
		a.TenantAcceptedAgreement = true
		owner := a.OwnerID
		out.notify(a.ID, now, &owner, "Rental agreement accepted",
			"The tenant accepted the rental agreement. It activates once the initial payment is made.")
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.flush(ctx, s.events)
	return a, nil
}

// CancelAgreement abandons an agreement that never became active.
func (s *AgreementService) CancelAgreement(ctx context.Context, agreementID, callerID uuid.UUID, role models.Role) (*models.RentalAgreement, error) {
	out := &outbox{}
	now := s.now()
	a, err := s.mutate(ctx, agreementID, func(tx repositories.UnitOfWork, a *models.RentalAgreement) error {
		if role != models.RoleAdmin {
			if err := requireOwner(a, callerID, role); err != nil {
				return err
			}
		}
		if err := transitionAgreement(a, lifecycle.AgreementCancel); err != nil {
			return err
		}
		out.notifyParties(a, now, "Rental agreement cancelled",
			"The rental agreement you were invited to was cancelled.",
			"The rental agreement was cancelled.",
		)
		a.TenantID = nil
		a.TenantAcceptedAgreement = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.flush(ctx, s.events)
	return a, nil
}

// CompleteExpiredAgreements completes active agreements whose end date has
// passed, cancels any termination still in progress and frees their unit.
// Failures are logged and skipped.
func (s *AgreementService) CompleteExpiredAgreements(ctx context.Context, now time.Time) (int, error) {
	active, err := s.store.Agreements().ListByStatus(ctx, models.AgreementStatusActive)
	if err != nil {
		return 0, toAppError(err)
	}
	completed := 0
	for _, candidate := range active {
		if candidate.EndDate == nil || now.Before(*candidate.EndDate) {
			continue
		}
		out := &outbox{}
		err := s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
			a, err := lockAgreement(ctx, tx, candidate.ID)
			if err != nil {
				return err
			}
			if a.Status != models.AgreementStatusActive || a.EndDate == nil || now.Before(*a.EndDate) {
				return errSkip
			}
			if err := transitionAgreement(a, lifecycle.AgreementComplete); err != nil {
				return err
			}
			if err := cancelOpenTerminations(ctx, tx, a.ID, now); err != nil {
				return err
			}
			clearTermination(a)
			a.UpdatedAt = now
			if err := tx.Agreements().Save(ctx, a); err != nil {
				return err
			}
			if _, err := tx.Payments().CancelOutstanding(ctx, a.ID); err != nil {
				return err
			}
			if err := setOccupancy(ctx, tx, a, models.OccupancyAvailable); err != nil {
				return err
			}
			out.notifyParties(a, now, "Lease completed",
				"Your lease ended on "+formatDate(*a.EndDate)+".",
				"The lease ended on "+formatDate(*a.EndDate)+". The property is available again.",
			)
			return nil
		})
		if errorsIsSkip(err) {
			continue
		}
		if err != nil {
			utils.Logger.WithError(err).WithField("agreement_id", candidate.ID).Error("Failed to complete expired agreement")
			continue
		}
		completed++
		out.flush(ctx, s.events)
	}
	if completed > 0 {
		utils.Logger.WithField("completed", completed).Info("Completed expired rental agreements")
	}
	return completed, nil
}

// cancelOpenTerminations closes eviction and breach logs left open on an
// agreement that ended on its own.
func cancelOpenTerminations(ctx context.Context, tx repositories.UnitOfWork, agreementID uuid.UUID, now time.Time) error {
	reason := "lease completed"
	e, err := tx.Evictions().GetOpenByAgreement(ctx, agreementID)
	if err != nil {
		return err
	}
	if e != nil {
		if err := transitionEviction(e, lifecycle.EvictionCancel); err != nil {
			return err
		}
		e.CancelReason = &reason
		e.UpdatedAt = now
		if err := tx.Evictions().Save(ctx, e); err != nil {
			return err
		}
	}
	b, err := tx.Breaches().GetOpenByAgreement(ctx, agreementID)
	if err != nil {
		return err
	}
	if b != nil {
		if err := transitionBreach(b, lifecycle.BreachCancel); err != nil {
			return err
		}
		b.AdminNotes = appendNote(b.AdminNotes, &reason)
		b.UpdatedAt = now
		if err := tx.Breaches().Save(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (s *AgreementService) GetAgreement(ctx context.Context, agreementID, callerID uuid.UUID, role models.Role) (*models.RentalAgreement, error) {
	a, err := loadAgreement(ctx, s.store, agreementID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && a.OwnerID != callerID && !a.IsTenant(callerID) {
		return nil, utils.NewForbiddenError(utils.ErrNotAgreementOwner, "caller is not a party to this rental agreement")
	}
	return a, nil
}

// mutate locks the agreement, applies fn and saves it in one transaction.
func (s *AgreementService) mutate(
	ctx context.Context,
	agreementID uuid.UUID,
	fn func(tx repositories.UnitOfWork, a *models.RentalAgreement) error,
) (*models.RentalAgreement, error) {
	var saved *models.RentalAgreement
	err := s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		a, err := lockAgreement(ctx, tx, agreementID)
		if err != nil {
			return err
		}
		if err := fn(tx, a); err != nil {
			return err
		}
		a.UpdatedAt = s.now()
		if err := tx.Agreements().Save(ctx, a); err != nil {
			return err
		}
		saved = a
		return nil
	})
	if err != nil {
		return nil, toAppError(err)
	}
	utils.Logger.WithFields(logrus.Fields{
		"agreement_id": saved.ID,
		"status":       saved.Status,
	}).Debug("Rental agreement updated")
	return saved, nil
}

func (s *AgreementService) requireTenantUser(ctx context.Context, tenantID uuid.UUID) error {
	u, err := s.store.Users().GetByID(ctx, tenantID)
	if err != nil {
		return toAppError(err)
	}
	if u == nil || u.Role != models.RoleTenant {
		return utils.NewNotFoundError(utils.ErrTenantNotFound, "tenant", tenantID)
	}
	return nil
}
