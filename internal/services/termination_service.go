package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/leasing-service/internal/constants"
	"github.com/poofware/leasing-service/internal/eventbus"
	"github.com/poofware/leasing-service/internal/lifecycle"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/utils"
)

type EvidenceFile struct {
	Name string
	URL  string
}

type TerminationInput struct {
	AgreementID   uuid.UUID
	InitiatorID   uuid.UUID
	InitiatorRole models.Role
	Reason        models.TerminationReason
	Description   *string
	GraceDays     int
	Evidence      *EvidenceFile
}

type TerminationResult struct {
	AgreementID        uuid.UUID  `json:"agreement_id"`
	EvictionLogID      *uuid.UUID `json:"eviction_log_id,omitempty"`
	BreachLogID        *uuid.UUID `json:"breach_log_id,omitempty"`
	GracePeriodEnd     *time.Time `json:"grace_period_end,omitempty"`
	AwaitingAcceptance bool       `json:"awaiting_acceptance"`
}

type BreachReviewInput struct {
	BreachLogID uuid.UUID
	AdminID     uuid.UUID
	AdminRole   models.Role
	Outcome     models.BreachStatus
	RemedyDays  int
	Notes       *string
}

// TerminationRefKind says which record a TerminationRef points at.
type TerminationRefKind string

const (
	TerminationRefEviction  TerminationRefKind = "eviction"
	TerminationRefBreach    TerminationRefKind = "breach"
	TerminationRefAgreement TerminationRefKind = "agreement"
)

func (k TerminationRefKind) IsValid() bool {
	switch k {
	case TerminationRefEviction, TerminationRefBreach, TerminationRefAgreement:
		return true
	}
	return false
}

type TerminationRef struct {
	Kind TerminationRefKind
	ID   uuid.UUID
}

type ConfirmResult struct {
	AgreementID uuid.UUID              `json:"agreement_id"`
	Status      models.AgreementStatus `json:"status"`
}

type CancelResult struct {
	AgreementID uuid.UUID `json:"agreement_id"`
	Status      string    `json:"status"`
}

// TerminationService runs every termination path: eviction logs with a
// grace period, admin-reviewed breach logs, and mutual requests.
type TerminationService struct {
	store  repositories.Store
	events eventbus.Publisher
	now    clock
}

func NewTerminationService(store repositories.Store, events eventbus.Publisher) *TerminationService {
	return &TerminationService{store: store, events: events, now: utcNow}
}

/* ───────────── initiate ───────────── */

func validateTerminationInput(in TerminationInput) error {
	if !in.Reason.IsValid() {
		return utils.NewValidationError("reason", fmt.Sprintf("unknown termination reason %q", in.Reason))
	}
	if in.GraceDays < 0 || in.GraceDays > constants.MaxGracePeriodDays {
		return utils.NewValidationError("grace_days",
			fmt.Sprintf("must be between 0 and %d", constants.MaxGracePeriodDays))
	}
	if in.Reason.IsBreach() && (in.Evidence == nil || in.Evidence.Name == "" || in.Evidence.URL == "") {
		return utils.NewForbiddenError(utils.ErrEvidenceRequired, "an evidence file is required for this termination reason")
	}
	return nil
}

// InitiateTermination starts a termination on an active agreement. The
// reason decides which log, if any, is created.
func (s *TerminationService) InitiateTermination(ctx context.Context, in TerminationInput) (*TerminationResult, error) {
	if err := validateTerminationInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	out := &outbox{}
	res := &TerminationResult{AgreementID: in.AgreementID}

	err := s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		a, err := lockAgreement(ctx, tx, in.AgreementID)
		if err != nil {
			return err
		}
		if a.Status != models.AgreementStatusActive {
			return wrongStatus(a, models.AgreementStatusActive)
		}
		if a.TerminationRequestedAt != nil {
			return utils.NewForbiddenError(utils.ErrWrongStatus, "a termination is already pending for this rental agreement")
		}
		if in.Reason == models.TerminationMutualAgreement {
			if err := requireParty(a, in.InitiatorID, in.InitiatorRole); err != nil {
				return err
			}
		} else if err := requireOwner(a, in.InitiatorID, in.InitiatorRole); err != nil {
			return err
		}

		reason := in.Reason
		initiator := in.InitiatorID
		role := in.InitiatorRole
		requestedAt := now
		a.TerminationReason = &reason
		a.TerminationRequestedBy = &initiator
		a.TerminationRequesterRole = &role
		a.TerminationRequestedAt = &requestedAt
		a.TerminationDescription = in.Description

		switch {
		case in.Reason == models.TerminationNonPayment:
			unpaid, err := tx.Payments().MostRecentUnpaid(ctx, a.ID)
			if err != nil {
				return err
			}
			if unpaid == nil || now.Before(unpaid.DueDate.AddDate(0, constants.NonPaymentOverdueMonths, 0)) {
				return utils.NewForbiddenError(utils.ErrNotEligible,
					"no unpaid rent is at least one month overdue on this rental agreement")
			}
			if err := s.openEviction(ctx, tx, a, in, now, res, out); err != nil {
				return err
			}

		case in.Reason.IsBreach():
			b := &models.BreachLog{
				ID:                uuid.New(),
				RentalAgreementID: a.ID,
				Reason:            in.Reason,
				Status:            models.BreachStatusWarning,
				ReportedBy:        in.InitiatorID,
				Description:       in.Description,
				EvidenceFileName:  in.Evidence.Name,
				EvidenceFileURL:   in.Evidence.URL,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := tx.Breaches().Create(ctx, b); err != nil {
				return err
			}
			res.BreachLogID = &b.ID
			out.notifyParties(a, now, "Breach reported",
				fmt.Sprintf("Your landlord reported a %s on your lease. An administrator will review it.", breachLabel(in.Reason)),
				"Your breach report was submitted and is awaiting administrator review.",
			)

		case in.Reason == models.TerminationOwnerRequirement:
			if err := CheckRefundGate(ctx, tx, a.ID, now); err != nil {
				return err
			}
			if err := s.openEviction(ctx, tx, a, in, now, res, out); err != nil {
				return err
			}

		case in.Reason == models.TerminationMutualAgreement:
			if in.InitiatorRole == models.RoleLandlord {
				a.LandlordAcceptedTermination = true
			} else {
				a.TenantAcceptedTermination = true
			}
			res.AwaitingAcceptance = true
			other := a.TenantID
			if in.InitiatorRole == models.RoleTenant {
				owner := a.OwnerID
				other = &owner
			}
			out.notify(a.ID, now, other, "Mutual termination requested",
				"The other party asked to end your rental agreement by mutual agreement. Accept the request to proceed.")
		}

		return tx.Agreements().Save(ctx, a)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"agreement_id": in.AgreementID,
		"reason":       in.Reason,
		"initiator":    in.InitiatorID,
	}).Info("Termination initiated")
	out.flush(ctx, s.events)
	return res, nil
}

func (s *TerminationService) openEviction(
	ctx context.Context,
	tx repositories.UnitOfWork,
	a *models.RentalAgreement,
	in TerminationInput,
	now time.Time,
	res *TerminationResult,
	out *outbox,
) error {
	e := newEvictionLog(a, in.Reason, in.InitiatorID, in.InitiatorRole, in.Description,
		graceDaysOrDefault(in.GraceDays, constants.DefaultGracePeriodDays), now)
	if err := tx.Evictions().Create(ctx, e); err != nil {
		return err
	}
	res.EvictionLogID = &e.ID
	res.GracePeriodEnd = &e.GracePeriodEnd
	notifyEvictionWarning(out, a, e, now)
	return nil
}

func newEvictionLog(
	a *models.RentalAgreement,
	reason models.TerminationReason,
	initiator uuid.UUID,
	role models.Role,
	description *string,
	graceDays int,
	now time.Time,
) *models.EvictionLog {
	return &models.EvictionLog{
		ID:                uuid.New(),
		RentalAgreementID: a.ID,
		Reason:            reason,
		Status:            models.EvictionStatusWarning,
		InitiatedBy:       initiator,
		InitiatorRole:     role,
		Description:       description,
		WarningSentAt:     now,
		GracePeriodEnd:    now.AddDate(0, 0, graceDays),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func notifyEvictionWarning(out *outbox, a *models.RentalAgreement, e *models.EvictionLog, now time.Time) {
	end := formatDate(e.GracePeriodEnd)
	out.notifyParties(a, now, "Termination notice",
		fmt.Sprintf("Your rental agreement will be terminated (%s) after the grace period ends on %s.", e.Reason, end),
		fmt.Sprintf("A termination notice (%s) was issued. The grace period ends on %s.", e.Reason, end),
	)
}

/* ───────────── mutual acceptance ───────────── */

// AcceptMutualTermination records the other party's consent. Once both
// parties agree the refund gate runs and an eviction log is opened; if the
// gate blocks, the acceptance is not kept.
func (s *TerminationService) AcceptMutualTermination(ctx context.Context, agreementID, userID uuid.UUID, role models.Role) (*TerminationResult, error) {
	now := s.now()
	out := &outbox{}
	res := &TerminationResult{AgreementID: agreementID}

	err := s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		a, err := lockAgreement(ctx, tx, agreementID)
		if err != nil {
			return err
		}
		if a.Status != models.AgreementStatusActive {
			return wrongStatus(a, models.AgreementStatusActive)
		}
		if a.TerminationRequestedAt == nil || utils.Val(a.TerminationReason) != models.TerminationMutualAgreement {
			return utils.NewForbiddenError(utils.ErrWrongStatus, "no mutual termination request is pending")
		}
		if err := requireParty(a, userID, role); err != nil {
			return err
		}
		open, err := tx.Evictions().GetOpenByAgreement(ctx, a.ID)
		if err != nil {
			return err
		}
		if open != nil {
			return utils.NewForbiddenError(utils.ErrWrongStatus, "mutual termination was already accepted by both parties")
		}

		if role == models.RoleLandlord {
			a.LandlordAcceptedTermination = true
		} else {
			a.TenantAcceptedTermination = true
		}

		if !a.LandlordAcceptedTermination || !a.TenantAcceptedTermination {
			res.AwaitingAcceptance = true
			return tx.Agreements().Save(ctx, a)
		}

		if err := CheckRefundGate(ctx, tx, a.ID, now); err != nil {
			return err
		}
		e := newEvictionLog(a, models.TerminationMutualAgreement, utils.Val(a.TerminationRequestedBy),
			utils.Val(a.TerminationRequesterRole), a.TerminationDescription, constants.DefaultGracePeriodDays, now)
		if err := tx.Evictions().Create(ctx, e); err != nil {
			return err
		}
		res.EvictionLogID = &e.ID
		res.GracePeriodEnd = &e.GracePeriodEnd
		notifyEvictionWarning(out, a, e, now)
		return tx.Agreements().Save(ctx, a)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"agreement_id": agreementID,
		"user_id":      userID,
		"awaiting":     res.AwaitingAcceptance,
	}).Info("Mutual termination accepted")
	out.flush(ctx, s.events)
	return res, nil
}

/* ───────────── breach review ───────────── */

// ReviewBreach records an admin decision on a breach log.
func (s *TerminationService) ReviewBreach(ctx context.Context, in BreachReviewInput) (*models.BreachLog, error) {
	if in.AdminRole != models.RoleAdmin {
		return nil, utils.NewForbiddenError(utils.ErrRoleNotAllowed, "only an administrator may review a breach")
	}
	ev, ok := lifecycle.BreachReviewEvent(in.Outcome)
	if !ok {
		return nil, utils.NewValidationError("outcome", fmt.Sprintf("unsupported review outcome %q", in.Outcome))
	}
	if in.RemedyDays < 0 || in.RemedyDays > constants.MaxGracePeriodDays {
		return nil, utils.NewValidationError("remedy_days",
			fmt.Sprintf("must be between 0 and %d", constants.MaxGracePeriodDays))
	}

	now := s.now()
	out := &outbox{}
	var reviewed *models.BreachLog

	err := s.withBreach(ctx, in.BreachLogID, func(tx repositories.UnitOfWork, a *models.RentalAgreement, b *models.BreachLog) error {
		if a.Status != models.AgreementStatusActive {
			return wrongStatus(a, models.AgreementStatusActive)
		}
		if err := transitionBreach(b, ev); err != nil {
			return err
		}
		admin := in.AdminID
		reviewedAt := now
		b.ReviewedBy = &admin
		b.ReviewedAt = &reviewedAt
		b.AdminNotes = in.Notes
		b.UpdatedAt = now

		switch b.Status {
		case models.BreachStatusPendingRemedy:
			deadline := now.AddDate(0, 0, graceDaysOrDefault(in.RemedyDays, constants.DefaultRemedyPeriodDays))
			b.RemedyDeadline = &deadline
			out.notifyParties(a, now, "Breach review: remedy required",
				"An administrator reviewed the reported breach. Please remedy it by "+formatDate(deadline)+".",
				"An administrator required the tenant to remedy the breach by "+formatDate(deadline)+".",
			)
		case models.BreachStatusEvictionRecommended:
			a.DidAdminApproveBreach = true
			out.notifyParties(a, now, "Breach review: eviction recommended",
				"An administrator reviewed the reported breach and recommended eviction.",
				"An administrator approved the breach report. You may now confirm the eviction.",
			)
		case models.BreachStatusResolved:
			resolvedAt := now
			b.ResolvedAt = &resolvedAt
			clearTermination(a)
			out.notifyParties(a, now, "Breach review: resolved",
				"An administrator marked the reported breach as resolved.",
				"An administrator marked the breach report as resolved.",
			)
		}

		if err := tx.Breaches().Save(ctx, b); err != nil {
			return err
		}
		reviewed = b
		return tx.Agreements().Save(ctx, a)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"breach_log_id": in.BreachLogID,
		"outcome":       in.Outcome,
		"admin_id":      in.AdminID,
	}).Info("Breach reviewed")
	out.flush(ctx, s.events)
	return reviewed, nil
}

// ResolveBreach lets the reporting landlord withdraw a breach as remedied.
func (s *TerminationService) ResolveBreach(ctx context.Context, breachLogID, landlordID uuid.UUID, role models.Role) (*models.BreachLog, error) {
	now := s.now()
	out := &outbox{}
	var resolved *models.BreachLog

	err := s.withBreach(ctx, breachLogID, func(tx repositories.UnitOfWork, a *models.RentalAgreement, b *models.BreachLog) error {
		if err := requireOwner(a, landlordID, role); err != nil {
			return err
		}
		if a.Status != models.AgreementStatusActive {
			return wrongStatus(a, models.AgreementStatusActive)
		}
		if err := transitionBreach(b, lifecycle.BreachResolve); err != nil {
			return err
		}
		resolvedAt := now
		b.ResolvedAt = &resolvedAt
		b.UpdatedAt = now
		clearTermination(a)
		if err := tx.Breaches().Save(ctx, b); err != nil {
			return err
		}
		out.notifyParties(a, now, "Breach resolved",
			"Your landlord marked the reported breach as resolved.",
			"You marked the breach report as resolved.",
		)
		resolved = b
		return tx.Agreements().Save(ctx, a)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	utils.Logger.WithField("breach_log_id", breachLogID).Info("Breach resolved by landlord")
	out.flush(ctx, s.events)
	return resolved, nil
}

/* ───────────── confirm ───────────── */

// ConfirmEviction finalizes a termination. Breach logs need an approved
// eviction recommendation and a passing refund gate; eviction logs need an
// elapsed grace period.
func (s *TerminationService) ConfirmEviction(ctx context.Context, ref TerminationRef, confirmerID uuid.UUID, role models.Role) (*ConfirmResult, error) {
	now := s.now()
	out := &outbox{}
	var res *ConfirmResult

	var err error
	switch ref.Kind {
	case TerminationRefBreach:
		err = s.withBreach(ctx, ref.ID, func(tx repositories.UnitOfWork, a *models.RentalAgreement, b *models.BreachLog) error {
			if err := requireOwnerOrAdmin(a, confirmerID, role); err != nil {
				return err
			}
			if b.Status != models.BreachStatusEvictionRecommended || !a.DidAdminApproveBreach {
				return utils.NewForbiddenError(utils.ErrBreachNotApproved,
					"eviction has not been recommended by an administrator for this breach")
			}
			if err := CheckRefundGate(ctx, tx, a.ID, now); err != nil {
				return err
			}
			if err := finalizeTermination(ctx, tx, a, now, out); err != nil {
				return err
			}
			if err := transitionBreach(b, lifecycle.BreachConfirmEviction); err != nil {
				return err
			}
			finalizedAt := now
			b.FinalizedAt = &finalizedAt
			b.UpdatedAt = now
			res = &ConfirmResult{AgreementID: a.ID, Status: a.Status}
			return tx.Breaches().Save(ctx, b)
		})

	case TerminationRefEviction:
		err = s.withEviction(ctx, ref.ID, func(tx repositories.UnitOfWork, a *models.RentalAgreement, e *models.EvictionLog) error {
			if err := requireOwnerOrAdmin(a, confirmerID, role); err != nil {
				return err
			}
			if !lifecycle.CanEviction(e.Status, lifecycle.EvictionFinalize) {
				return utils.NewForbiddenError(utils.ErrWrongStatus,
					fmt.Sprintf("eviction log %s is %s", e.ID, e.Status))
			}
			if now.Before(e.GracePeriodEnd) {
				return utils.NewForbiddenError(utils.ErrGracePeriodActive,
					"the grace period ends on "+formatDate(e.GracePeriodEnd))
			}
			if err := evictAgreement(ctx, tx, a, e, now, out); err != nil {
				return err
			}
			res = &ConfirmResult{AgreementID: a.ID, Status: a.Status}
			return nil
		})

	default:
		return nil, utils.NewValidationError("kind", "only eviction and breach logs can be confirmed")
	}
	if err != nil {
		return nil, toAppError(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"ref_kind":     ref.Kind,
		"ref_id":       ref.ID,
		"agreement_id": res.AgreementID,
		"confirmed_by": confirmerID,
	}).Info("Eviction confirmed")
	out.flush(ctx, s.events)
	return res, nil
}

// evictAgreement finalizes the agreement and closes e in the same transaction.
func evictAgreement(ctx context.Context, tx repositories.UnitOfWork, a *models.RentalAgreement, e *models.EvictionLog, now time.Time, out *outbox) error {
	if a.Status != models.AgreementStatusActive {
		return wrongStatus(a, models.AgreementStatusActive)
	}
	if err := finalizeTermination(ctx, tx, a, now, out); err != nil {
		return err
	}
	if err := transitionEviction(e, lifecycle.EvictionFinalize); err != nil {
		return err
	}
	finalizedAt := now
	e.FinalizedAt = &finalizedAt
	e.UpdatedAt = now
	return tx.Evictions().Save(ctx, e)
}

/* ───────────── cancel ───────────── */

// CancelTermination withdraws a pending termination and clears the
// agreement's termination request.
func (s *TerminationService) CancelTermination(ctx context.Context, ref TerminationRef, cancellerID uuid.UUID, role models.Role, reason *string) (*CancelResult, error) {
	now := s.now()
	out := &outbox{}
	res := &CancelResult{}

	var err error
	switch ref.Kind {
	case TerminationRefEviction:
		err = s.withEviction(ctx, ref.ID, func(tx repositories.UnitOfWork, a *models.RentalAgreement, e *models.EvictionLog) error {
			if !lifecycle.CanEviction(e.Status, lifecycle.EvictionCancel) {
				return utils.NewForbiddenError(utils.ErrWrongStatus,
					fmt.Sprintf("eviction log %s is %s", e.ID, e.Status))
			}
			if !now.Before(e.GracePeriodEnd) {
				return utils.NewForbiddenError(utils.ErrGracePeriodExpired,
					"the grace period ended on "+formatDate(e.GracePeriodEnd))
			}
			if !(e.Reason == models.TerminationMutualAgreement && role == models.RoleTenant && a.IsTenant(cancellerID)) {
				if err := requireOwnerOrAdmin(a, cancellerID, role); err != nil {
					return err
				}
			}
			if err := transitionEviction(e, lifecycle.EvictionCancel); err != nil {
				return err
			}
			canceller := cancellerID
			e.CancelledBy = &canceller
			e.CancelReason = reason
			e.UpdatedAt = now
			if err := tx.Evictions().Save(ctx, e); err != nil {
				return err
			}
			res.AgreementID = a.ID
			res.Status = string(e.Status)
			clearTermination(a)
			notifyCancelled(out, a, now)
			return tx.Agreements().Save(ctx, a)
		})

	case TerminationRefBreach:
		err = s.withBreach(ctx, ref.ID, func(tx repositories.UnitOfWork, a *models.RentalAgreement, b *models.BreachLog) error {
			if err := requireOwnerOrAdmin(a, cancellerID, role); err != nil {
				return err
			}
			if err := transitionBreach(b, lifecycle.BreachCancel); err != nil {
				return err
			}
			b.AdminNotes = appendNote(b.AdminNotes, reason)
			b.UpdatedAt = now
			if err := tx.Breaches().Save(ctx, b); err != nil {
				return err
			}
			res.AgreementID = a.ID
			res.Status = string(b.Status)
			clearTermination(a)
			notifyCancelled(out, a, now)
			return tx.Agreements().Save(ctx, a)
		})

	case TerminationRefAgreement:
		err = s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
			a, err := lockAgreement(ctx, tx, ref.ID)
			if err != nil {
				return err
			}
			if err := requireParty(a, cancellerID, role); err != nil {
				return err
			}
			if a.TerminationRequestedAt == nil || utils.Val(a.TerminationReason) != models.TerminationMutualAgreement {
				return utils.NewForbiddenError(utils.ErrWrongStatus, "no mutual termination request is pending")
			}
			open, err := tx.Evictions().GetOpenByAgreement(ctx, a.ID)
			if err != nil {
				return err
			}
			if open != nil {
				return utils.NewForbiddenError(utils.ErrWrongStatus,
					"mutual termination was already accepted; cancel its eviction log instead")
			}
			res.AgreementID = a.ID
			res.Status = string(models.EvictionStatusCancelled)
			clearTermination(a)
			notifyCancelled(out, a, now)
			return tx.Agreements().Save(ctx, a)
		})

	default:
		return nil, utils.NewValidationError("kind", fmt.Sprintf("unknown termination reference kind %q", ref.Kind))
	}
	if err != nil {
		return nil, toAppError(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"ref_kind":     ref.Kind,
		"ref_id":       ref.ID,
		"cancelled_by": cancellerID,
	}).Info("Termination cancelled")
	out.flush(ctx, s.events)
	return res, nil
}

/* ───────────── grace sweep ───────────── */

// AutoFinalizeExpiredGracePeriods finalizes every warning eviction log whose
// grace period ended before now, each in its own transaction. Failures are
// logged and skipped; the count of finalized agreements is returned.
func (s *TerminationService) AutoFinalizeExpiredGracePeriods(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.store.Evictions().ListExpiredWarnings(ctx, now)
	if err != nil {
		return 0, toAppError(err)
	}

	finalized := 0
	for _, candidate := range expired {
		if ctx.Err() != nil {
			return finalized, ctx.Err()
		}
		out := &outbox{}
		err := s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
			a, e, err := lockEvictionPair(ctx, tx, candidate)
			if err != nil {
				return err
			}
			if e.Status != models.EvictionStatusWarning || now.Before(e.GracePeriodEnd) {
				return errSkip
			}
			if a.Status != models.AgreementStatusActive {
				return errSkip
			}
			return evictAgreement(ctx, tx, a, e, now, out)
		})
		switch {
		case errorsIsSkip(err):
			continue
		case err != nil:
			utils.Logger.WithError(err).WithFields(logrus.Fields{
				"eviction_log_id": candidate.ID,
				"agreement_id":    candidate.RentalAgreementID,
			}).Error("Failed to auto-finalize expired eviction")
			continue
		}
		finalized++
		out.flush(ctx, s.events)
	}

	if finalized > 0 {
		utils.Logger.WithField("finalized", finalized).Info("Auto-finalized expired grace periods")
	}
	return finalized, nil
}

/* ───────────── internals ───────────── */

// withEviction locks the agreement, then the eviction log, and runs fn.
func (s *TerminationService) withEviction(
	ctx context.Context,
	logID uuid.UUID,
	fn func(tx repositories.UnitOfWork, a *models.RentalAgreement, e *models.EvictionLog) error,
) error {
	e, err := s.store.Evictions().GetByID(ctx, logID)
	if err != nil {
		return err
	}
	if e == nil {
		return utils.NewNotFoundError(utils.ErrEvictionLogNotFound, "eviction log", logID)
	}
	return s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		a, locked, err := lockEvictionPair(ctx, tx, e)
		if err != nil {
			return err
		}
		return fn(tx, a, locked)
	})
}

func lockEvictionPair(ctx context.Context, tx repositories.UnitOfWork, e *models.EvictionLog) (*models.RentalAgreement, *models.EvictionLog, error) {
	a, err := lockAgreement(ctx, tx, e.RentalAgreementID)
	if err != nil {
		return nil, nil, err
	}
	locked, err := tx.Evictions().GetByIDForUpdate(ctx, e.ID)
	if err != nil {
		return nil, nil, err
	}
	if locked == nil {
		return nil, nil, utils.NewNotFoundError(utils.ErrEvictionLogNotFound, "eviction log", e.ID)
	}
	return a, locked, nil
}

// withBreach locks the agreement, then the breach log, and runs fn.
func (s *TerminationService) withBreach(
	ctx context.Context,
	logID uuid.UUID,
	fn func(tx repositories.UnitOfWork, a *models.RentalAgreement, b *models.BreachLog) error,
) error {
	b, err := s.store.Breaches().GetByID(ctx, logID)
	if err != nil {
		return err
	}
	if b == nil {
		return utils.NewNotFoundError(utils.ErrBreachLogNotFound, "breach log", logID)
	}
	return s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		a, err := lockAgreement(ctx, tx, b.RentalAgreementID)
		if err != nil {
			return err
		}
		locked, err := tx.Breaches().GetByIDForUpdate(ctx, logID)
		if err != nil {
			return err
		}
		if locked == nil {
			return utils.NewNotFoundError(utils.ErrBreachLogNotFound, "breach log", logID)
		}
		return fn(tx, a, locked)
	})
}

func transitionEviction(e *models.EvictionLog, ev lifecycle.Event) error {
	next, err := lifecycle.EvictionTransition(e.Status, ev)
	if err != nil {
		return err
	}
	e.Status = next
	return nil
}

func transitionBreach(b *models.BreachLog, ev lifecycle.Event) error {
	next, err := lifecycle.BreachTransition(b.Status, ev)
	if err != nil {
		return err
	}
	b.Status = next
	return nil
}

// requireParty accepts the owning landlord or the attached tenant.
func requireParty(a *models.RentalAgreement, userID uuid.UUID, role models.Role) error {
	switch role {
	case models.RoleLandlord:
		return requireOwner(a, userID, role)
	case models.RoleTenant:
		return requireTenant(a, userID)
	}
	return utils.NewForbiddenError(utils.ErrRoleNotAllowed, "only the landlord or tenant may perform this action")
}

func requireOwnerOrAdmin(a *models.RentalAgreement, userID uuid.UUID, role models.Role) error {
	if role == models.RoleAdmin {
		return nil
	}
	return requireOwner(a, userID, role)
}

func clearTermination(a *models.RentalAgreement) {
	a.ClearTerminationRequest()
	a.DidAdminApproveBreach = false
}

func notifyCancelled(out *outbox, a *models.RentalAgreement, now time.Time) {
	out.notifyParties(a, now, "Termination cancelled",
		"The pending termination of your rental agreement was cancelled.",
		"The pending termination of the rental agreement was cancelled.",
	)
}

func appendNote(existing, note *string) *string {
	if note == nil || *note == "" {
		return existing
	}
	if existing == nil || *existing == "" {
		n := *note
		return &n
	}
	joined := *existing + "\n" + *note
	return &joined
}

func breachLabel(r models.TerminationReason) string {
	if r == models.TerminationIllegalActivity {
		return "illegal activity"
	}
	return "breach of agreement"
}
