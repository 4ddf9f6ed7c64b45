package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/leasing-service/internal/billing"
	"github.com/poofware/leasing-service/internal/constants"
	"github.com/poofware/leasing-service/internal/eventbus"
	"github.com/poofware/leasing-service/internal/lifecycle"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/utils"
)

type InitialPaymentInput struct {
	AgreementID uuid.UUID
	TenantID    uuid.UUID
	AmountCents int64
	Method      models.PaymentMethod
	Notes       *string
}

type InitialPaymentResult struct {
	Obligation      *models.RentPayment     `json:"obligation"`
	Deposit         *models.SecurityDeposit `json:"deposit"`
	AgreementStatus models.AgreementStatus  `json:"agreement_status"`
	Advances        []*models.RentPayment   `json:"advances,omitempty"`
	Partial         *models.RentPayment     `json:"partial,omitempty"`
}

type PaymentInput struct {
	AgreementID uuid.UUID
	CallerID    uuid.UUID
	CallerRole  models.Role
	AmountCents int64
	Method      models.PaymentMethod
	Notes       *string
}

type PaymentOutcome string

const (
	PaymentOutcomePartial PaymentOutcome = "partial"
	PaymentOutcomePaid    PaymentOutcome = "paid"
	PaymentOutcomeAdvance PaymentOutcome = "advance"
)

type PaymentResult struct {
	Status                 PaymentOutcome `json:"status"`
	TransactionID          *string        `json:"transaction_id,omitempty"`
	AllocatedObligationIDs []uuid.UUID    `json:"allocated_obligation_ids"`
	CreatedObligationIDs   []uuid.UUID    `json:"created_obligation_ids"`
	RemainingBalanceCents  int64          `json:"remaining_balance_cents"`
}

// PaymentService records rent payments. Every call is one transaction that
// locks the agreement first; notifications go out after commit.
type PaymentService struct {
	store   repositories.Store
	gateway PaymentGateway
	events  eventbus.Publisher
	now     clock
}

func NewPaymentService(store repositories.Store, gateway PaymentGateway, events eventbus.Publisher) *PaymentService {
	return &PaymentService{store: store, gateway: gateway, events: events, now: utcNow}
}

/* ───────────── initial payment ───────────── */

func checkInitialPayment(a *models.RentalAgreement, in InitialPaymentInput) error {
	if a.Status != models.AgreementStatusPendingPayment {
		return wrongStatus(a, models.AgreementStatusPendingPayment)
	}
	if !a.TenantAcceptedAgreement {
		return utils.NewForbiddenError(utils.ErrTenantNotAccepted, "tenant has not accepted the rental agreement")
	}
	if err := requireTenant(a, in.TenantID); err != nil {
		return err
	}
	if a.MonthlyRentCents <= 0 {
		return utils.NewServerError("rental agreement has no monthly rent", utils.ErrInvalidRent)
	}
	if a.SecurityDepositCents < 0 || a.SecurityDepositCents > math.MaxInt64-a.MonthlyRentCents {
		return utils.NewServerError("rental agreement rent plus deposit is out of range", utils.ErrInvalidRent)
	}
	required := a.MonthlyRentCents + a.SecurityDepositCents
	if in.AmountCents < required {
		return utils.NewForbiddenError(utils.ErrInsufficientAmount, fmt.Sprintf(
			"initial payment of %s is below first month's rent plus security deposit (%s)",
			utils.FormatCents(in.AmountCents), utils.FormatCents(required)))
	}
	return nil
}

// RecordInitialPayment activates a pending agreement: first month's rent,
// the security deposit, and any excess as advance/partial obligations.
func (s *PaymentService) RecordInitialPayment(ctx context.Context, in InitialPaymentInput) (*InitialPaymentResult, error) {
	if in.AmountCents <= 0 {
		return nil, utils.NewValidationError("amount", "must be positive")
	}
	if !in.Method.IsValid() {
		return nil, utils.NewValidationError("method", "unsupported payment method")
	}

	a, err := loadAgreement(ctx, s.store, in.AgreementID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.store.Users().GetByID(ctx, in.TenantID)
	if err != nil {
		return nil, toAppError(err)
	}
	if tenant == nil {
		return nil, utils.NewNotFoundError(utils.ErrTenantNotFound, "tenant", in.TenantID)
	}
	if err := checkInitialPayment(a, in); err != nil {
		return nil, err
	}

	meta := billing.PaymentMeta{Method: in.Method, Notes: in.Notes}
	charge, err := s.charge(ctx, in.Method, in.AmountCents, a.ID, "initial")
	if err != nil {
		return nil, err
	}
	if charge != nil {
		meta.TransactionID = charge.TransactionID
	}

	now := s.now()
	out := &outbox{}
	var res *InitialPaymentResult

	err = s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		a, err := lockAgreement(ctx, tx, in.AgreementID)
		if err != nil {
			return err
		}
		if err := checkInitialPayment(a, in); err != nil {
			return err
		}

		first := billing.PaidObligation(a, now, a.MonthlyRentCents, meta, now)

		depositTxn := meta.TransactionID
		if depositTxn == "" {
			depositTxn = billing.NewTransactionID()
		}
		deposit := &models.SecurityDeposit{
			ID:                uuid.New(),
			RentalAgreementID: a.ID,
			TenantID:          in.TenantID,
			AmountCents:       a.SecurityDepositCents,
			Status:            models.DepositStatusHeld,
			TransactionID:     &depositTxn,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		excess := in.AmountCents - a.MonthlyRentCents - a.SecurityDepositCents
		plan := billing.PlanPayment(a, nil, excess, meta, billing.NextCycle(now), now)
		applied := first.AmountPaidCents + deposit.AmountCents + plan.AppliedCents()
		if applied != in.AmountCents {
			return utils.NewServerError("payment allocation mismatch", fmt.Errorf(
				"%w: applied %d of %d cents", utils.ErrAllocationMismatch, applied, in.AmountCents))
		}

		if err := tx.Payments().CreateMany(ctx, append([]*models.RentPayment{first}, plan.Inserts()...)); err != nil {
			return err
		}
		if err := tx.Deposits().Create(ctx, deposit); err != nil {
			return err
		}

		if err := transitionAgreement(a, lifecycle.AgreementActivate); err != nil {
			return err
		}
		start := now
		a.StartDate = &start
		if a.EndDate == nil {
			end := now.AddDate(0, constants.DefaultLeaseMonths, 0)
			a.EndDate = &end
		}
		if err := tx.Agreements().Save(ctx, a); err != nil {
			return err
		}
		if err := setOccupancy(ctx, tx, a, models.OccupancyOccupied); err != nil {
			return err
		}

		res = &InitialPaymentResult{
			Obligation:      first,
			Deposit:         deposit,
			AgreementStatus: a.Status,
			Advances:        plan.Advances.Created,
			Partial:         plan.Partial,
		}

		amount := utils.FormatCents(in.AmountCents)
		out.notifyParties(a, now, "Lease activated",
			fmt.Sprintf("Your initial payment of %s was received. Your lease is now active.", amount),
			fmt.Sprintf("The tenant paid %s (first month's rent and security deposit). The lease is now active.", amount),
		)
		return nil
	})
	if err != nil {
		s.voidCharge(ctx, charge, err)
		return nil, toAppError(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"agreement_id": in.AgreementID,
		"amount":       utils.FormatCents(in.AmountCents),
		"advances":     len(res.Advances),
	}).Info("Initial payment recorded")
	out.flush(ctx, s.events)
	return res, nil
}

/* ───────────── manual / recurring payment ───────────── */

func checkPaymentCaller(a *models.RentalAgreement, in PaymentInput) error {
	if a.Status != models.AgreementStatusActive {
		return wrongStatus(a, models.AgreementStatusActive)
	}
	switch in.CallerRole {
	case models.RoleLandlord:
		if err := requireOwner(a, in.CallerID, in.CallerRole); err != nil {
			return err
		}
		if in.Method == models.PaymentMethodSimulated {
			return utils.NewValidationError("method", "landlords record manual payments only")
		}
	case models.RoleTenant:
		if err := requireTenant(a, in.CallerID); err != nil {
			return err
		}
		if in.Method != models.PaymentMethodSimulated {
			return utils.NewValidationError("method", "tenants pay through the payment gateway")
		}
	default:
		return utils.NewForbiddenError(utils.ErrRoleNotAllowed, "only the landlord or tenant may record a payment")
	}
	return nil
}

// RecordPayment applies a payment to an active agreement: outstanding
// obligations oldest first, then whole future cycles, then a trailing
// partial for the rest.
func (s *PaymentService) RecordPayment(ctx context.Context, in PaymentInput) (*PaymentResult, error) {
	if in.AmountCents <= 0 {
		return nil, utils.NewValidationError("amount", "must be positive")
	}
	if !in.Method.IsValid() {
		return nil, utils.NewValidationError("method", "unsupported payment method")
	}

	a, err := loadAgreement(ctx, s.store, in.AgreementID)
	if err != nil {
		return nil, err
	}
	if err := checkPaymentCaller(a, in); err != nil {
		return nil, err
	}

	meta := billing.PaymentMeta{Method: in.Method, Notes: in.Notes}
	charge, err := s.charge(ctx, in.Method, in.AmountCents, a.ID, "rent")
	if err != nil {
		return nil, err
	}
	if charge != nil {
		meta.TransactionID = charge.TransactionID
	}

	now := s.now()
	out := &outbox{}
	res := &PaymentResult{}

	err = s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		a, err := lockAgreement(ctx, tx, in.AgreementID)
		if err != nil {
			return err
		}
		if err := checkPaymentCaller(a, in); err != nil {
			return err
		}

		dues, err := tx.Payments().ListOutstandingForUpdate(ctx, a.ID)
		if err != nil {
			return err
		}
		advanceStart := now
		latest, err := tx.Payments().LatestDueDate(ctx, a.ID)
		if err != nil {
			return err
		}
		if latest != nil {
			advanceStart = billing.NextCycle(*latest)
		}

		plan := billing.PlanPayment(a, dues, in.AmountCents, meta, advanceStart, now)
		if plan.AppliedCents() != in.AmountCents {
			return utils.NewServerError("payment allocation mismatch", fmt.Errorf(
				"%w: applied %d of %d cents", utils.ErrAllocationMismatch, plan.AppliedCents(), in.AmountCents))
		}

		for _, p := range plan.Allocation.Updated {
			if err := tx.Payments().Save(ctx, p); err != nil {
				return err
			}
			res.AllocatedObligationIDs = append(res.AllocatedObligationIDs, p.ID)
		}
		inserts := plan.Inserts()
		if err := tx.Payments().CreateMany(ctx, inserts); err != nil {
			return err
		}
		for _, p := range inserts {
			res.CreatedObligationIDs = append(res.CreatedObligationIDs, p.ID)
		}

		res.RemainingBalanceCents = remainingBalance(dues, plan)
		switch {
		case plan.CreatedAdvance():
			res.Status = PaymentOutcomeAdvance
		case res.RemainingBalanceCents == 0:
			res.Status = PaymentOutcomePaid
		default:
			res.Status = PaymentOutcomePartial
		}
		if charge != nil {
			res.TransactionID = &charge.TransactionID
		}

		amount := utils.FormatCents(in.AmountCents)
		periods := coveredPeriods(plan)
		balance := utils.FormatCents(res.RemainingBalanceCents)
		out.notifyParties(a, now, "Rent payment recorded",
			fmt.Sprintf("A payment of %s was applied to %s. Remaining balance: %s.", amount, periods, balance),
			fmt.Sprintf("A rent payment of %s was recorded for %s. Outstanding balance: %s.", amount, periods, balance),
		)
		return nil
	})
	if err != nil {
		s.voidCharge(ctx, charge, err)
		return nil, toAppError(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"agreement_id": in.AgreementID,
		"amount":       utils.FormatCents(in.AmountCents),
		"status":       res.Status,
		"allocated":    len(res.AllocatedObligationIDs),
		"created":      len(res.CreatedObligationIDs),
	}).Info("Rent payment recorded")
	out.flush(ctx, s.events)
	return res, nil
}

/* ───────────── internals ───────────── */

func (s *PaymentService) charge(ctx context.Context, method models.PaymentMethod, amountCents int64, agreementID uuid.UUID, kind string) (*ChargeResult, error) {
	if method != models.PaymentMethodSimulated {
		return nil, nil
	}
	if s.gateway == nil {
		return nil, utils.NewServerError("payment gateway unavailable", utils.ErrExternalServiceFailure)
	}
	res, err := s.gateway.Charge(ctx, amountCents, map[string]string{
		"agreement_id": agreementID.String(),
		"kind":         kind,
	})
	if err != nil {
		return nil, utils.NewServerError("payment gateway error", fmt.Errorf("%w: %v", utils.ErrExternalServiceFailure, err))
	}
	if res.Status != ChargeSucceeded {
		return nil, utils.NewForbiddenError(utils.ErrGatewayDeclined, "payment was declined by the gateway")
	}
	return &res, nil
}

func (s *PaymentService) voidCharge(ctx context.Context, charge *ChargeResult, cause error) {
	if charge == nil || s.gateway == nil {
		return
	}
	if err := s.gateway.Void(ctx, charge.TransactionID); err != nil {
		utils.Logger.WithError(err).WithField("transaction_id", charge.TransactionID).
			Error("Failed to void charge after payment recording failed")
		return
	}
	utils.Logger.WithError(cause).WithField("transaction_id", charge.TransactionID).
		Warn("Voided charge because payment could not be recorded")
}

// remainingBalance is what the agreement still owes on the obligations that
// were outstanding before this payment.
func remainingBalance(dues []*models.RentPayment, plan billing.Plan) int64 {
	updated := make(map[uuid.UUID]*models.RentPayment, len(plan.Allocation.Updated))
	for _, p := range plan.Allocation.Updated {
		updated[p.ID] = p
	}
	var total int64
	for _, d := range dues {
		if u, ok := updated[d.ID]; ok {
			total += u.BalanceCents()
			continue
		}
		total += d.BalanceCents()
	}
	return total
}

func coveredPeriods(plan billing.Plan) string {
	var labels []string
	for _, p := range plan.Allocation.Updated {
		labels = append(labels, p.PeriodCovered)
	}
	for _, p := range plan.Inserts() {
		labels = append(labels, p.PeriodCovered)
	}
	if len(labels) == 0 {
		return "no periods"
	}
	return strings.Join(labels, ", ")
}

