package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/poofware/leasing-service/internal/eventbus"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/utils"
)

type RefundDepositInput struct {
	AgreementID uuid.UUID
	LandlordID  uuid.UUID
	Role        models.Role
	// AmountCents of 0 refunds everything still held.
	AmountCents int64
}

type AdvanceRefundResult struct {
	AgreementID         uuid.UUID `json:"agreement_id"`
	RefundedObligations int64     `json:"refunded_obligations"`
	RefundedCents       int64     `json:"refunded_cents"`
}

// RefundService returns held money to the tenant so a termination can pass
// the refund gate.
type RefundService struct {
	store  repositories.Store
	events eventbus.Publisher
	now    clock
}

func NewRefundService(store repositories.Store, events eventbus.Publisher) *RefundService {
	return &RefundService{store: store, events: events, now: utcNow}
}

func (s *RefundService) RefundDeposit(ctx context.Context, in RefundDepositInput) (*models.SecurityDeposit, error) {
	if in.AmountCents < 0 {
		return nil, utils.NewValidationError("amount", "must not be negative")
	}

	now := s.now()
	out := &outbox{}
	var refunded *models.SecurityDeposit

	err := s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		a, err := lockAgreement(ctx, tx, in.AgreementID)
		if err != nil {
			return err
		}
		if err := requireOwner(a, in.LandlordID, in.Role); err != nil {
			return err
		}
		dep, err := tx.Deposits().GetByAgreementID(ctx, a.ID)
		if err != nil {
			return err
		}
		held := int64(0)
		if dep != nil {
			held = dep.HeldCents()
		}
		if held == 0 {
			return utils.NewForbiddenError(utils.ErrWrongStatus, "no security deposit is held for this rental agreement")
		}
		amount := in.AmountCents
		if amount == 0 {
			amount = held
		}
		if amount > held {
			return utils.NewValidationError("amount",
				fmt.Sprintf("exceeds the held deposit of %s", utils.FormatCents(held)))
		}

		dep.RefundedAmountCents += amount
		if dep.RefundedAmountCents >= dep.AmountCents {
			dep.Status = models.DepositStatusRefunded
		} else {
			dep.Status = models.DepositStatusPartiallyRefunded
		}
		dep.UpdatedAt = now
		if err := tx.Deposits().Save(ctx, dep); err != nil {
			return err
		}
		refunded = dep

		out.notifyParties(a, now, "Security deposit refunded",
			fmt.Sprintf("%s of your security deposit was refunded.", utils.FormatCents(amount)),
			fmt.Sprintf("You refunded %s of the security deposit.", utils.FormatCents(amount)),
		)
		return nil
	})
	if err != nil {
		return nil, toAppError(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"agreement_id": in.AgreementID,
		"status":       refunded.Status,
		"refunded":     utils.FormatCents(refunded.RefundedAmountCents),
	}).Info("Security deposit refunded")
	out.flush(ctx, s.events)
	return refunded, nil
}

// RefundAdvanceRent marks every completed obligation due after now as refunded.
func (s *RefundService) RefundAdvanceRent(ctx context.Context, agreementID, landlordID uuid.UUID, role models.Role) (*AdvanceRefundResult, error) {
	now := s.now()
	out := &outbox{}
	res := &AdvanceRefundResult{AgreementID: agreementID}

	err := s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		a, err := lockAgreement(ctx, tx, agreementID)
		if err != nil {
			return err
		}
		if err := requireOwner(a, landlordID, role); err != nil {
			return err
		}
		cents, err := tx.Payments().SumFutureCompleted(ctx, a.ID, now)
		if err != nil {
			return err
		}
		if cents == 0 {
			return utils.NewForbiddenError(utils.ErrWrongStatus, "no advance rent is paid for future periods")
		}
		n, err := tx.Payments().RefundFutureCompleted(ctx, a.ID, now)
		if err != nil {
			return err
		}
		res.RefundedObligations = n
		res.RefundedCents = cents

		out.notifyParties(a, now, "Advance rent refunded",
			fmt.Sprintf("%s of advance rent was refunded.", utils.FormatCents(cents)),
			fmt.Sprintf("You refunded %s of advance rent across %d periods.", utils.FormatCents(cents), n),
		)
		return nil
	})
	if err != nil {
		return nil, toAppError(err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"agreement_id": agreementID,
		"obligations":  res.RefundedObligations,
		"refunded":     utils.FormatCents(res.RefundedCents),
	}).Info("Advance rent refunded")
	out.flush(ctx, s.events)
	return res, nil
}
