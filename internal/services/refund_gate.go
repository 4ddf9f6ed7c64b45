package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/utils"
)

// RefundBlock lists the money that must be returned before a termination.
type RefundBlock struct {
	HeldDepositCents    int64 `json:"held_deposit_cents"`
	FutureRentPaidCents int64 `json:"future_rent_paid_cents"`
}

func (b RefundBlock) Blocking() bool {
	return b.HeldDepositCents > 0 || b.FutureRentPaidCents > 0
}

// CheckRefundGate fails with ErrRefundRequired while a security deposit is
// still held or completed rent exists for periods after asOf.
func CheckRefundGate(ctx context.Context, uow repositories.UnitOfWork, agreementID uuid.UUID, asOf time.Time) error {
	block, err := refundBlock(ctx, uow, agreementID, asOf)
	if err != nil {
		return err
	}
	if !block.Blocking() {
		return nil
	}

	var parts []string
	if block.HeldDepositCents > 0 {
		parts = append(parts, fmt.Sprintf("security deposit of %s is still held", utils.FormatCents(block.HeldDepositCents)))
	}
	if block.FutureRentPaidCents > 0 {
		parts = append(parts, fmt.Sprintf("advance rent of %s is paid for future periods", utils.FormatCents(block.FutureRentPaidCents)))
	}
	return utils.NewForbiddenError(utils.ErrRefundRequired,
		"refund required before termination: "+strings.Join(parts, "; "))
}

func refundBlock(ctx context.Context, uow repositories.UnitOfWork, agreementID uuid.UUID, asOf time.Time) (RefundBlock, error) {
	var block RefundBlock
	dep, err := uow.Deposits().GetByAgreementID(ctx, agreementID)
	if err != nil {
		return block, err
	}
	if dep != nil {
		block.HeldDepositCents = dep.HeldCents()
	}
	future, err := uow.Payments().SumFutureCompleted(ctx, agreementID, asOf)
	if err != nil {
		return block, err
	}
	block.FutureRentPaidCents = future
	return block, nil
}
