package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/poofware/leasing-service/internal/lifecycle"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/utils"
)

// finalizeTermination is the shared terminal step of every termination path.
// It runs inside the caller's transaction with the agreement already locked;
// the caller marks its own log evicted in the same transaction.
func finalizeTermination(
	ctx context.Context,
	tx repositories.UnitOfWork,
	a *models.RentalAgreement,
	at time.Time,
	out *outbox,
) error {
	if err := transitionAgreement(a, lifecycle.AgreementTerminate); err != nil {
		return err
	}
	effective := at
	a.TerminationEffectiveDate = &effective
	if err := tx.Agreements().Save(ctx, a); err != nil {
		return err
	}

	dep, err := tx.Deposits().GetByAgreementID(ctx, a.ID)
	if err != nil {
		return err
	}
	if dep != nil && (dep.Status == models.DepositStatusHeld || dep.Status == models.DepositStatusPartiallyRefunded) {
		dep.Status = models.DepositStatusForfeited
		if err := tx.Deposits().Save(ctx, dep); err != nil {
			return err
		}
	}

	cancelled, err := tx.Payments().CancelOutstanding(ctx, a.ID)
	if err != nil {
		return err
	}

	if err := setOccupancy(ctx, tx, a, models.OccupancyAvailable); err != nil {
		return err
	}

	utils.Logger.WithFields(logrus.Fields{
		"agreement_id":          a.ID,
		"reason":                utils.Val(a.TerminationReason),
		"cancelled_obligations": cancelled,
	}).Info("Rental agreement terminated")

	out.notifyParties(a, at, "Rental agreement terminated",
		"Your rental agreement was terminated effective "+formatDate(at)+".",
		"The rental agreement was terminated effective "+formatDate(at)+". The property is available again.",
	)
	return nil
}
