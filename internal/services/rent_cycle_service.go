package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/poofware/leasing-service/internal/billing"
	"github.com/poofware/leasing-service/internal/constants"
	"github.com/poofware/leasing-service/internal/eventbus"
	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/utils"
)

// RentCycleService keeps obligations in step with the calendar.
type RentCycleService struct {
	store  repositories.Store
	events eventbus.Publisher
}

func NewRentCycleService(store repositories.Store, events eventbus.Publisher) *RentCycleService {
	return &RentCycleService{store: store, events: events}
}

// MarkOverdueObligations flips pending obligations due before now to overdued.
func (s *RentCycleService) MarkOverdueObligations(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.Payments().MarkOverdue(ctx, now)
	if err != nil {
		return 0, toAppError(err)
	}
	if n > 0 {
		utils.Logger.WithField("count", n).Info("Marked rent obligations overdue")
	}
	return n, nil
}

// GenerateUpcomingRentObligations creates the next pending obligation for
// every active agreement whose latest billing cycle has ended, catching up
// on missed cycles. Re-running it for the same instant creates nothing.
func (s *RentCycleService) GenerateUpcomingRentObligations(ctx context.Context, now time.Time) (int, error) {
	active, err := s.store.Agreements().ListByStatus(ctx, models.AgreementStatusActive)
	if err != nil {
		return 0, toAppError(err)
	}

	created := 0
	for _, candidate := range active {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		out := &outbox{}
		n := 0
		err := s.store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
			a, err := lockAgreement(ctx, tx, candidate.ID)
			if err != nil {
				return err
			}
			if a.Status != models.AgreementStatusActive || a.MonthlyRentCents <= 0 {
				return errSkip
			}
			latest, err := tx.Payments().LatestDueDate(ctx, a.ID)
			if err != nil {
				return err
			}
			if latest == nil {
				return errSkip
			}

			due := billing.NextCycle(*latest)
			for i := 0; i < constants.MaxCatchUpCycles && !due.After(now); i++ {
				if a.EndDate != nil && !due.Before(*a.EndDate) {
					break
				}
				p := billing.NewObligation(a, due, a.MonthlyRentCents, now)
				inserted, err := tx.Payments().CreateIfNotExists(ctx, p)
				if err != nil {
					return err
				}
				if inserted {
					n++
					out.notify(a.ID, now, a.TenantID, "Rent due",
						"Rent of "+utils.FormatCents(p.DueAmountCents)+" is due for "+p.PeriodCovered+".")
				}
				due = billing.NextCycle(due)
			}
			return nil
		})
		if errorsIsSkip(err) {
			continue
		}
		if err != nil {
			utils.Logger.WithError(err).WithField("agreement_id", candidate.ID).Error("Failed to generate rent obligations")
			continue
		}
		if n > 0 {
			utils.Logger.WithFields(logrus.Fields{
				"agreement_id": candidate.ID,
				"created":      n,
			}).Info("Generated rent obligations")
		}
		created += n
		out.flush(ctx, s.events)
	}
	return created, nil
}
