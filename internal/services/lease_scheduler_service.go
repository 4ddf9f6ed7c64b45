package services

import (
	"context"
	"time"

	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/poofware/leasing-service/internal/constants"
	"github.com/poofware/leasing-service/internal/utils"
)

// LeaseSchedulerService runs the periodic lease jobs.
type LeaseSchedulerService struct {
	terminations *TerminationService
	rentCycles   *RentCycleService
	agreements   *AgreementService
	now          clock
}

func NewLeaseSchedulerService(
	terminations *TerminationService,
	rentCycles *RentCycleService,
	agreements *AgreementService,
) *LeaseSchedulerService {
	return &LeaseSchedulerService{
		terminations: terminations,
		rentCycles:   rentCycles,
		agreements:   agreements,
		now:          utcNow,
	}
}

// RunGraceSweep finalizes eviction logs whose grace period has ended.
func (s *LeaseSchedulerService) RunGraceSweep(ctx context.Context) error {
	n, err := s.terminations.AutoFinalizeExpiredGracePeriods(ctx, s.now())
	if err != nil {
		return err
	}
	utils.Logger.WithField("finalized", n).Debug("Grace sweep finished")
	return nil
}

// RunDailyMaintenance is triggered once per day (around 00:05 UTC). Each
// step runs even if an earlier one failed; the first error is returned.
func (s *LeaseSchedulerService) RunDailyMaintenance(ctx context.Context) error {
	utils.Logger.Info("Running daily lease maintenance...")
	now := s.now()
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	overdue, err := s.rentCycles.MarkOverdueObligations(ctx, now)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to mark overdue obligations")
	}
	keep(err)

	generated, err := s.rentCycles.GenerateUpcomingRentObligations(ctx, now)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to generate upcoming rent obligations")
	}
	keep(err)

	completed, err := s.agreements.CompleteExpiredAgreements(ctx, now)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to complete expired agreements")
	}
	keep(err)

	utils.Logger.WithFields(logrus.Fields{
		"overdue":   overdue,
		"generated": generated,
		"completed": completed,
	}).Info("Daily lease maintenance finished")
	return firstErr
}

// Register adds the grace sweep (when enabled) and the daily maintenance
// job to c. An empty graceSchedule uses the default.
func (s *LeaseSchedulerService) Register(c *cron.Cron, graceSchedule string, graceEnabled bool) error {
	if graceEnabled {
		if graceSchedule == "" {
			graceSchedule = constants.DefaultGraceSweepSchedule
		}
		if _, err := c.AddFunc(graceSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if e := s.RunGraceSweep(ctx); e != nil {
				utils.Logger.WithError(e).Error("Scheduled grace sweep failed")
			}
		}); err != nil {
			return err
		}
	}

	_, err := c.AddFunc(constants.DailyMaintenanceSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if e := s.RunDailyMaintenance(ctx); e != nil {
			utils.Logger.WithError(e).Error("Scheduled daily maintenance failed")
		}
	})
	return err
}
