package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
	"github.com/poofware/leasing-service/internal/utils"
)

// Fixed IDs so dev clients can log in as the seeded users. The landlord
// doubles as the sentinel for the idempotency check.
const (
	SeedLandlordID  = "aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaa1"
	SeedTenantID    = "aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaa2"
	SeedAdminID     = "aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaa3"
	SeedPropertyID  = "bbbbbbbb-bbbb-4bbb-bbbb-bbbbbbbbbbb1"
	SeedUnitID      = "bbbbbbbb-bbbb-4bbb-bbbb-bbbbbbbbbbb2"
	SeedAgreementID = "cccccccc-cccc-4ccc-cccc-ccccccccccc1"
)

// SeedAllTestData stores a landlord, tenant and admin, one property with a
// unit, and a draft agreement between them. It is a no-op once the
// sentinel landlord exists.
func SeedAllTestData(ctx context.Context, store repositories.Store) error {
	sentinelID := uuid.MustParse(SeedLandlordID)

	if existing, err := store.Users().GetByID(ctx, sentinelID); err != nil {
		return fmt.Errorf("failed to check for sentinel landlord: %w", err)
	} else if existing != nil {
		utils.Logger.Info("leasing-service: Seed data already present; skipping seeding.")
		return nil
	}

	now := time.Now().UTC()
	landlord := &models.User{
		ID:          sentinelID,
		Name:        "Demo Landlord",
		Email:       "landlord@thepoofapp.com",
		PhoneNumber: utils.Ptr("+12015550101"),
		Role:        models.RoleLandlord,
		CreatedAt:   now,
	}
	tenant := &models.User{
		ID:          uuid.MustParse(SeedTenantID),
		Name:        "Demo Tenant",
		Email:       "tenant@thepoofapp.com",
		PhoneNumber: utils.Ptr("+12015550102"),
		Role:        models.RoleTenant,
		CreatedAt:   now,
	}
	admin := &models.User{
		ID:        uuid.MustParse(SeedAdminID),
		Name:      "Demo Admin",
		Email:     "admin@thepoofapp.com",
		Role:      models.RoleAdmin,
		CreatedAt: now,
	}
	property := &models.Property{
		ID:        uuid.MustParse(SeedPropertyID),
		OwnerID:   landlord.ID,
		Name:      "The Demo Apartments",
		Address:   "100 Demo Way, Nashville, TN",
		HasUnits:  true,
		Status:    models.OccupancyAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	unit := &models.Unit{
		ID:         uuid.MustParse(SeedUnitID),
		PropertyID: property.ID,
		UnitNumber: "101",
		Status:     models.OccupancyAvailable,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	tenantID := tenant.ID
	agreement := &models.RentalAgreement{
		ID:                   uuid.MustParse(SeedAgreementID),
		PropertyID:           property.ID,
		UnitID:               &unit.ID,
		OwnerID:              landlord.ID,
		TenantID:             &tenantID,
		Status:               models.AgreementStatusDraft,
		MonthlyRentCents:     125000,
		SecurityDepositCents: 125000,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err := store.WithTx(ctx, func(tx repositories.UnitOfWork) error {
		for _, u := range []*models.User{landlord, tenant, admin} {
			if err := tx.Users().Create(ctx, u); err != nil {
				return fmt.Errorf("seed user %s: %w", u.Email, err)
			}
		}
		if err := tx.Properties().Create(ctx, property); err != nil {
			return fmt.Errorf("seed property: %w", err)
		}
		if err := tx.Units().Create(ctx, unit); err != nil {
			return fmt.Errorf("seed unit: %w", err)
		}
		if err := tx.Agreements().Create(ctx, agreement); err != nil {
			return fmt.Errorf("seed agreement: %w", err)
		}
		return nil
	})
	if isUniqueViolation(err) {
		// another instance seeded concurrently
		utils.Logger.Info("leasing-service: Seed data created by a concurrent run; skipping.")
		return nil
	}
	if err != nil {
		return err
	}

	utils.Logger.Info("leasing-service: Seeding completed successfully.")
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
