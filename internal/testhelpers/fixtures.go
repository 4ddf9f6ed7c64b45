package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
)

// Lease is a seeded landlord/tenant/property/agreement set.
type Lease struct {
	Landlord  *models.User
	Tenant    *models.User
	Admin     *models.User
	Property  *models.Property
	Agreement *models.RentalAgreement
}

func SeedUser(t testing.TB, s repositories.UnitOfWork, role models.Role, name string) *models.User {
	t.Helper()
	id := uuid.New()
	u := &models.User{
		ID:        id,
		Name:      name,
		Email:     name + "+" + id.String()[:8] + "@example.com",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

// SeedLease stores a property without units and an agreement in status,
// with the tenant attached. Agreements past ready are marked accepted.
func SeedLease(t testing.TB, s repositories.UnitOfWork, status models.AgreementStatus, rentCents, depositCents int64) *Lease {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	l := &Lease{
		Landlord: SeedUser(t, s, models.RoleLandlord, "landlord"),
		Tenant:   SeedUser(t, s, models.RoleTenant, "tenant"),
		Admin:    SeedUser(t, s, models.RoleAdmin, "admin"),
	}

	l.Property = &models.Property{
		ID:        uuid.New(),
		OwnerID:   l.Landlord.ID,
		Name:      "Demo Property",
		Address:   "1 Main St",
		Status:    models.OccupancyAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Properties().Create(ctx, l.Property))

	tenantID := l.Tenant.ID
	l.Agreement = &models.RentalAgreement{
		ID:                      uuid.New(),
		PropertyID:              l.Property.ID,
		OwnerID:                 l.Landlord.ID,
		TenantID:                &tenantID,
		Status:                  status,
		MonthlyRentCents:        rentCents,
		SecurityDepositCents:    depositCents,
		TenantAcceptedAgreement: status != models.AgreementStatusDraft && status != models.AgreementStatusReady,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if status == models.AgreementStatusActive {
		l.Property.Status = models.OccupancyOccupied
		require.NoError(t, s.Properties().UpdateWithRetry(ctx, l.Property.ID, func(p *models.Property) error {
			p.Status = models.OccupancyOccupied
			return nil
		}))
	}
	require.NoError(t, s.Agreements().Create(ctx, l.Agreement))
	return l
}

// SeedObligation stores one obligation for the lease's agreement.
func SeedObligation(t testing.TB, s repositories.UnitOfWork, l *Lease, due time.Time, dueCents, paidCents int64, status models.PaymentStatus) *models.RentPayment {
	t.Helper()
	p := &models.RentPayment{
		ID:                uuid.New(),
		RentalAgreementID: l.Agreement.ID,
		TenantID:          l.Tenant.ID,
		PropertyID:        l.Property.ID,
		DueDate:           due,
		DueAmountCents:    dueCents,
		AmountPaidCents:   paidCents,
		Status:            status,
		PeriodCovered:     due.Format("01/02/2006"),
		CreatedAt:         due,
		UpdatedAt:         due,
	}
	inserted, err := s.Payments().CreateIfNotExists(context.Background(), p)
	require.NoError(t, err)
	require.True(t, inserted)
	return p
}

// SeedDeposit stores a security deposit for the lease's agreement.
func SeedDeposit(t testing.TB, s repositories.UnitOfWork, l *Lease, amountCents int64, status models.DepositStatus) *models.SecurityDeposit {
	t.Helper()
	d := &models.SecurityDeposit{
		ID:                uuid.New(),
		RentalAgreementID: l.Agreement.ID,
		TenantID:          l.Tenant.ID,
		AmountCents:       amountCents,
		Status:            status,
	}
	require.NoError(t, s.Deposits().Create(context.Background(), d))
	return d
}
