// Package schema holds the GORM table definitions behind the pgx
// repositories. Column names follow GORM's snake_case defaults, which match
// the hand-written SQL in internal/repositories.
package schema

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Email       string    `gorm:"not null;uniqueIndex"`
	PhoneNumber *string
	Role        string    `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
}

type Property struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Owner      *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT"`
	Name       string    `gorm:"not null"`
	Address    string    `gorm:"not null"`
	HasUnits   bool      `gorm:"not null;default:false"`
	Status     string    `gorm:"not null;default:available"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
	RowVersion int64     `gorm:"not null;default:1"`
}

type Unit struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PropertyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_units_property_number"`
	Property   *Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	UnitNumber string    `gorm:"not null;uniqueIndex:idx_units_property_number"`
	Status     string    `gorm:"not null;default:available"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
	RowVersion int64     `gorm:"not null;default:1"`
}

type RentalAgreement struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PropertyID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_agreements_property_unit"`
	Property             *Property  `gorm:"foreignKey:PropertyID;constraint:OnDelete:RESTRICT"`
	UnitID               *uuid.UUID `gorm:"type:uuid;index:idx_agreements_property_unit"`
	Unit                 *Unit      `gorm:"foreignKey:UnitID;constraint:OnDelete:RESTRICT"`
	OwnerID              uuid.UUID  `gorm:"type:uuid;not null;index"`
	TenantID             *uuid.UUID `gorm:"type:uuid;index"`
	Status               string     `gorm:"not null;index"`
	MonthlyRentCents     int64      `gorm:"not null;check:monthly_rent_cents > 0"`
	SecurityDepositCents int64      `gorm:"not null;default:0;check:security_deposit_cents >= 0"`
	StartDate            *time.Time
	EndDate              *time.Time

	TenantAcceptedAgreement bool `gorm:"not null;default:false"`

	TerminationReason           *string
	TerminationRequestedBy      *uuid.UUID `gorm:"type:uuid"`
	TerminationRequesterRole    *string
	TerminationRequestedAt      *time.Time
	TerminationDescription      *string
	TerminationEffectiveDate    *time.Time
	LandlordAcceptedTermination bool `gorm:"not null;default:false"`
	TenantAcceptedTermination   bool `gorm:"not null;default:false"`
	DidAdminApproveBreach       bool `gorm:"not null;default:false"`

	IsDeleted  bool `gorm:"not null;default:false"`
	DeletedAt  *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
	RowVersion int64     `gorm:"not null;default:1"`
}

type RentPayment struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey"`
	RentalAgreementID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_rent_payments_agreement_due"`
	RentalAgreement   *RentalAgreement `gorm:"foreignKey:RentalAgreementID;constraint:OnDelete:CASCADE"`
	TenantID          uuid.UUID        `gorm:"type:uuid;not null;index"`
	PropertyID        uuid.UUID        `gorm:"type:uuid;not null"`
	UnitID            *uuid.UUID       `gorm:"type:uuid"`
	DueDate           time.Time        `gorm:"not null;uniqueIndex:idx_rent_payments_agreement_due;index"`
	DueAmountCents    int64            `gorm:"not null;check:due_amount_cents > 0"`
	AmountPaidCents   int64            `gorm:"not null;default:0;check:amount_paid_cents >= 0 AND amount_paid_cents <= due_amount_cents"`
	Status            string           `gorm:"not null;index"`
	Method            *string
	TransactionID     *string
	PeriodCovered     string `gorm:"not null"`
	PaymentDate       *time.Time
	Notes             *string
	IsDeleted         bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
	RowVersion        int64     `gorm:"not null;default:1"`
}

type SecurityDeposit struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey"`
	RentalAgreementID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	RentalAgreement     *RentalAgreement `gorm:"foreignKey:RentalAgreementID;constraint:OnDelete:CASCADE"`
	TenantID            uuid.UUID        `gorm:"type:uuid;not null"`
	AmountCents         int64            `gorm:"not null;check:amount_cents >= 0"`
	RefundedAmountCents int64            `gorm:"not null;default:0;check:refunded_amount_cents >= 0 AND refunded_amount_cents <= amount_cents"`
	Status              string           `gorm:"not null"`
	TransactionID       *string
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
	RowVersion          int64     `gorm:"not null;default:1"`
}

type EvictionLog struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey"`
	RentalAgreementID uuid.UUID        `gorm:"type:uuid;not null;index"`
	RentalAgreement   *RentalAgreement `gorm:"foreignKey:RentalAgreementID;constraint:OnDelete:CASCADE"`
	Reason            string           `gorm:"not null"`
	Status            string           `gorm:"not null;index:idx_eviction_logs_status_grace"`
	InitiatedBy       uuid.UUID        `gorm:"type:uuid;not null"`
	InitiatorRole     string           `gorm:"not null"`
	Description       *string
	WarningSentAt     time.Time  `gorm:"not null"`
	GracePeriodEnd    time.Time  `gorm:"not null;index:idx_eviction_logs_status_grace"`
	CancelledBy       *uuid.UUID `gorm:"type:uuid"`
	CancelReason      *string
	FinalizedAt       *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
	RowVersion        int64     `gorm:"not null;default:1"`
}

type BreachLog struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey"`
	RentalAgreementID uuid.UUID        `gorm:"type:uuid;not null;index"`
	RentalAgreement   *RentalAgreement `gorm:"foreignKey:RentalAgreementID;constraint:OnDelete:CASCADE"`
	Reason            string           `gorm:"not null"`
	Status            string           `gorm:"not null;index"`
	ReportedBy        uuid.UUID        `gorm:"type:uuid;not null"`
	Description       *string
	EvidenceFileName  string     `gorm:"not null"`
	EvidenceFileURL   string     `gorm:"column:evidence_file_url;not null"`
	ReviewedBy        *uuid.UUID `gorm:"type:uuid"`
	AdminNotes        *string
	RemedyDeadline    *time.Time
	ReviewedAt        *time.Time
	ResolvedAt        *time.Time
	FinalizedAt       *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
	RowVersion        int64     `gorm:"not null;default:1"`
}

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_notifications_user_created"`
	Title     string    `gorm:"not null"`
	Body      string    `gorm:"not null"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null;index:idx_notifications_user_created"`
}

// Tables lists every table in foreign-key order.
func Tables() []any {
	return []any{
		&User{},
		&Property{},
		&Unit{},
		&RentalAgreement{},
		&RentPayment{},
		&SecurityDeposit{},
		&EvictionLog{},
		&BreachLog{},
		&Notification{},
	}
}

// Open connects GORM with the named dialect ("postgres" or "sqlite").
func Open(driver, dsn string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	return gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(level)})
}

// Migrate creates or updates every table, index and constraint.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Tables()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Drop removes every table in reverse dependency order.
func Drop(db *gorm.DB) error {
	tables := Tables()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(tables[i]); err != nil {
			return fmt.Errorf("drop %T: %w", tables[i], err)
		}
	}
	return nil
}
