package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/poofware/leasing-service/internal/models"
)

type SecurityDepositRepository interface {
	Create(ctx context.Context, d *models.SecurityDeposit) error
	GetByAgreementID(ctx context.Context, agreementID uuid.UUID) (*models.SecurityDeposit, error)
	UpdateIfVersion(ctx context.Context, d *models.SecurityDeposit, expected int64) (pgconn.CommandTag, error)
	Save(ctx context.Context, d *models.SecurityDeposit) error
}

type securityDepositRepo struct {
	*BaseVersionedRepo[*models.SecurityDeposit]
	db DB
}

func NewSecurityDepositRepository(db DB) SecurityDepositRepository {
	r := &securityDepositRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectDeposit()+" WHERE id=$1", scanDeposit)
	return r
}

func (r *securityDepositRepo) Create(ctx context.Context, d *models.SecurityDeposit) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO security_deposits (
			id, rental_agreement_id, tenant_id, amount_cents, refunded_amount_cents,
			status, transaction_id, created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7, NOW(), NOW(), 1)
	`, d.ID, d.RentalAgreementID, d.TenantID, d.AmountCents, d.RefundedAmountCents, d.Status, d.TransactionID)
	if err == nil {
		d.RowVersion = 1
	}
	return err
}

func (r *securityDepositRepo) GetByAgreementID(ctx context.Context, agreementID uuid.UUID) (*models.SecurityDeposit, error) {
	row := r.db.QueryRow(ctx, baseSelectDeposit()+" WHERE rental_agreement_id=$1", agreementID)
	return scanDeposit(row)
}

func (r *securityDepositRepo) UpdateIfVersion(ctx context.Context, d *models.SecurityDeposit, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
		UPDATE security_deposits
		SET refunded_amount_cents=$1, status=$2, updated_at=NOW(), row_version=row_version+1
		WHERE id=$3 AND row_version=$4
	`, d.RefundedAmountCents, d.Status, d.ID, expected)
}

func (r *securityDepositRepo) Save(ctx context.Context, d *models.SecurityDeposit) error {
	return r.BaseVersionedRepo.Save(ctx, d, r.UpdateIfVersion)
}

func baseSelectDeposit() string {
	return `
		SELECT id, rental_agreement_id, tenant_id, amount_cents, refunded_amount_cents,
		status, transaction_id, created_at, updated_at, row_version
		FROM security_deposits`
}

func scanDeposit(row pgx.Row) (*models.SecurityDeposit, error) {
	var d models.SecurityDeposit
	if err := row.Scan(
		&d.ID, &d.RentalAgreementID, &d.TenantID, &d.AmountCents, &d.RefundedAmountCents,
		&d.Status, &d.TransactionID, &d.CreatedAt, &d.UpdatedAt, &d.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}
