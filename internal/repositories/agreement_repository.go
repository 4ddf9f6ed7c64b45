package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/poofware/leasing-service/internal/models"
)

/* ───────────── public interface ───────────── */

type AgreementRepository interface {
	Create(ctx context.Context, a *models.RentalAgreement) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.RentalAgreement, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RentalAgreement, error)
	ListByStatus(ctx context.Context, status models.AgreementStatus) ([]*models.RentalAgreement, error)
	// HasLiveAgreement reports whether a non-deleted, non-terminal agreement
	// already exists for the property/unit pair.
	HasLiveAgreement(ctx context.Context, propertyID uuid.UUID, unitID *uuid.UUID) (bool, error)

	UpdateIfVersion(ctx context.Context, a *models.RentalAgreement, expected int64) (pgconn.CommandTag, error)
	// Save writes a (locked) agreement with a single row_version check.
	Save(ctx context.Context, a *models.RentalAgreement) error
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.RentalAgreement) error) error
}

/* ───────────── implementation ───────────── */

type agreementRepo struct {
	*BaseVersionedRepo[*models.RentalAgreement]
	db DB
}

func NewAgreementRepository(db DB) AgreementRepository {
	r := &agreementRepo{db: db}
	selectStmt := baseSelectAgreement() + " WHERE id=$1 AND is_deleted=FALSE"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanAgreement)
	return r
}

/* ---------- create ---------- */

func (r *agreementRepo) Create(ctx context.Context, a *models.RentalAgreement) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO rental_agreements (
			id, property_id, unit_id, owner_id, tenant_id, status,
			monthly_rent_cents, security_deposit_cents, start_date, end_date,
			tenant_accepted_agreement, is_deleted,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,FALSE, NOW(), NOW(), 1)
	`,
		a.ID, a.PropertyID, a.UnitID, a.OwnerID, a.TenantID, a.Status,
		a.MonthlyRentCents, a.SecurityDepositCents, a.StartDate, a.EndDate,
		a.TenantAcceptedAgreement,
	)
	if err == nil {
		a.RowVersion = 1
	}
	return err
}

/* ---------- reads ---------- */

func (r *agreementRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.RentalAgreement, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *agreementRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RentalAgreement, error) {
	return r.BaseVersionedRepo.GetByIDForUpdate(ctx, id.String())
}

func (r *agreementRepo) ListByStatus(ctx context.Context, status models.AgreementStatus) ([]*models.RentalAgreement, error) {
	rows, err := r.db.Query(ctx, baseSelectAgreement()+" WHERE status=$1 AND is_deleted=FALSE ORDER BY created_at", status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.RentalAgreement
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *agreementRepo) HasLiveAgreement(ctx context.Context, propertyID uuid.UUID, unitID *uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM rental_agreements
			WHERE property_id=$1
			  AND unit_id IS NOT DISTINCT FROM $2
			  AND is_deleted=FALSE
			  AND status = ANY($3)
		)
	`, propertyID, unitID, []string{
		string(models.AgreementStatusDraft),
		string(models.AgreementStatusReady),
		string(models.AgreementStatusPendingPayment),
		string(models.AgreementStatusActive),
	}).Scan(&exists)
	return exists, err
}

/* ---------- update ---------- */

func (r *agreementRepo) UpdateIfVersion(ctx context.Context, a *models.RentalAgreement, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
		UPDATE rental_agreements
		SET tenant_id=$1, status=$2, monthly_rent_cents=$3, security_deposit_cents=$4,
		    start_date=$5, end_date=$6, tenant_accepted_agreement=$7,
		    termination_reason=$8, termination_requested_by=$9, termination_requester_role=$10,
		    termination_requested_at=$11, termination_description=$12, termination_effective_date=$13,
		    landlord_accepted_termination=$14, tenant_accepted_termination=$15,
		    did_admin_approve_breach=$16, is_deleted=$17, deleted_at=$18,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$19 AND row_version=$20
	`,
		a.TenantID, a.Status, a.MonthlyRentCents, a.SecurityDepositCents,
		a.StartDate, a.EndDate, a.TenantAcceptedAgreement,
		a.TerminationReason, a.TerminationRequestedBy, a.TerminationRequesterRole,
		a.TerminationRequestedAt, a.TerminationDescription, a.TerminationEffectiveDate,
		a.LandlordAcceptedTermination, a.TenantAcceptedTermination,
		a.DidAdminApproveBreach, a.IsDeleted, a.DeletedAt,
		a.ID, expected,
	)
}

func (r *agreementRepo) Save(ctx context.Context, a *models.RentalAgreement) error {
	return r.BaseVersionedRepo.Save(ctx, a, r.UpdateIfVersion)
}

func (r *agreementRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.RentalAgreement) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

/* ---------- internals ---------- */

func baseSelectAgreement() string {
	return `
		SELECT id, property_id, unit_id, owner_id, tenant_id, status,
		monthly_rent_cents, security_deposit_cents, start_date, end_date,
		tenant_accepted_agreement,
		termination_reason, termination_requested_by, termination_requester_role,
		termination_requested_at, termination_description, termination_effective_date,
		landlord_accepted_termination, tenant_accepted_termination, did_admin_approve_breach,
		is_deleted, deleted_at, created_at, updated_at, row_version
		FROM rental_agreements`
}

func scanAgreement(row pgx.Row) (*models.RentalAgreement, error) {
	var a models.RentalAgreement
	if err := row.Scan(
		&a.ID, &a.PropertyID, &a.UnitID, &a.OwnerID, &a.TenantID, &a.Status,
		&a.MonthlyRentCents, &a.SecurityDepositCents, &a.StartDate, &a.EndDate,
		&a.TenantAcceptedAgreement,
		&a.TerminationReason, &a.TerminationRequestedBy, &a.TerminationRequesterRole,
		&a.TerminationRequestedAt, &a.TerminationDescription, &a.TerminationEffectiveDate,
		&a.LandlordAcceptedTermination, &a.TenantAcceptedTermination, &a.DidAdminApproveBreach,
		&a.IsDeleted, &a.DeletedAt, &a.CreatedAt, &a.UpdatedAt, &a.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
