package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/poofware/leasing-service/internal/models"
)

type BreachLogRepository interface {
	Create(ctx context.Context, b *models.BreachLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BreachLog, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.BreachLog, error)
	// GetOpenByAgreement returns a breach log not yet in a terminal status.
	GetOpenByAgreement(ctx context.Context, agreementID uuid.UUID) (*models.BreachLog, error)
	UpdateIfVersion(ctx context.Context, b *models.BreachLog, expected int64) (pgconn.CommandTag, error)
	Save(ctx context.Context, b *models.BreachLog) error
}

type breachLogRepo struct {
	*BaseVersionedRepo[*models.BreachLog]
	db DB
}

func NewBreachLogRepository(db DB) BreachLogRepository {
	r := &breachLogRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectBreachLog()+" WHERE id=$1", scanBreachLog)
	return r
}

func (r *breachLogRepo) Create(ctx context.Context, b *models.BreachLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO breach_logs (
			id, rental_agreement_id, reason, status, reported_by, description,
			evidence_file_name, evidence_file_url,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8, NOW(), NOW(), 1)
	`,
		b.ID, b.RentalAgreementID, b.Reason, b.Status, b.ReportedBy, b.Description,
		b.EvidenceFileName, b.EvidenceFileURL,
	)
	if err == nil {
		b.RowVersion = 1
	}
	return err
}

func (r *breachLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BreachLog, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *breachLogRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.BreachLog, error) {
	return r.BaseVersionedRepo.GetByIDForUpdate(ctx, id.String())
}

func (r *breachLogRepo) GetOpenByAgreement(ctx context.Context, agreementID uuid.UUID) (*models.BreachLog, error) {
	row := r.db.QueryRow(ctx, baseSelectBreachLog()+`
		WHERE rental_agreement_id=$1 AND status = ANY($2)
		ORDER BY created_at DESC LIMIT 1`, agreementID, []string{
		string(models.BreachStatusWarning),
		string(models.BreachStatusPendingRemedy),
		string(models.BreachStatusEvictionRecommended),
	})
	return scanBreachLog(row)
}

func (r *breachLogRepo) UpdateIfVersion(ctx context.Context, b *models.BreachLog, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
		UPDATE breach_logs
		SET status=$1, reviewed_by=$2, admin_notes=$3, remedy_deadline=$4,
		    reviewed_at=$5, resolved_at=$6, finalized_at=$7,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$8 AND row_version=$9
	`,
		b.Status, b.ReviewedBy, b.AdminNotes, b.RemedyDeadline,
		b.ReviewedAt, b.ResolvedAt, b.FinalizedAt,
		b.ID, expected,
	)
}

func (r *breachLogRepo) Save(ctx context.Context, b *models.BreachLog) error {
	return r.BaseVersionedRepo.Save(ctx, b, r.UpdateIfVersion)
}

func baseSelectBreachLog() string {
	return `
		SELECT id, rental_agreement_id, reason, status, reported_by, description,
		evidence_file_name, evidence_file_url,
		reviewed_by, admin_notes, remedy_deadline, reviewed_at, resolved_at, finalized_at,
		created_at, updated_at, row_version
		FROM breach_logs`
}

func scanBreachLog(row pgx.Row) (*models.BreachLog, error) {
	var b models.BreachLog
	if err := row.Scan(
		&b.ID, &b.RentalAgreementID, &b.Reason, &b.Status, &b.ReportedBy, &b.Description,
		&b.EvidenceFileName, &b.EvidenceFileURL,
		&b.ReviewedBy, &b.AdminNotes, &b.RemedyDeadline, &b.ReviewedAt, &b.ResolvedAt, &b.FinalizedAt,
		&b.CreatedAt, &b.UpdatedAt, &b.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}
