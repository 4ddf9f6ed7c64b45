package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/poofware/leasing-service/internal/models"
)

type EvictionLogRepository interface {
	Create(ctx context.Context, e *models.EvictionLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.EvictionLog, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EvictionLog, error)
	// GetOpenByAgreement returns the agreement's eviction log still in warning, if any.
	GetOpenByAgreement(ctx context.Context, agreementID uuid.UUID) (*models.EvictionLog, error)
	// ListExpiredWarnings returns warning logs whose grace period ended before asOf.
	ListExpiredWarnings(ctx context.Context, asOf time.Time) ([]*models.EvictionLog, error)
	UpdateIfVersion(ctx context.Context, e *models.EvictionLog, expected int64) (pgconn.CommandTag, error)
	Save(ctx context.Context, e *models.EvictionLog) error
}

type evictionLogRepo struct {
	*BaseVersionedRepo[*models.EvictionLog]
	db DB
}

func NewEvictionLogRepository(db DB) EvictionLogRepository {
	r := &evictionLogRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectEvictionLog()+" WHERE id=$1", scanEvictionLog)
	return r
}

func (r *evictionLogRepo) Create(ctx context.Context, e *models.EvictionLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO eviction_logs (
			id, rental_agreement_id, reason, status, initiated_by, initiator_role,
			description, warning_sent_at, grace_period_end,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, NOW(), NOW(), 1)
	`,
		e.ID, e.RentalAgreementID, e.Reason, e.Status, e.InitiatedBy, e.InitiatorRole,
		e.Description, e.WarningSentAt, e.GracePeriodEnd,
	)
	if err == nil {
		e.RowVersion = 1
	}
	return err
}

func (r *evictionLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.EvictionLog, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *evictionLogRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EvictionLog, error) {
	return r.BaseVersionedRepo.GetByIDForUpdate(ctx, id.String())
}

func (r *evictionLogRepo) GetOpenByAgreement(ctx context.Context, agreementID uuid.UUID) (*models.EvictionLog, error) {
	row := r.db.QueryRow(ctx, baseSelectEvictionLog()+`
		WHERE rental_agreement_id=$1 AND status=$2
		ORDER BY created_at DESC LIMIT 1`, agreementID, models.EvictionStatusWarning)
	return scanEvictionLog(row)
}

func (r *evictionLogRepo) ListExpiredWarnings(ctx context.Context, asOf time.Time) ([]*models.EvictionLog, error) {
	rows, err := r.db.Query(ctx, baseSelectEvictionLog()+`
		WHERE status=$1 AND grace_period_end < $2
		ORDER BY grace_period_end ASC`, models.EvictionStatusWarning, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.EvictionLog
	for rows.Next() {
		e, err := scanEvictionLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *evictionLogRepo) UpdateIfVersion(ctx context.Context, e *models.EvictionLog, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
		UPDATE eviction_logs
		SET status=$1, cancelled_by=$2, cancel_reason=$3, finalized_at=$4,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$5 AND row_version=$6
	`, e.Status, e.CancelledBy, e.CancelReason, e.FinalizedAt, e.ID, expected)
}

func (r *evictionLogRepo) Save(ctx context.Context, e *models.EvictionLog) error {
	return r.BaseVersionedRepo.Save(ctx, e, r.UpdateIfVersion)
}

func baseSelectEvictionLog() string {
	return `
		SELECT id, rental_agreement_id, reason, status, initiated_by, initiator_role,
		description, warning_sent_at, grace_period_end,
		cancelled_by, cancel_reason, finalized_at,
		created_at, updated_at, row_version
		FROM eviction_logs`
}

func scanEvictionLog(row pgx.Row) (*models.EvictionLog, error) {
	var e models.EvictionLog
	if err := row.Scan(
		&e.ID, &e.RentalAgreementID, &e.Reason, &e.Status, &e.InitiatedBy, &e.InitiatorRole,
		&e.Description, &e.WarningSentAt, &e.GracePeriodEnd,
		&e.CancelledBy, &e.CancelReason, &e.FinalizedAt,
		&e.CreatedAt, &e.UpdatedAt, &e.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
