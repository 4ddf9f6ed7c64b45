package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/poofware/leasing-service/internal/models"
)

type RentPaymentRepository interface {
	// CreateMany batch-inserts obligations; rows whose id or
	// (agreement, due_date) already exists are skipped.
	CreateMany(ctx context.Context, list []*models.RentPayment) error
	// CreateIfNotExists reports whether the obligation was inserted.
	CreateIfNotExists(ctx context.Context, p *models.RentPayment) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.RentPayment, error)
	ListByAgreement(ctx context.Context, agreementID uuid.UUID) ([]*models.RentPayment, error)
	// ListOutstandingForUpdate locks pending/overdued/partial obligations,
	// oldest due date first.
	ListOutstandingForUpdate(ctx context.Context, agreementID uuid.UUID) ([]*models.RentPayment, error)
	// LatestDueDate is the newest due date among non-cancelled obligations.
	LatestDueDate(ctx context.Context, agreementID uuid.UUID) (*time.Time, error)
	// MostRecentUnpaid is the outstanding obligation with the latest due date.
	MostRecentUnpaid(ctx context.Context, agreementID uuid.UUID) (*models.RentPayment, error)
	// SumFutureCompleted totals paid cents on completed obligations due after asOf.
	SumFutureCompleted(ctx context.Context, agreementID uuid.UUID, asOf time.Time) (int64, error)

	UpdateIfVersion(ctx context.Context, p *models.RentPayment, expected int64) (pgconn.CommandTag, error)
	Save(ctx context.Context, p *models.RentPayment) error

	CancelOutstanding(ctx context.Context, agreementID uuid.UUID) (int64, error)
	RefundFutureCompleted(ctx context.Context, agreementID uuid.UUID, asOf time.Time) (int64, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type rentPaymentRepo struct {
	*BaseVersionedRepo[*models.RentPayment]
	db DB
}

func NewRentPaymentRepository(db DB) RentPaymentRepository {
	r := &rentPaymentRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectRentPayment()+" WHERE id=$1", scanRentPayment)
	return r
}

const insertRentPayment = `
	INSERT INTO rent_payments (
		id, rental_agreement_id, tenant_id, property_id, unit_id,
		due_date, due_amount_cents, amount_paid_cents, status,
		method, transaction_id, period_covered, payment_date, notes,
		is_deleted, created_at, updated_at, row_version
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,FALSE,NOW(),NOW(),1)
	ON CONFLICT DO NOTHING
`

func rentPaymentArgs(p *models.RentPayment) []any {
	return []any{
		p.ID, p.RentalAgreementID, p.TenantID, p.PropertyID, p.UnitID,
		p.DueDate, p.DueAmountCents, p.AmountPaidCents, p.Status,
		p.Method, p.TransactionID, p.PeriodCovered, p.PaymentDate, p.Notes,
	}
}

func (r *rentPaymentRepo) CreateMany(ctx context.Context, list []*models.RentPayment) error {
	if len(list) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, p := range list {
		b.Queue(insertRentPayment, rentPaymentArgs(p)...)
	}
	br := r.db.SendBatch(ctx, b)
	defer br.Close()
	for range list {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	for _, p := range list {
		p.RowVersion = 1
	}
	return nil
}

func (r *rentPaymentRepo) CreateIfNotExists(ctx context.Context, p *models.RentPayment) (bool, error) {
	tag, err := r.db.Exec(ctx, insertRentPayment, rentPaymentArgs(p)...)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		p.RowVersion = 1
		return true, nil
	}
	return false, nil
}

func (r *rentPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.RentPayment, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *rentPaymentRepo) ListByAgreement(ctx context.Context, agreementID uuid.UUID) ([]*models.RentPayment, error) {
	return r.list(ctx, baseSelectRentPayment()+`
		WHERE rental_agreement_id=$1 AND is_deleted=FALSE
		ORDER BY due_date ASC, created_at ASC`, agreementID)
}

func (r *rentPaymentRepo) ListOutstandingForUpdate(ctx context.Context, agreementID uuid.UUID) ([]*models.RentPayment, error) {
	return r.list(ctx, baseSelectRentPayment()+`
		WHERE rental_agreement_id=$1 AND is_deleted=FALSE AND status = ANY($2)
		ORDER BY due_date ASC, created_at ASC
		FOR UPDATE`, agreementID, outstandingStatuses())
}

func (r *rentPaymentRepo) LatestDueDate(ctx context.Context, agreementID uuid.UUID) (*time.Time, error) {
	var latest *time.Time
	err := r.db.QueryRow(ctx, `
		SELECT MAX(due_date) FROM rent_payments
		WHERE rental_agreement_id=$1 AND is_deleted=FALSE AND status <> $2
	`, agreementID, models.PaymentStatusCancelled).Scan(&latest)
	return latest, err
}

func (r *rentPaymentRepo) MostRecentUnpaid(ctx context.Context, agreementID uuid.UUID) (*models.RentPayment, error) {
	row := r.db.QueryRow(ctx, baseSelectRentPayment()+`
		WHERE rental_agreement_id=$1 AND is_deleted=FALSE AND status = ANY($2)
		ORDER BY due_date DESC LIMIT 1`, agreementID, outstandingStatuses())
	return scanRentPayment(row)
}

func (r *rentPaymentRepo) SumFutureCompleted(ctx context.Context, agreementID uuid.UUID, asOf time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_paid_cents), 0) FROM rent_payments
		WHERE rental_agreement_id=$1 AND is_deleted=FALSE AND status=$2 AND due_date > $3
	`, agreementID, models.PaymentStatusCompleted, asOf).Scan(&total)
	return total, err
}

func (r *rentPaymentRepo) UpdateIfVersion(ctx context.Context, p *models.RentPayment, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
		UPDATE rent_payments
		SET amount_paid_cents=$1, status=$2, method=$3, transaction_id=$4,
		    period_covered=$5, payment_date=$6, notes=$7,
		    updated_at=NOW(), row_version=row_version+1
		WHERE id=$8 AND row_version=$9
	`,
		p.AmountPaidCents, p.Status, p.Method, p.TransactionID,
		p.PeriodCovered, p.PaymentDate, p.Notes,
		p.ID, expected,
	)
}

func (r *rentPaymentRepo) Save(ctx context.Context, p *models.RentPayment) error {
	return r.BaseVersionedRepo.Save(ctx, p, r.UpdateIfVersion)
}

func (r *rentPaymentRepo) CancelOutstanding(ctx context.Context, agreementID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE rent_payments
		SET status=$1, updated_at=NOW(), row_version=row_version+1
		WHERE rental_agreement_id=$2 AND status = ANY($3)
	`, models.PaymentStatusCancelled, agreementID, outstandingStatuses())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *rentPaymentRepo) RefundFutureCompleted(ctx context.Context, agreementID uuid.UUID, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE rent_payments
		SET status=$1, updated_at=NOW(), row_version=row_version+1
		WHERE rental_agreement_id=$2 AND status=$3 AND due_date > $4
	`, models.PaymentStatusRefunded, agreementID, models.PaymentStatusCompleted, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkOverdue only touches untouched obligations; partially paid ones keep
// their partial status.
func (r *rentPaymentRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE rent_payments
		SET status=$1, updated_at=NOW(), row_version=row_version+1
		WHERE status=$2 AND due_date < $3 AND is_deleted=FALSE
	`, models.PaymentStatusOverdued, models.PaymentStatusPending, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

/* ---------- internals ---------- */

func outstandingStatuses() []string {
	out := make([]string, 0, len(models.OutstandingPaymentStatuses))
	for _, s := range models.OutstandingPaymentStatuses {
		out = append(out, string(s))
	}
	return out
}

func baseSelectRentPayment() string {
	return `
		SELECT id, rental_agreement_id, tenant_id, property_id, unit_id,
		due_date, due_amount_cents, amount_paid_cents, status,
		method, transaction_id, period_covered, payment_date, notes,
		is_deleted, created_at, updated_at, row_version
		FROM rent_payments`
}

func (r *rentPaymentRepo) list(ctx context.Context, sql string, args ...any) ([]*models.RentPayment, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.RentPayment
	for rows.Next() {
		p, err := scanRentPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanRentPayment(row pgx.Row) (*models.RentPayment, error) {
	var p models.RentPayment
	if err := row.Scan(
		&p.ID, &p.RentalAgreementID, &p.TenantID, &p.PropertyID, &p.UnitID,
		&p.DueDate, &p.DueAmountCents, &p.AmountPaidCents, &p.Status,
		&p.Method, &p.TransactionID, &p.PeriodCovered, &p.PaymentDate, &p.Notes,
		&p.IsDeleted, &p.CreatedAt, &p.UpdatedAt, &p.RowVersion,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
