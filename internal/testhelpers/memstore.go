// Package testhelpers provides in-memory stand-ins for the record store and
// the event bus so services can be tested without Postgres.
package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/repositories"
)

var (
	tagUpdated = pgconn.CommandTag("UPDATE 1")
	tagMissed  = pgconn.CommandTag("UPDATE 0")
)

type memData struct {
	agreements    map[uuid.UUID]models.RentalAgreement
	payments      map[uuid.UUID]models.RentPayment
	deposits      map[uuid.UUID]models.SecurityDeposit
	evictions     map[uuid.UUID]models.EvictionLog
	breaches      map[uuid.UUID]models.BreachLog
	properties    map[uuid.UUID]models.Property
	units         map[uuid.UUID]models.Unit
	users         map[uuid.UUID]models.User
	notifications []models.Notification
}

func newMemData() *memData {
	return &memData{
		agreements: map[uuid.UUID]models.RentalAgreement{},
		payments:   map[uuid.UUID]models.RentPayment{},
		deposits:   map[uuid.UUID]models.SecurityDeposit{},
		evictions:  map[uuid.UUID]models.EvictionLog{},
		breaches:   map[uuid.UUID]models.BreachLog{},
		properties: map[uuid.UUID]models.Property{},
		units:      map[uuid.UUID]models.Unit{},
		users:      map[uuid.UUID]models.User{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memData) clone() *memData {
	return &memData{
		agreements:    cloneMap(d.agreements),
		payments:      cloneMap(d.payments),
		deposits:      cloneMap(d.deposits),
		evictions:     cloneMap(d.evictions),
		breaches:      cloneMap(d.breaches),
		properties:    cloneMap(d.properties),
		units:         cloneMap(d.units),
		users:         cloneMap(d.users),
		notifications: append([]models.Notification(nil), d.notifications...),
	}
}

// MemStore is a repositories.Store held in memory. Transactions run one at
// a time against a snapshot that replaces the committed data only when fn
// succeeds. Records are copied on every read and write.
type MemStore struct {
	txMu sync.Mutex // serializes transactions and non-transactional writes
	mu   sync.Mutex // guards data and faults
	data *memData

	faults  map[string]error
	commits int
}

var _ repositories.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{data: newMemData(), faults: map[string]error{}}
}

// FailOn makes the named repository call (e.g. "Deposits.Create") return
// err until cleared with a nil err.
func (s *MemStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// Commits counts successful transactions.
func (s *MemStore) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *MemStore) fault(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faults[op]
}

func (s *MemStore) WithTx(ctx context.Context, fn func(tx repositories.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.data.clone()
	s.mu.Unlock()

	if err := fn(&memView{s: s, tx: snap}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = snap
	s.commits++
	s.mu.Unlock()
	return nil
}

func (s *MemStore) root() *memView { return &memView{s: s} }

func (s *MemStore) Agreements() repositories.AgreementRepository {
	return memAgreements{s.root()}
}
func (s *MemStore) Payments() repositories.RentPaymentRepository {
	return memPayments{s.root()}
}
func (s *MemStore) Deposits() repositories.SecurityDepositRepository {
	return memDeposits{s.root()}
}
func (s *MemStore) Evictions() repositories.EvictionLogRepository {
	return memEvictions{s.root()}
}
func (s *MemStore) Breaches() repositories.BreachLogRepository {
	return memBreaches{s.root()}
}
func (s *MemStore) Properties() repositories.PropertyRepository {
	return memProperties{s.root()}
}
func (s *MemStore) Units() repositories.UnitRepository {
	return memUnits{s.root()}
}
func (s *MemStore) Users() repositories.UserRepository {
	return memUsers{s.root()}
}
func (s *MemStore) Notifications() repositories.NotificationRepository {
	return memNotifications{s.root()}
}

// memView is a UnitOfWork over either a transaction snapshot or, when tx is
// nil, the committed data.
type memView struct {
	s  *MemStore
	tx *memData
}

func (v *memView) Agreements() repositories.AgreementRepository       { return memAgreements{v} }
func (v *memView) Payments() repositories.RentPaymentRepository       { return memPayments{v} }
func (v *memView) Deposits() repositories.SecurityDepositRepository   { return memDeposits{v} }
func (v *memView) Evictions() repositories.EvictionLogRepository      { return memEvictions{v} }
func (v *memView) Breaches() repositories.BreachLogRepository         { return memBreaches{v} }
func (v *memView) Properties() repositories.PropertyRepository        { return memProperties{v} }
func (v *memView) Units() repositories.UnitRepository                 { return memUnits{v} }
func (v *memView) Users() repositories.UserRepository                 { return memUsers{v} }
func (v *memView) Notifications() repositories.NotificationRepository { return memNotifications{v} }

func (v *memView) read(op string, fn func(d *memData) error) error {
	if err := v.s.fault(op); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data)
}

func (v *memView) write(op string, fn func(d *memData) error) error {
	if err := v.s.fault(op); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.txMu.Lock()
	defer v.s.txMu.Unlock()
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data)
}

func conflict(kind string, id uuid.UUID, expected int64) error {
	return fmt.Errorf("updating %s %s at version %d: %w", kind, id, expected, repositories.ErrRowVersionConflict)
}

/* ───────────── agreements ───────────── */

type memAgreements struct{ v *memView }

func (r memAgreements) Create(_ context.Context, a *models.RentalAgreement) error {
	return r.v.write("Agreements.Create", func(d *memData) error {
		if _, ok := d.agreements[a.ID]; ok {
			return fmt.Errorf("agreement %s already exists", a.ID)
		}
		a.RowVersion = 1
		d.agreements[a.ID] = *a
		return nil
	})
}

func (r memAgreements) get(op string, id uuid.UUID) (*models.RentalAgreement, error) {
	var out *models.RentalAgreement
	err := r.v.read(op, func(d *memData) error {
		if a, ok := d.agreements[id]; ok && !a.IsDeleted {
			out = &a
		}
		return nil
	})
	return out, err
}

func (r memAgreements) GetByID(_ context.Context, id uuid.UUID) (*models.RentalAgreement, error) {
	return r.get("Agreements.GetByID", id)
}

func (r memAgreements) GetByIDForUpdate(_ context.Context, id uuid.UUID) (*models.RentalAgreement, error) {
	return r.get("Agreements.GetByIDForUpdate", id)
}

func (r memAgreements) ListByStatus(_ context.Context, status models.AgreementStatus) ([]*models.RentalAgreement, error) {
	var out []*models.RentalAgreement
	err := r.v.read("Agreements.ListByStatus", func(d *memData) error {
		for _, a := range d.agreements {
			if a.Status == status && !a.IsDeleted {
				c := a
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r memAgreements) HasLiveAgreement(_ context.Context, propertyID uuid.UUID, unitID *uuid.UUID) (bool, error) {
	live := false
	err := r.v.read("Agreements.HasLiveAgreement", func(d *memData) error {
		for _, a := range d.agreements {
			if a.IsDeleted || a.PropertyID != propertyID || !sameUnit(a.UnitID, unitID) {
				continue
			}
			if !a.Status.IsTerminal() {
				live = true
			}
		}
		return nil
	})
	return live, err
}

func sameUnit(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r memAgreements) UpdateIfVersion(_ context.Context, a *models.RentalAgreement, expected int64) (pgconn.CommandTag, error) {
	tag := tagMissed
	err := r.v.write("Agreements.UpdateIfVersion", func(d *memData) error {
		cur, ok := d.agreements[a.ID]
		if !ok || cur.RowVersion != expected {
			return nil
		}
		next := *a
		next.RowVersion = expected + 1
		d.agreements[a.ID] = next
		tag = tagUpdated
		return nil
	})
	return tag, err
}

func (r memAgreements) Save(ctx context.Context, a *models.RentalAgreement) error {
	return repositories.SaveVersioned(ctx, a, r.UpdateIfVersion)
}

func (r memAgreements) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.RentalAgreement) error) error {
	return repositories.WithRetry(ctx, 3, id.String(),
		func(ctx context.Context, id string) (*models.RentalAgreement, error) {
			return r.GetByID(ctx, uuid.MustParse(id))
		},
		r.UpdateIfVersion, mutate)
}

/* ───────────── rent payments ───────────── */

type memPayments struct{ v *memView }

func (r memPayments) insert(d *memData, p *models.RentPayment) bool {
	if _, ok := d.payments[p.ID]; ok {
		return false
	}
	for _, existing := range d.payments {
		if existing.RentalAgreementID == p.RentalAgreementID && existing.DueDate.Equal(p.DueDate) {
			return false
		}
	}
	p.RowVersion = 1
	d.payments[p.ID] = *p
	return true
}

func (r memPayments) CreateMany(_ context.Context, list []*models.RentPayment) error {
	return r.v.write("Payments.CreateMany", func(d *memData) error {
		for _, p := range list {
			r.insert(d, p)
		}
		return nil
	})
}

func (r memPayments) CreateIfNotExists(_ context.Context, p *models.RentPayment) (bool, error) {
	inserted := false
	err := r.v.write("Payments.CreateIfNotExists", func(d *memData) error {
		inserted = r.insert(d, p)
		return nil
	})
	return inserted, err
}

func (r memPayments) GetByID(_ context.Context, id uuid.UUID) (*models.RentPayment, error) {
	var out *models.RentPayment
	err := r.v.read("Payments.GetByID", func(d *memData) error {
		if p, ok := d.payments[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r memPayments) filter(op string, agreementID uuid.UUID, keep func(models.RentPayment) bool) ([]*models.RentPayment, error) {
	var out []*models.RentPayment
	err := r.v.read(op, func(d *memData) error {
		for _, p := range d.payments {
			if p.RentalAgreementID == agreementID && !p.IsDeleted && keep(p) {
				c := p
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

func (r memPayments) ListByAgreement(_ context.Context, agreementID uuid.UUID) ([]*models.RentPayment, error) {
	return r.filter("Payments.ListByAgreement", agreementID, func(models.RentPayment) bool { return true })
}

func (r memPayments) ListOutstandingForUpdate(_ context.Context, agreementID uuid.UUID) ([]*models.RentPayment, error) {
	return r.filter("Payments.ListOutstandingForUpdate", agreementID, func(p models.RentPayment) bool {
		return p.Status.IsOutstanding()
	})
}

func (r memPayments) LatestDueDate(_ context.Context, agreementID uuid.UUID) (*time.Time, error) {
	list, err := r.filter("Payments.LatestDueDate", agreementID, func(p models.RentPayment) bool {
		return p.Status != models.PaymentStatusCancelled
	})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	latest := list[len(list)-1].DueDate
	return &latest, nil
}

func (r memPayments) MostRecentUnpaid(_ context.Context, agreementID uuid.UUID) (*models.RentPayment, error) {
	list, err := r.filter("Payments.MostRecentUnpaid", agreementID, func(p models.RentPayment) bool {
		return p.Status.IsOutstanding()
	})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[len(list)-1], nil
}

func (r memPayments) SumFutureCompleted(_ context.Context, agreementID uuid.UUID, asOf time.Time) (int64, error) {
	list, err := r.filter("Payments.SumFutureCompleted", agreementID, func(p models.RentPayment) bool {
		return p.Status == models.PaymentStatusCompleted && p.DueDate.After(asOf)
	})
	var total int64
	for _, p := range list {
		total += p.AmountPaidCents
	}
	return total, err
}

func (r memPayments) UpdateIfVersion(_ context.Context, p *models.RentPayment, expected int64) (pgconn.CommandTag, error) {
	tag := tagMissed
	err := r.v.write("Payments.UpdateIfVersion", func(d *memData) error {
		cur, ok := d.payments[p.ID]
		if !ok || cur.RowVersion != expected {
			return nil
		}
		next := *p
		next.RowVersion = expected + 1
		d.payments[p.ID] = next
		tag = tagUpdated
		return nil
	})
	return tag, err
}

func (r memPayments) Save(ctx context.Context, p *models.RentPayment) error {
	return repositories.SaveVersioned(ctx, p, r.UpdateIfVersion)
}

func (r memPayments) bulk(op string, match func(models.RentPayment) bool, to models.PaymentStatus) (int64, error) {
	var n int64
	err := r.v.write(op, func(d *memData) error {
		for id, p := range d.payments {
			if !match(p) {
				continue
			}
			p.Status = to
			p.RowVersion++
			d.payments[id] = p
			n++
		}
		return nil
	})
	return n, err
}

func (r memPayments) CancelOutstanding(_ context.Context, agreementID uuid.UUID) (int64, error) {
	return r.bulk("Payments.CancelOutstanding", func(p models.RentPayment) bool {
		return p.RentalAgreementID == agreementID && p.Status.IsOutstanding()
	}, models.PaymentStatusCancelled)
}

func (r memPayments) RefundFutureCompleted(_ context.Context, agreementID uuid.UUID, asOf time.Time) (int64, error) {
	return r.bulk("Payments.RefundFutureCompleted", func(p models.RentPayment) bool {
		return p.RentalAgreementID == agreementID && p.Status == models.PaymentStatusCompleted && p.DueDate.After(asOf)
	}, models.PaymentStatusRefunded)
}

func (r memPayments) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	return r.bulk("Payments.MarkOverdue", func(p models.RentPayment) bool {
		return p.Status == models.PaymentStatusPending && p.DueDate.Before(asOf) && !p.IsDeleted
	}, models.PaymentStatusOverdued)
}

/* ───────────── deposits ───────────── */

type memDeposits struct{ v *memView }

func (r memDeposits) Create(_ context.Context, dep *models.SecurityDeposit) error {
	return r.v.write("Deposits.Create", func(d *memData) error {
		for _, existing := range d.deposits {
			if existing.RentalAgreementID == dep.RentalAgreementID {
				return fmt.Errorf("deposit for agreement %s already exists", dep.RentalAgreementID)
			}
		}
		dep.RowVersion = 1
		d.deposits[dep.ID] = *dep
		return nil
	})
}

func (r memDeposits) GetByAgreementID(_ context.Context, agreementID uuid.UUID) (*models.SecurityDeposit, error) {
	var out *models.SecurityDeposit
	err := r.v.read("Deposits.GetByAgreementID", func(d *memData) error {
		for _, dep := range d.deposits {
			if dep.RentalAgreementID == agreementID {
				c := dep
				out = &c
			}
		}
		return nil
	})
	return out, err
}

func (r memDeposits) UpdateIfVersion(_ context.Context, dep *models.SecurityDeposit, expected int64) (pgconn.CommandTag, error) {
	tag := tagMissed
	err := r.v.write("Deposits.UpdateIfVersion", func(d *memData) error {
		cur, ok := d.deposits[dep.ID]
		if !ok || cur.RowVersion != expected {
			return nil
		}
		next := *dep
		next.RowVersion = expected + 1
		d.deposits[dep.ID] = next
		tag = tagUpdated
		return nil
	})
	return tag, err
}

func (r memDeposits) Save(ctx context.Context, dep *models.SecurityDeposit) error {
	return repositories.SaveVersioned(ctx, dep, r.UpdateIfVersion)
}

/* ───────────── eviction logs ───────────── */

type memEvictions struct{ v *memView }

func (r memEvictions) Create(_ context.Context, e *models.EvictionLog) error {
	return r.v.write("Evictions.Create", func(d *memData) error {
		e.RowVersion = 1
		d.evictions[e.ID] = *e
		return nil
	})
}

func (r memEvictions) get(op string, id uuid.UUID) (*models.EvictionLog, error) {
	var out *models.EvictionLog
	err := r.v.read(op, func(d *memData) error {
		if e, ok := d.evictions[id]; ok {
			out = &e
		}
		return nil
	})
	return out, err
}

func (r memEvictions) GetByID(_ context.Context, id uuid.UUID) (*models.EvictionLog, error) {
	return r.get("Evictions.GetByID", id)
}

func (r memEvictions) GetByIDForUpdate(_ context.Context, id uuid.UUID) (*models.EvictionLog, error) {
	return r.get("Evictions.GetByIDForUpdate", id)
}

func (r memEvictions) GetOpenByAgreement(_ context.Context, agreementID uuid.UUID) (*models.EvictionLog, error) {
	var out *models.EvictionLog
	err := r.v.read("Evictions.GetOpenByAgreement", func(d *memData) error {
		for _, e := range d.evictions {
			if e.RentalAgreementID == agreementID && e.Status == models.EvictionStatusWarning {
				c := e
				out = &c
			}
		}
		return nil
	})
	return out, err
}

func (r memEvictions) ListExpiredWarnings(_ context.Context, asOf time.Time) ([]*models.EvictionLog, error) {
	var out []*models.EvictionLog
	err := r.v.read("Evictions.ListExpiredWarnings", func(d *memData) error {
		for _, e := range d.evictions {
			if e.Status == models.EvictionStatusWarning && e.GracePeriodEnd.Before(asOf) {
				c := e
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].GracePeriodEnd.Before(out[j].GracePeriodEnd) })
	return out, err
}

func (r memEvictions) UpdateIfVersion(_ context.Context, e *models.EvictionLog, expected int64) (pgconn.CommandTag, error) {
	tag := tagMissed
	err := r.v.write("Evictions.UpdateIfVersion", func(d *memData) error {
		cur, ok := d.evictions[e.ID]
		if !ok || cur.RowVersion != expected {
			return nil
		}
		next := *e
		next.RowVersion = expected + 1
		d.evictions[e.ID] = next
		tag = tagUpdated
		return nil
	})
	return tag, err
}

func (r memEvictions) Save(ctx context.Context, e *models.EvictionLog) error {
	return repositories.SaveVersioned(ctx, e, r.UpdateIfVersion)
}

/* ───────────── breach logs ───────────── */

type memBreaches struct{ v *memView }

func (r memBreaches) Create(_ context.Context, b *models.BreachLog) error {
	return r.v.write("Breaches.Create", func(d *memData) error {
		b.RowVersion = 1
		d.breaches[b.ID] = *b
		return nil
	})
}

func (r memBreaches) get(op string, id uuid.UUID) (*models.BreachLog, error) {
	var out *models.BreachLog
	err := r.v.read(op, func(d *memData) error {
		if b, ok := d.breaches[id]; ok {
			out = &b
		}
		return nil
	})
	return out, err
}

func (r memBreaches) GetByID(_ context.Context, id uuid.UUID) (*models.BreachLog, error) {
	return r.get("Breaches.GetByID", id)
}

func (r memBreaches) GetByIDForUpdate(_ context.Context, id uuid.UUID) (*models.BreachLog, error) {
	return r.get("Breaches.GetByIDForUpdate", id)
}

func (r memBreaches) GetOpenByAgreement(_ context.Context, agreementID uuid.UUID) (*models.BreachLog, error) {
	var out *models.BreachLog
	err := r.v.read("Breaches.GetOpenByAgreement", func(d *memData) error {
		for _, b := range d.breaches {
			if b.RentalAgreementID != agreementID {
				continue
			}
			switch b.Status {
			case models.BreachStatusResolved, models.BreachStatusCancelled, models.BreachStatusEvicted:
				continue
			}
			c := b
			out = &c
		}
		return nil
	})
	return out, err
}

func (r memBreaches) UpdateIfVersion(_ context.Context, b *models.BreachLog, expected int64) (pgconn.CommandTag, error) {
	tag := tagMissed
	err := r.v.write("Breaches.UpdateIfVersion", func(d *memData) error {
		cur, ok := d.breaches[b.ID]
		if !ok || cur.RowVersion != expected {
			return nil
		}
		next := *b
		next.RowVersion = expected + 1
		d.breaches[b.ID] = next
		tag = tagUpdated
		return nil
	})
	return tag, err
}

func (r memBreaches) Save(ctx context.Context, b *models.BreachLog) error {
	return repositories.SaveVersioned(ctx, b, r.UpdateIfVersion)
}

/* ───────────── properties & units ───────────── */

type memProperties struct{ v *memView }

func (r memProperties) Create(_ context.Context, p *models.Property) error {
	return r.v.write("Properties.Create", func(d *memData) error {
		p.RowVersion = 1
		d.properties[p.ID] = *p
		return nil
	})
}

func (r memProperties) GetByID(_ context.Context, id uuid.UUID) (*models.Property, error) {
	var out *models.Property
	err := r.v.read("Properties.GetByID", func(d *memData) error {
		if p, ok := d.properties[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r memProperties) UpdateIfVersion(_ context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error) {
	tag := tagMissed
	err := r.v.write("Properties.UpdateIfVersion", func(d *memData) error {
		cur, ok := d.properties[p.ID]
		if !ok || cur.RowVersion != expected {
			return nil
		}
		next := *p
		next.RowVersion = expected + 1
		d.properties[p.ID] = next
		tag = tagUpdated
		return nil
	})
	return tag, err
}

func (r memProperties) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error {
	return repositories.WithRetry(ctx, 3, id.String(),
		func(ctx context.Context, id string) (*models.Property, error) {
			return r.GetByID(ctx, uuid.MustParse(id))
		},
		r.UpdateIfVersion, mutate)
}

type memUnits struct{ v *memView }

func (r memUnits) Create(_ context.Context, u *models.Unit) error {
	return r.v.write("Units.Create", func(d *memData) error {
		u.RowVersion = 1
		d.units[u.ID] = *u
		return nil
	})
}

func (r memUnits) GetByID(_ context.Context, id uuid.UUID) (*models.Unit, error) {
	var out *models.Unit
	err := r.v.read("Units.GetByID", func(d *memData) error {
		if u, ok := d.units[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r memUnits) ListByPropertyID(_ context.Context, propID uuid.UUID) ([]*models.Unit, error) {
	var out []*models.Unit
	err := r.v.read("Units.ListByPropertyID", func(d *memData) error {
		for _, u := range d.units {
			if u.PropertyID == propID {
				c := u
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UnitNumber < out[j].UnitNumber })
	return out, err
}

func (r memUnits) UpdateIfVersion(_ context.Context, u *models.Unit, expected int64) (pgconn.CommandTag, error) {
	tag := tagMissed
	err := r.v.write("Units.UpdateIfVersion", func(d *memData) error {
		cur, ok := d.units[u.ID]
		if !ok || cur.RowVersion != expected {
			return nil
		}
		next := *u
		next.RowVersion = expected + 1
		d.units[u.ID] = next
		tag = tagUpdated
		return nil
	})
	return tag, err
}

func (r memUnits) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Unit) error) error {
	return repositories.WithRetry(ctx, 3, id.String(),
		func(ctx context.Context, id string) (*models.Unit, error) {
			return r.GetByID(ctx, uuid.MustParse(id))
		},
		r.UpdateIfVersion, mutate)
}

/* ───────────── users & notifications ───────────── */

type memUsers struct{ v *memView }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	return r.v.write("Users.Create", func(d *memData) error {
		d.users[u.ID] = *u
		return nil
	})
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	var out *models.User
	err := r.v.read("Users.GetByID", func(d *memData) error {
		if u, ok := d.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

type memNotifications struct{ v *memView }

func (r memNotifications) Create(_ context.Context, n *models.Notification) error {
	return r.v.write("Notifications.Create", func(d *memData) error {
		d.notifications = append(d.notifications, *n)
		return nil
	})
}

func (r memNotifications) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	var out []*models.Notification
	err := r.v.read("Notifications.ListByUser", func(d *memData) error {
		for i := len(d.notifications) - 1; i >= 0; i-- {
			if d.notifications[i].UserID != userID {
				continue
			}
			c := d.notifications[i]
			out = append(out, &c)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}
