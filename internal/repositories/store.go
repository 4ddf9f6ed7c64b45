package repositories

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// UnitOfWork exposes every repository bound to one connection or transaction.
type UnitOfWork interface {
	Agreements() AgreementRepository
	Payments() RentPaymentRepository
	Deposits() SecurityDepositRepository
	Evictions() EvictionLogRepository
	Breaches() BreachLogRepository
	Properties() PropertyRepository
	Units() UnitRepository
	Users() UserRepository
	Notifications() NotificationRepository
}

// Store is the record store: repositories on the pool for plain reads, and
// WithTx for atomic multi-record operations. If fn returns an error nothing
// it wrote is kept.
type Store interface {
	UnitOfWork
	WithTx(ctx context.Context, fn func(tx UnitOfWork) error) error
}

type repoSet struct {
	agreements    AgreementRepository
	payments      RentPaymentRepository
	deposits      SecurityDepositRepository
	evictions     EvictionLogRepository
	breaches      BreachLogRepository
	properties    PropertyRepository
	units         UnitRepository
	users         UserRepository
	notifications NotificationRepository
}

func newRepoSet(db DB) *repoSet {
	return &repoSet{
		agreements:    NewAgreementRepository(db),
		payments:      NewRentPaymentRepository(db),
		deposits:      NewSecurityDepositRepository(db),
		evictions:     NewEvictionLogRepository(db),
		breaches:      NewBreachLogRepository(db),
		properties:    NewPropertyRepository(db),
		units:         NewUnitRepository(db),
		users:         NewUserRepository(db),
		notifications: NewNotificationRepository(db),
	}
}

func (s *repoSet) Agreements() AgreementRepository       { return s.agreements }
func (s *repoSet) Payments() RentPaymentRepository       { return s.payments }
func (s *repoSet) Deposits() SecurityDepositRepository   { return s.deposits }
func (s *repoSet) Evictions() EvictionLogRepository      { return s.evictions }
func (s *repoSet) Breaches() BreachLogRepository         { return s.breaches }
func (s *repoSet) Properties() PropertyRepository        { return s.properties }
func (s *repoSet) Units() UnitRepository                 { return s.units }
func (s *repoSet) Users() UserRepository                 { return s.users }
func (s *repoSet) Notifications() NotificationRepository { return s.notifications }

type pgStore struct {
	*repoSet
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) Store {
	return &pgStore{repoSet: newRepoSet(pool), pool: pool}
}

func (s *pgStore) WithTx(ctx context.Context, fn func(tx UnitOfWork) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(newRepoSet(tx))
	return err
}
