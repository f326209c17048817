package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/history"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/notification"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/resource"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/space"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-facility-reservation/internal/infrastructure/redis"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockReservationRepository implements reservation.Repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) List(ctx context.Context, f reservation.Filter) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListActiveBySpace(ctx context.Context, spaceID string, w reservation.Window) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, spaceID, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListActiveBySpaceTx(ctx context.Context, tx transaction.Tx, spaceID string, w reservation.Window) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, tx, spaceID, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) Update(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) LockNumbering(ctx context.Context, tx transaction.Tx, year int) error {
	args := m.Called(ctx, tx, year)
	return args.Error(0)
}

func (m *MockReservationRepository) CountCreatedInYear(ctx context.Context, tx transaction.Tx, year int) (int, error) {
	args := m.Called(ctx, tx, year)
	return args.Int(0), args.Error(1)
}

func (m *MockReservationRepository) HasActiveFrom(ctx context.Context, spaceID string, from time.Time) (bool, error) {
	args := m.Called(ctx, spaceID, from)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepository) CountByStatus(ctx context.Context) (map[reservation.Status]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[reservation.Status]int), args.Error(1)
}

// MockSpaceRepository implements space.Repository
type MockSpaceRepository struct {
	mock.Mock
}

func (m *MockSpaceRepository) Create(ctx context.Context, s *space.Space) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSpaceRepository) GetByID(ctx context.Context, id string) (*space.Space, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*space.Space), args.Error(1)
}

func (m *MockSpaceRepository) List(ctx context.Context, limit, offset int) ([]*space.Space, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*space.Space), args.Error(1)
}

func (m *MockSpaceRepository) Update(ctx context.Context, s *space.Space) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSpaceRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSpaceRepository) LockForBooking(ctx context.Context, tx transaction.Tx, id string) (*space.Space, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*space.Space), args.Error(1)
}

// MockResourceRepository implements resource.Repository
type MockResourceRepository struct {
	mock.Mock
}

func (m *MockResourceRepository) GetResource(ctx context.Context, id string) (*resource.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resource.Resource), args.Error(1)
}

func (m *MockResourceRepository) GetAssignment(ctx context.Context, spaceID, resourceID string) (*resource.Assignment, error) {
	args := m.Called(ctx, spaceID, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resource.Assignment), args.Error(1)
}

func (m *MockResourceRepository) ListAssignments(ctx context.Context, spaceID string) ([]*resource.Assignment, error) {
	args := m.Called(ctx, spaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*resource.Assignment), args.Error(1)
}

func (m *MockResourceRepository) SaveAssignment(ctx context.Context, a *resource.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockResourceRepository) UpsertRequest(ctx context.Context, tx transaction.Tx, r *resource.Request) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockResourceRepository) GetRequestForUpdate(ctx context.Context, tx transaction.Tx, reservationID, resourceID string) (*resource.Request, error) {
	args := m.Called(ctx, tx, reservationID, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resource.Request), args.Error(1)
}

func (m *MockResourceRepository) UpdateConfirmed(ctx context.Context, tx transaction.Tx, r *resource.Request) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockResourceRepository) DeleteRequest(ctx context.Context, reservationID, resourceID string) error {
	args := m.Called(ctx, reservationID, resourceID)
	return args.Error(0)
}

func (m *MockResourceRepository) ListRequests(ctx context.Context, reservationID string) ([]*resource.Request, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*resource.Request), args.Error(1)
}

// MockHistoryRepository implements history.Repository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, e *history.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListByReservation(ctx context.Context, reservationID string) ([]*history.Entry, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Entry), args.Error(1)
}

// MockLockManager implements redisinfra.LockManagerInterface
type MockLockManager struct {
	mock.Mock
}

func (m *MockLockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (redisinfra.Lock, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

func (m *MockLockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryInterval time.Duration) (redisinfra.Lock, error) {
	args := m.Called(ctx, key, ttl, maxRetries, retryInterval)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

// MockLock implements redisinfra.Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPublisher implements notification.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg *notification.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockSpaceCache implements SpaceCache
type MockSpaceCache struct {
	mock.Mock
}

func (m *MockSpaceCache) Get(ctx context.Context, id string) (*space.Space, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*space.Space), args.Error(1)
}

func (m *MockSpaceCache) Set(ctx context.Context, s *space.Space, ttl time.Duration) error {
	args := m.Called(ctx, s, ttl)
	return args.Error(0)
}

func (m *MockSpaceCache) Invalidate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
