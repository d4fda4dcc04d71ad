package service

import (
	"context"
	"time"

	"refbot/events"
	"refbot/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, telegramID, referrerID int64) (bool, error) {
	args := m.Called(ctx, telegramID, referrerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ClaimReferral(ctx context.Context, telegramID int64) (bool, error) {
	args := m.Called(ctx, telegramID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CreditReferrer(ctx context.Context, referrerID, bonus int64, perLevel int) (int, int, bool, error) {
	args := m.Called(ctx, referrerID, bonus, perLevel)
	return args.Int(0), args.Int(1), args.Bool(2), args.Error(3)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, telegramID, delta int64) (bool, error) {
	args := m.Called(ctx, telegramID, delta)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Withdraw(ctx context.Context, telegramID, amount int64) (bool, error) {
	args := m.Called(ctx, telegramID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SetWallet(ctx context.Context, telegramID int64, address string) (bool, error) {
	args := m.Called(ctx, telegramID, address)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SetLastBonus(ctx context.Context, telegramID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, telegramID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}

// MockStatsRepository is a mock implementation of StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Get(ctx context.Context) (*models.GlobalStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GlobalStats), args.Error(1)
}

func (m *MockStatsRepository) IncrementUsers(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStatsRepository) IncrementReferrals(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStatsRepository) RecordWithdrawal(ctx context.Context, amount int64) error {
	args := m.Called(ctx, amount)
	return args.Error(0)
}

// MockJoinRequestRepository is a mock implementation of JoinRequestRepository
type MockJoinRequestRepository struct {
	mock.Mock
}

func (m *MockJoinRequestRepository) Save(ctx context.Context, userID, channelID int64) error {
	args := m.Called(ctx, userID, channelID)
	return args.Error(0)
}

func (m *MockJoinRequestRepository) Exists(ctx context.Context, userID, channelID int64) (bool, error) {
	args := m.Called(ctx, userID, channelID)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// attached with SetRepositories; lifecycle calls go through testify.
type MockUnitOfWork struct {
	mock.Mock
	userRepo        UserRepository
	statsRepo       StatsRepository
	joinRequestRepo JoinRequestRepository
	eventPublisher  EventPublisher
}

// SetRepositories attaches the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(users UserRepository, stats StatsRepository, joinRequests JoinRequestRepository, publisher EventPublisher) {
	m.userRepo = users
	m.statsRepo = stats
	m.joinRequestRepo = joinRequests
	m.eventPublisher = publisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Users() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) Stats() StatsRepository {
	return m.statsRepo
}

func (m *MockUnitOfWork) JoinRequests() JoinRequestRepository {
	return m.joinRequestRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventPublisher == nil {
		return &noopPublisher{}
	}
	return m.eventPublisher
}

type noopPublisher struct{}

func (*noopPublisher) Publish(events.Event) {}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
