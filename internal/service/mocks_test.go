package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/internal/event"
	"github.com/utafrali/StayGo/internal/repository"
	pkgkafka "github.com/utafrali/StayGo/pkg/kafka"
	"github.com/utafrali/StayGo/pkg/pagination"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Event publisher ---

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func (p *fakePublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func newTestProducer() (*event.Producer, *fakePublisher) {
	pub := &fakePublisher{}
	return event.NewProducer(pub, newTestLogger()), pub
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, page pagination.Params) ([]domain.User, int, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *mockUserRepository) SearchByName(ctx context.Context, name string, page pagination.Params) ([]domain.User, int, error) {
	args := m.Called(ctx, name, page)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// --- Mock Session Store ---

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Create(ctx context.Context, email string) (*domain.Session, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionStore) Touch(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionStore) Invalidate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionStore) DeleteByEmail(ctx context.Context, email string) (int, error) {
	args := m.Called(ctx, email)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionStore) SweepExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// --- Mock Place Repository ---

type mockPlaceRepository struct {
	mock.Mock
}

func (m *mockPlaceRepository) Create(ctx context.Context, place *domain.Place) error {
	return m.Called(ctx, place).Error(0)
}

func (m *mockPlaceRepository) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Place), args.Error(1)
}

func (m *mockPlaceRepository) List(ctx context.Context, page pagination.Params) ([]domain.Place, int, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.Place), args.Int(1), args.Error(2)
}

func (m *mockPlaceRepository) Update(ctx context.Context, place *domain.Place) error {
	return m.Called(ctx, place).Error(0)
}

func (m *mockPlaceRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// --- Mock Room Repository ---

type mockRoomRepository struct {
	mock.Mock
}

func (m *mockRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *mockRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *mockRoomRepository) List(ctx context.Context, filter repository.RoomFilter, page pagination.Params) ([]domain.Room, int, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]domain.Room), args.Int(1), args.Error(2)
}

func (m *mockRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *mockRoomRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// --- Mock Reservation Repository ---

type mockReservationRepository struct {
	mock.Mock
}

func (m *mockReservationRepository) Create(ctx context.Context, r *domain.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *mockReservationRepository) List(ctx context.Context, page pagination.Params) ([]domain.Reservation, int, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.Reservation), args.Int(1), args.Error(2)
}

func (m *mockReservationRepository) ListByUser(ctx context.Context, userID string, page pagination.Params) ([]domain.Reservation, int, error) {
	args := m.Called(ctx, userID, page)
	return args.Get(0).([]domain.Reservation), args.Int(1), args.Error(2)
}

func (m *mockReservationRepository) Update(ctx context.Context, r *domain.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReservationRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context, page pagination.Params) ([]domain.Review, int, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) ListByRoom(ctx context.Context, roomID string, page pagination.Params) ([]domain.Review, int, error) {
	args := m.Called(ctx, roomID, page)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

var (
	_ repository.UserRepository        = (*mockUserRepository)(nil)
	_ repository.SessionStore          = (*mockSessionStore)(nil)
	_ repository.PlaceRepository       = (*mockPlaceRepository)(nil)
	_ repository.RoomRepository        = (*mockRoomRepository)(nil)
	_ repository.ReservationRepository = (*mockReservationRepository)(nil)
	_ repository.ReviewRepository      = (*mockReviewRepository)(nil)
)
