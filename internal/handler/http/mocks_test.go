package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/StayGo/internal/domain"
	"github.com/utafrali/StayGo/internal/repository"
	pkgkafka "github.com/utafrali/StayGo/pkg/kafka"
	"github.com/utafrali/StayGo/pkg/pagination"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context, page pagination.Params) ([]domain.User, int, error) {
	args := m.Called(ctx, page)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Int(1), args.Error(2)
}

func (m *mockUserRepo) SearchByName(ctx context.Context, name string, page pagination.Params) ([]domain.User, int, error) {
	args := m.Called(ctx, name, page)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Int(1), args.Error(2)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockPlaceRepo struct {
	mock.Mock
}

func (m *mockPlaceRepo) Create(ctx context.Context, place *domain.Place) error {
	return m.Called(ctx, place).Error(0)
}

func (m *mockPlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Place), args.Error(1)
}

func (m *mockPlaceRepo) List(ctx context.Context, page pagination.Params) ([]domain.Place, int, error) {
	args := m.Called(ctx, page)
	places, _ := args.Get(0).([]domain.Place)
	return places, args.Int(1), args.Error(2)
}

func (m *mockPlaceRepo) Update(ctx context.Context, place *domain.Place) error {
	return m.Called(ctx, place).Error(0)
}

func (m *mockPlaceRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockRoomRepo struct {
	mock.Mock
}

func (m *mockRoomRepo) Create(ctx context.Context, room *domain.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *mockRoomRepo) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *mockRoomRepo) List(ctx context.Context, filter repository.RoomFilter, page pagination.Params) ([]domain.Room, int, error) {
	args := m.Called(ctx, filter, page)
	rooms, _ := args.Get(0).([]domain.Room)
	return rooms, args.Int(1), args.Error(2)
}

func (m *mockRoomRepo) Update(ctx context.Context, room *domain.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *mockRoomRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockReservationRepo struct {
	mock.Mock
}

func (m *mockReservationRepo) Create(ctx context.Context, r *domain.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReservationRepo) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *mockReservationRepo) List(ctx context.Context, page pagination.Params) ([]domain.Reservation, int, error) {
	args := m.Called(ctx, page)
	list, _ := args.Get(0).([]domain.Reservation)
	return list, args.Int(1), args.Error(2)
}

func (m *mockReservationRepo) ListByUser(ctx context.Context, userID string, page pagination.Params) ([]domain.Reservation, int, error) {
	args := m.Called(ctx, userID, page)
	list, _ := args.Get(0).([]domain.Reservation)
	return list, args.Int(1), args.Error(2)
}

func (m *mockReservationRepo) Update(ctx context.Context, r *domain.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReservationRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) List(ctx context.Context, page pagination.Params) ([]domain.Review, int, error) {
	args := m.Called(ctx, page)
	reviews, _ := args.Get(0).([]domain.Review)
	return reviews, args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) ListByRoom(ctx context.Context, roomID string, page pagination.Params) ([]domain.Review, int, error) {
	args := m.Called(ctx, roomID, page)
	reviews, _ := args.Get(0).([]domain.Review)
	return reviews, args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) Update(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockReviewRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
