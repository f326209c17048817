package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-facility-reservation/internal/application"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/actor"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/history"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/resource"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/space"
)

// MockReservationService はReservationServiceInterfaceのモック
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) CreateReservation(ctx context.Context, input application.CreateReservationInput) (*reservation.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) CheckAvailability(ctx context.Context, spaceID string, window application.WindowInput, excludeID string) (reservation.Availability, error) {
	args := m.Called(ctx, spaceID, window, excludeID)
	return args.Get(0).(reservation.Availability), args.Error(1)
}

func (m *MockReservationService) GetReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error) {
	return m.one(m.Called(ctx, a, id))
}

func (m *MockReservationService) ListReservations(ctx context.Context, a actor.Actor, input application.ListReservationsInput) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, a, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) ApproveReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error) {
	return m.one(m.Called(ctx, a, id))
}

func (m *MockReservationService) RejectReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error) {
	return m.one(m.Called(ctx, a, id))
}

func (m *MockReservationService) CancelReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error) {
	return m.one(m.Called(ctx, a, id))
}

func (m *MockReservationService) EditReservation(ctx context.Context, input application.EditReservationInput) (*reservation.Reservation, []reservation.FieldChange, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	changes, _ := args.Get(1).([]reservation.FieldChange)
	return args.Get(0).(*reservation.Reservation), changes, args.Error(2)
}

func (m *MockReservationService) DeleteReservation(ctx context.Context, a actor.Actor, id string) error {
	args := m.Called(ctx, a, id)
	return args.Error(0)
}

func (m *MockReservationService) ListHistory(ctx context.Context, a actor.Actor, id string) ([]*history.Entry, error) {
	args := m.Called(ctx, a, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Entry), args.Error(1)
}

func (m *MockReservationService) one(args mock.Arguments) (*reservation.Reservation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

// MockResourceService はResourceServiceInterfaceのモック
type MockResourceService struct {
	mock.Mock
}

func (m *MockResourceService) RequestResources(ctx context.Context, a actor.Actor, reservationID string, inputs []application.ResourceRequestInput) ([]*resource.Request, error) {
	args := m.Called(ctx, a, reservationID, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*resource.Request), args.Error(1)
}

func (m *MockResourceService) ConfirmResource(ctx context.Context, a actor.Actor, reservationID, resourceID string, quantity int) (*resource.Request, error) {
	args := m.Called(ctx, a, reservationID, resourceID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resource.Request), args.Error(1)
}

func (m *MockResourceService) RemoveResource(ctx context.Context, a actor.Actor, reservationID, resourceID string) error {
	args := m.Called(ctx, a, reservationID, resourceID)
	return args.Error(0)
}

func (m *MockResourceService) ListResources(ctx context.Context, a actor.Actor, reservationID string) ([]*resource.Request, error) {
	args := m.Called(ctx, a, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*resource.Request), args.Error(1)
}

func (m *MockResourceService) AssignResource(ctx context.Context, a actor.Actor, spaceID, resourceID string, maxQuantity int) (*resource.Assignment, error) {
	args := m.Called(ctx, a, spaceID, resourceID, maxQuantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resource.Assignment), args.Error(1)
}

func (m *MockResourceService) ListAssignments(ctx context.Context, spaceID string) ([]*resource.Assignment, error) {
	args := m.Called(ctx, spaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*resource.Assignment), args.Error(1)
}

// MockSpaceService はSpaceServiceInterfaceのモック
type MockSpaceService struct {
	mock.Mock
}

func (m *MockSpaceService) CreateSpace(ctx context.Context, a actor.Actor, input application.CreateSpaceInput) (*space.Space, error) {
	args := m.Called(ctx, a, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*space.Space), args.Error(1)
}

func (m *MockSpaceService) GetSpace(ctx context.Context, id string) (*space.Space, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*space.Space), args.Error(1)
}

func (m *MockSpaceService) ListSpaces(ctx context.Context, limit, offset int) ([]*space.Space, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*space.Space), args.Error(1)
}

func (m *MockSpaceService) UpdateSpace(ctx context.Context, a actor.Actor, input application.UpdateSpaceInput) (*space.Space, error) {
	args := m.Called(ctx, a, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*space.Space), args.Error(1)
}

func (m *MockSpaceService) DeleteSpace(ctx context.Context, a actor.Actor, id string) error {
	args := m.Called(ctx, a, id)
	return args.Error(0)
}
