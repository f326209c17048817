package handler

import (
	"context"

	"github.com/sanosuguru/go-facility-reservation/internal/application"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/actor"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/history"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/resource"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/space"
)

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	CreateReservation(ctx context.Context, input application.CreateReservationInput) (*reservation.Reservation, error)
	CheckAvailability(ctx context.Context, spaceID string, window application.WindowInput, excludeID string) (reservation.Availability, error)
	GetReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error)
	ListReservations(ctx context.Context, a actor.Actor, input application.ListReservationsInput) ([]*reservation.Reservation, error)
	ApproveReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error)
	RejectReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error)
	CancelReservation(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error)
	EditReservation(ctx context.Context, input application.EditReservationInput) (*reservation.Reservation, []reservation.FieldChange, error)
	DeleteReservation(ctx context.Context, a actor.Actor, id string) error
	ListHistory(ctx context.Context, a actor.Actor, id string) ([]*history.Entry, error)
}

// ResourceServiceInterface は備品サービスのインターフェース
type ResourceServiceInterface interface {
	RequestResources(ctx context.Context, a actor.Actor, reservationID string, inputs []application.ResourceRequestInput) ([]*resource.Request, error)
	ConfirmResource(ctx context.Context, a actor.Actor, reservationID, resourceID string, quantity int) (*resource.Request, error)
	RemoveResource(ctx context.Context, a actor.Actor, reservationID, resourceID string) error
	ListResources(ctx context.Context, a actor.Actor, reservationID string) ([]*resource.Request, error)
	AssignResource(ctx context.Context, a actor.Actor, spaceID, resourceID string, maxQuantity int) (*resource.Assignment, error)
	ListAssignments(ctx context.Context, spaceID string) ([]*resource.Assignment, error)
}

// SpaceServiceInterface はスペースサービスのインターフェース
type SpaceServiceInterface interface {
	CreateSpace(ctx context.Context, a actor.Actor, input application.CreateSpaceInput) (*space.Space, error)
	GetSpace(ctx context.Context, id string) (*space.Space, error)
	ListSpaces(ctx context.Context, limit, offset int) ([]*space.Space, error)
	UpdateSpace(ctx context.Context, a actor.Actor, input application.UpdateSpaceInput) (*space.Space, error)
	DeleteSpace(ctx context.Context, a actor.Actor, id string) error
}
