package services

import (
	"context"
	"time"

	"booking-service/domain"
)

type CreateBookingInput struct {
	PropertyID string `json:"propertyId" validate:"required"`
	StartDate  string `json:"startDate" validate:"required"`
	EndDate    string `json:"endDate" validate:"required"`
}

type BookingService interface {
	Create(ctx context.Context, userID string, input CreateBookingInput) (*domain.Booking, error)
	GetByID(ctx context.Context, bookingID string, actor domain.Actor) (*domain.Booking, error)
	GetByUser(ctx context.Context, userID string, status string) (domain.Bookings, error)
	GetByProperty(ctx context.Context, propertyID string, actor domain.Actor, status string) (domain.Bookings, error)
	TransitionStatus(ctx context.Context, bookingID string, actor domain.Actor, target domain.BookingStatus, reason string) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID string, actor domain.Actor, reason string) (*domain.Booking, error)
	CompleteElapsed(ctx context.Context, now time.Time) (int, error)
}
