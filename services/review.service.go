package services

import (
	"context"

	"booking-service/domain"
)

type CreateReviewInput struct {
	BookingID string `json:"bookingId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"required,min=5"`
}

type ReviewService interface {
	// CanReview succeeds (nil) iff the user holds a completed booking for
	// the property and has not reviewed that booking before.
	CanReview(ctx context.Context, userID, propertyID, bookingID string) error
	Create(ctx context.Context, actor domain.Actor, propertyID string, input CreateReviewInput) (*domain.Review, error)
	GetByProperty(ctx context.Context, propertyID string) ([]*domain.Review, error)
}
