package services

import (
	"context"
	"time"

	"booking-service/domain"
	"booking-service/repository"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type ReviewServiceImpl struct {
	reviews  repository.ReviewStore
	bookings repository.BookingStore
	validate *validator.Validate

	Tracer trace.Tracer
	logger *logrus.Logger

	Now func() time.Time
}

func NewReviewService(reviews repository.ReviewStore, bookings repository.BookingStore, tracer trace.Tracer, logger *logrus.Logger) *ReviewServiceImpl {
	return &ReviewServiceImpl{
		reviews:  reviews,
		bookings: bookings,
		validate: validator.New(),
		Tracer:   tracer,
		logger:   logger,
		Now:      time.Now,
	}
}

// CanReview gates review creation on booking history. Ownership is checked
// before completion, completion before uniqueness, so callers get the most
// specific failure first.
func (rs *ReviewServiceImpl) CanReview(ctx context.Context, userID, propertyID, bookingID string) error {
	ctx, span := rs.Tracer.Start(ctx, "ReviewService.CanReview")
	defer span.End()

	booking, err := rs.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != userID {
		return domain.NewAuthorizationError("You can only review properties you have stayed at")
	}
	if booking.PropertyID != propertyID {
		return domain.NewValidationError("Booking does not belong to this property")
	}
	if booking.Status != domain.Completed {
		return domain.NewValidationError("You can only review completed stays")
	}

	exists, err := rs.reviews.ExistsForBooking(ctx, userID, bookingID)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewValidationError("You have already reviewed this booking")
	}
	return nil
}

func (rs *ReviewServiceImpl) Create(ctx context.Context, actor domain.Actor, propertyID string, input CreateReviewInput) (*domain.Review, error) {
	ctx, span := rs.Tracer.Start(ctx, "ReviewService.Create")
	defer span.End()

	if err := rs.validate.Struct(input); err != nil {
		return nil, domain.NewValidationError("Rating must be between 1 and 5 and comment at least 5 characters long")
	}

	if err := rs.CanReview(ctx, actor.ID, propertyID, input.BookingID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		UserID:     actor.ID,
		PropertyID: propertyID,
		BookingID:  input.BookingID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		CreatedAt:  rs.Now(),
	}
	if err := rs.reviews.Insert(ctx, review); err != nil {
		return nil, err
	}

	rs.logger.WithFields(logrus.Fields{
		"path":     "services/review",
		"property": propertyID,
		"booking":  input.BookingID,
	}).Info("Review created")
	return review, nil
}

func (rs *ReviewServiceImpl) GetByProperty(ctx context.Context, propertyID string) ([]*domain.Review, error) {
	ctx, span := rs.Tracer.Start(ctx, "ReviewService.GetByProperty")
	defer span.End()

	return rs.reviews.GetByProperty(ctx, propertyID)
}
