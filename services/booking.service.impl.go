package services

import (
	"context"
	"time"

	"booking-service/domain"
	"booking-service/repository"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type BookingServiceImpl struct {
	store    repository.BookingStore
	catalog  PropertyCatalog
	policy   TransitionPolicy
	notifier Notifier
	pricing  PricingCalculator
	locks    *propertyLocks

	// Minimum lead time before check-in required to cancel. Zero disables
	// the rule; completed bookings can never be cancelled regardless.
	cancellationLead time.Duration

	Tracer trace.Tracer
	logger *logrus.Logger

	// Now is the clock used for validation and the cancellation window,
	// overridable in tests.
	Now func() time.Time
}

func NewBookingService(store repository.BookingStore, catalog PropertyCatalog, policy TransitionPolicy,
	notifier Notifier, cancellationLead time.Duration, tracer trace.Tracer, logger *logrus.Logger) *BookingServiceImpl {
	return &BookingServiceImpl{
		store:            store,
		catalog:          catalog,
		policy:           policy,
		notifier:         notifier,
		pricing:          NewPricingCalculator(),
		locks:            newPropertyLocks(),
		cancellationLead: cancellationLead,
		Tracer:           tracer,
		logger:           logger,
		Now:              time.Now,
	}
}

func (bs *BookingServiceImpl) Create(ctx context.Context, userID string, input CreateBookingInput) (*domain.Booking, error) {
	ctx, span := bs.Tracer.Start(ctx, "BookingService.Create")
	defer span.End()

	if input.PropertyID == "" || input.StartDate == "" || input.EndDate == "" {
		return nil, domain.NewValidationError("Missing required booking information")
	}

	start, err := parseDate(input.StartDate)
	if err != nil {
		return nil, domain.NewValidationError("Invalid date format")
	}
	end, err := parseDate(input.EndDate)
	if err != nil {
		return nil, domain.NewValidationError("Invalid date format")
	}
	if !end.After(start) {
		return nil, domain.NewValidationError("End date must be after start date")
	}

	now := bs.Now()
	if start.Before(now) {
		return nil, domain.NewValidationError("Start date must be in the future")
	}

	property, err := bs.catalog.GetProperty(ctx, input.PropertyID)
	if err != nil {
		span.SetStatus(codes.Error, "Property lookup failed")
		return nil, err
	}
	if property.Status != domain.PropertyAvailable {
		return nil, domain.NewValidationError("Property is not available for booking")
	}

	// Overlap check and insert run under the property's lock so two
	// concurrent requests cannot both pass the check.
	lock := bs.locks.forProperty(input.PropertyID)
	lock.Lock()
	defer lock.Unlock()

	overlaps, err := bs.store.HasOverlap(ctx, input.PropertyID, start, end, "")
	if err != nil {
		span.SetStatus(codes.Error, "Overlap check failed")
		return nil, err
	}
	if overlaps {
		return nil, domain.NewConflictError("Property is not available for these dates")
	}

	booking := &domain.Booking{
		PropertyID: input.PropertyID,
		UserID:     userID,
		StartDate:  start,
		EndDate:    end,
		Status:     domain.Pending,
		TotalPrice: bs.pricing.Total(property.PricePerNight, start, end),
		CreatedAt:  now,
	}
	if err := bs.store.Insert(ctx, booking); err != nil {
		span.SetStatus(codes.Error, "Booking insert failed")
		return nil, err
	}

	bs.logger.WithFields(logrus.Fields{
		"path":     "services/booking",
		"booking":  booking.ID.Hex(),
		"property": booking.PropertyID,
	}).Info("Booking created")
	return booking, nil
}

func (bs *BookingServiceImpl) GetByID(ctx context.Context, bookingID string, actor domain.Actor) (*domain.Booking, error) {
	ctx, span := bs.Tracer.Start(ctx, "BookingService.GetByID")
	defer span.End()

	booking, err := bs.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := bs.authorizeView(ctx, booking, actor); err != nil {
		return nil, err
	}
	return booking, nil
}

func (bs *BookingServiceImpl) GetByUser(ctx context.Context, userID string, status string) (domain.Bookings, error) {
	ctx, span := bs.Tracer.Start(ctx, "BookingService.GetByUser")
	defer span.End()

	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	return bs.store.GetByUser(ctx, userID, filter)
}

func (bs *BookingServiceImpl) GetByProperty(ctx context.Context, propertyID string, actor domain.Actor, status string) (domain.Bookings, error) {
	ctx, span := bs.Tracer.Start(ctx, "BookingService.GetByProperty")
	defer span.End()

	filter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}

	if actor.Role != domain.Admin {
		if actor.Role != domain.Host {
			return nil, domain.NewAuthorizationError("Not authorized to view property bookings")
		}
		property, err := bs.catalog.GetProperty(ctx, propertyID)
		if err != nil {
			return nil, err
		}
		if property.OwnerID != actor.ID {
			return nil, domain.NewAuthorizationError("Not authorized to view property bookings")
		}
	}
	return bs.store.GetByProperty(ctx, propertyID, filter)
}

func (bs *BookingServiceImpl) TransitionStatus(ctx context.Context, bookingID string, actor domain.Actor, target domain.BookingStatus, reason string) (*domain.Booking, error) {
	ctx, span := bs.Tracer.Start(ctx, "BookingService.TransitionStatus")
	defer span.End()

	booking, err := bs.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// The completed guard precedes the generic transition table so the
	// caller-facing message stays stable.
	if target == domain.Cancelled && booking.Status == domain.Completed {
		return nil, domain.NewValidationError("Cannot cancel a completed booking")
	}
	if !booking.Status.CanTransitionTo(target) {
		return nil, domain.NewValidationError("Cannot transition from %s to %s", booking.Status, target)
	}

	if err := bs.authorizeTransition(ctx, booking, actor, target); err != nil {
		return nil, err
	}

	if target == domain.Cancelled {
		if reason == "" {
			return nil, domain.NewValidationError("Cancellation reason is required")
		}
		if bs.cancellationLead > 0 && bs.Now().Add(bs.cancellationLead).After(booking.StartDate) {
			return nil, domain.NewValidationError("Booking cannot be cancelled at this time")
		}
	}

	updated, err := bs.store.UpdateStatus(ctx, bookingID, booking.Status, target, reason)
	if err != nil {
		span.SetStatus(codes.Error, "Status update failed")
		return nil, err
	}

	bs.logger.WithFields(logrus.Fields{
		"path":    "services/booking",
		"booking": updated.ID.Hex(),
		"status":  updated.Status,
	}).Info("Booking status changed")

	if target == domain.Confirmed || target == domain.Cancelled {
		bs.notifier.NotifyStatusChange(updated, actor.Email)
	}
	return updated, nil
}

func (bs *BookingServiceImpl) Cancel(ctx context.Context, bookingID string, actor domain.Actor, reason string) (*domain.Booking, error) {
	return bs.TransitionStatus(ctx, bookingID, actor, domain.Cancelled, reason)
}

// CompleteElapsed moves every confirmed booking whose stay has ended to
// COMPLETED, acting as the system. Bookings changed concurrently are
// skipped.
func (bs *BookingServiceImpl) CompleteElapsed(ctx context.Context, now time.Time) (int, error) {
	ctx, span := bs.Tracer.Start(ctx, "BookingService.CompleteElapsed")
	defer span.End()

	elapsed, err := bs.store.GetElapsedConfirmed(ctx, now)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, booking := range elapsed {
		_, err := bs.store.UpdateStatus(ctx, booking.ID.Hex(), domain.Confirmed, domain.Completed, "")
		if err != nil {
			if domain.KindOf(err) == domain.KindConflict {
				continue
			}
			return completed, err
		}
		completed++
	}
	return completed, nil
}

func (bs *BookingServiceImpl) authorizeView(ctx context.Context, booking *domain.Booking, actor domain.Actor) error {
	if actor.Role == domain.Admin || booking.UserID == actor.ID {
		return nil
	}
	if actor.Role == domain.Host {
		property, err := bs.catalog.GetProperty(ctx, booking.PropertyID)
		if err == nil && property.OwnerID == actor.ID {
			return nil
		}
	}
	return domain.NewAuthorizationError("Not authorized to view this booking")
}

func (bs *BookingServiceImpl) authorizeTransition(ctx context.Context, booking *domain.Booking, actor domain.Actor, target domain.BookingStatus) error {
	action := domain.TransitionAction(target)
	if !bs.policy.Allow(actor.Role, action) {
		return domain.NewAuthorizationError("Not authorized to %s bookings", action)
	}
	if actor.Role == domain.Admin || actor.Role == domain.System {
		return nil
	}

	switch actor.Role {
	case domain.Guest:
		if booking.UserID != actor.ID {
			return domain.NewAuthorizationError("Not authorized to cancel this booking")
		}
	case domain.Host:
		property, err := bs.catalog.GetProperty(ctx, booking.PropertyID)
		if err != nil {
			return err
		}
		if property.OwnerID != actor.ID {
			return domain.NewAuthorizationError("Not authorized to %s bookings for this property", action)
		}
	}
	return nil
}

func parseStatusFilter(status string) (domain.BookingStatus, error) {
	if status == "" {
		return "", nil
	}
	parsed, ok := domain.ParseBookingStatus(status)
	if !ok {
		return "", domain.NewValidationError("Invalid status %q", status)
	}
	return parsed, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", value)
}
