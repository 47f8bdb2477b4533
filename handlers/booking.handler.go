package handlers

import (
	"context"
	"net/http"

	"booking-service/domain"
	"booking-service/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type BookingHandler struct {
	bookingService services.BookingService
	authGateway    services.AuthGateway
	Tracer         trace.Tracer
	logger         *logrus.Logger
}

func NewBookingHandler(bookingService services.BookingService, authGateway services.AuthGateway, tracer trace.Tracer, logger *logrus.Logger) BookingHandler {
	return BookingHandler{
		bookingService: bookingService,
		authGateway:    authGateway,
		Tracer:         tracer,
		logger:         logger,
	}
}

func (bh *BookingHandler) CreateBooking(c *gin.Context) {
	spanCtx, span := bh.Tracer.Start(c.Request.Context(), "BookingHandler.CreateBooking")
	defer span.End()

	actor, ok := bh.currentActor(c, spanCtx, span)
	if !ok {
		return
	}
	if actor.Role != domain.Guest {
		span.SetStatus(codes.Error, "Only guests can create bookings")
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied. Only guests can create bookings."})
		return
	}

	var input services.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	booking, err := bh.bookingService.Create(spanCtx, actor.ID, input)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (bh *BookingHandler) GetBooking(c *gin.Context) {
	spanCtx, span := bh.Tracer.Start(c.Request.Context(), "BookingHandler.GetBooking")
	defer span.End()

	actor, ok := bh.currentActor(c, spanCtx, span)
	if !ok {
		return
	}

	booking, err := bh.bookingService.GetByID(spanCtx, c.Param("id"), *actor)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (bh *BookingHandler) GetUserBookings(c *gin.Context) {
	spanCtx, span := bh.Tracer.Start(c.Request.Context(), "BookingHandler.GetUserBookings")
	defer span.End()

	actor, ok := bh.currentActor(c, spanCtx, span)
	if !ok {
		return
	}

	bookings, err := bh.bookingService.GetByUser(spanCtx, actor.ID, c.Query("status"))
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (bh *BookingHandler) GetPropertyBookings(c *gin.Context) {
	spanCtx, span := bh.Tracer.Start(c.Request.Context(), "BookingHandler.GetPropertyBookings")
	defer span.End()

	actor, ok := bh.currentActor(c, spanCtx, span)
	if !ok {
		return
	}

	bookings, err := bh.bookingService.GetByProperty(spanCtx, c.Param("propertyId"), *actor, c.Query("status"))
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (bh *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	spanCtx, span := bh.Tracer.Start(c.Request.Context(), "BookingHandler.UpdateBookingStatus")
	defer span.End()

	actor, ok := bh.currentActor(c, spanCtx, span)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		span.SetStatus(codes.Error, "Status is required")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	target, valid := domain.ParseBookingStatus(body.Status)
	if !valid {
		span.SetStatus(codes.Error, "Unknown status")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status " + body.Status})
		return
	}

	booking, err := bh.bookingService.TransitionStatus(spanCtx, c.Param("id"), *actor, target, body.Reason)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (bh *BookingHandler) CancelBooking(c *gin.Context) {
	spanCtx, span := bh.Tracer.Start(c.Request.Context(), "BookingHandler.CancelBooking")
	defer span.End()

	actor, ok := bh.currentActor(c, spanCtx, span)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	booking, err := bh.bookingService.Cancel(spanCtx, c.Param("id"), *actor, body.Reason)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled successfully", "booking": booking})
}

// SweepCompleted is the scheduler-facing primitive: it completes every
// confirmed booking whose stay has ended.
func (bh *BookingHandler) SweepCompleted(c *gin.Context) {
	spanCtx, span := bh.Tracer.Start(c.Request.Context(), "BookingHandler.SweepCompleted")
	defer span.End()

	actor, ok := bh.currentActor(c, spanCtx, span)
	if !ok {
		return
	}
	if actor.Role != domain.Admin {
		span.SetStatus(codes.Error, "Admin only")
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to complete bookings"})
		return
	}

	count, err := bh.bookingService.CompleteElapsed(spanCtx, timeNow())
	if err != nil {
		writeError(c, span, err)
		return
	}
	bh.logger.WithFields(logrus.Fields{"path": "handlers/booking", "completed": count}).Info("Completed elapsed bookings")
	c.JSON(http.StatusOK, gin.H{"completed": count})
}

func (bh *BookingHandler) currentActor(c *gin.Context, ctx context.Context, span trace.Span) (*domain.Actor, bool) {
	token := c.GetHeader("Authorization")
	actor, err := bh.authGateway.CurrentUser(ctx, token)
	if err != nil {
		span.SetStatus(codes.Error, "Failed to obtain current user information")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return nil, false
	}
	return actor, true
}
