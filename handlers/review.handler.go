package handlers

import (
	"net/http"

	"booking-service/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ReviewHandler struct {
	reviewService services.ReviewService
	authGateway   services.AuthGateway
	Tracer        trace.Tracer
	logger        *logrus.Logger
}

func NewReviewHandler(reviewService services.ReviewService, authGateway services.AuthGateway, tracer trace.Tracer, logger *logrus.Logger) ReviewHandler {
	return ReviewHandler{
		reviewService: reviewService,
		authGateway:   authGateway,
		Tracer:        tracer,
		logger:        logger,
	}
}

func (rh *ReviewHandler) CreateReview(c *gin.Context) {
	spanCtx, span := rh.Tracer.Start(c.Request.Context(), "ReviewHandler.CreateReview")
	defer span.End()

	token := c.GetHeader("Authorization")
	actor, err := rh.authGateway.CurrentUser(spanCtx, token)
	if err != nil {
		span.SetStatus(codes.Error, "Failed to obtain current user information")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var input services.CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		span.SetStatus(codes.Error, "Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	review, err := rh.reviewService.Create(spanCtx, *actor, c.Param("propertyId"), input)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (rh *ReviewHandler) GetPropertyReviews(c *gin.Context) {
	spanCtx, span := rh.Tracer.Start(c.Request.Context(), "ReviewHandler.GetPropertyReviews")
	defer span.End()

	reviews, err := rh.reviewService.GetByProperty(spanCtx, c.Param("propertyId"))
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}
