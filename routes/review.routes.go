package routes

import (
	"booking-service/handlers"

	"github.com/gin-gonic/gin"
)

type ReviewRouteHandler struct {
	reviewHandler handlers.ReviewHandler
}

func NewReviewRouteHandler(reviewHandler handlers.ReviewHandler) ReviewRouteHandler {
	return ReviewRouteHandler{reviewHandler}
}

func (rc *ReviewRouteHandler) ReviewRoute(rg *gin.RouterGroup) {
	router := rg.Group("/reviews")
	router.Use(handlers.ExtractTraceInfoMiddleware())

	router.POST("/create/:propertyId", rc.reviewHandler.CreateReview)
	router.GET("/get/:propertyId", rc.reviewHandler.GetPropertyReviews)
}
