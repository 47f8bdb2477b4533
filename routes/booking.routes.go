package routes

import (
	"booking-service/handlers"

	"github.com/gin-gonic/gin"
)

type BookingRouteHandler struct {
	bookingHandler handlers.BookingHandler
}

func NewBookingRouteHandler(bookingHandler handlers.BookingHandler) BookingRouteHandler {
	return BookingRouteHandler{bookingHandler}
}

func (bc *BookingRouteHandler) BookingRoute(rg *gin.RouterGroup) {
	router := rg.Group("/bookings")
	router.Use(handlers.ExtractTraceInfoMiddleware())

	router.POST("/create", bc.bookingHandler.CreateBooking)
	router.GET("/get/:id", bc.bookingHandler.GetBooking)
	router.GET("/getByUser", bc.bookingHandler.GetUserBookings)
	router.GET("/getByProperty/:propertyId", bc.bookingHandler.GetPropertyBookings)
	router.PATCH("/updateStatus/:id", bc.bookingHandler.UpdateBookingStatus)
	router.PATCH("/cancel/:id", bc.bookingHandler.CancelBooking)
	router.POST("/completeElapsed", bc.bookingHandler.SweepCompleted)
}
