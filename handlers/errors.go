package handlers

import (
	"net/http"

	"booking-service/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// writeError maps the closed error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is reported opaquely.
func writeError(c *gin.Context, span trace.Span, err error) {
	message := err.Error()
	var status int

	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindAuthorization:
		status = http.StatusForbidden
	default:
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	span.SetStatus(codes.Error, message)
	c.JSON(status, gin.H{"error": message})
}
