package services

import (
	"context"

	"booking-service/domain"
)

// AuthGateway resolves the Authorization header into an acting user. The
// booking core never inspects the credential itself.
type AuthGateway interface {
	CurrentUser(ctx context.Context, token string) (*domain.Actor, error)
}
