package services

import (
	"context"

	"booking-service/domain"
)

// PropertyCatalog resolves property read models owned by the property
// service.
type PropertyCatalog interface {
	GetProperty(ctx context.Context, id string) (*domain.Property, error)
}
