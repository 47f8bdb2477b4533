package domain

type PropertyStatus string

const (
	PropertyAvailable   PropertyStatus = "AVAILABLE"
	PropertyMaintenance PropertyStatus = "MAINTENANCE"
	PropertyDeleted     PropertyStatus = "DELETED"
)

// Property is the read model served by the property service.
type Property struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	PricePerNight float64        `json:"pricePerNight"`
	OwnerID       string         `json:"ownerId"`
	Status        PropertyStatus `json:"status"`
}
