package domain

import (
	"encoding/json"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	Pending   BookingStatus = "PENDING"
	Confirmed BookingStatus = "CONFIRMED"
	Cancelled BookingStatus = "CANCELLED"
	Completed BookingStatus = "COMPLETED"
)

// Booking intervals are half-open: the check-out date is excluded, so a
// booking ending on a date never collides with one starting on it.
type Booking struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PropertyID         string             `bson:"property_id" json:"propertyId"`
	UserID             string             `bson:"user_id" json:"userId"`
	StartDate          time.Time          `bson:"start_date" json:"startDate"`
	EndDate            time.Time          `bson:"end_date" json:"endDate"`
	Status             BookingStatus      `bson:"status" json:"status"`
	TotalPrice         float64            `bson:"total_price" json:"totalPrice"`
	CancellationReason string             `bson:"cancellation_reason,omitempty" json:"cancellationReason,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"createdAt"`
}

type Bookings []*Booking

func (b *Booking) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(b)
}

func (b Bookings) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(b)
}

// ActiveStatuses are the statuses that hold a property's dates. Cancelled
// bookings free their interval.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{Pending, Confirmed, Completed}
}

func (s BookingStatus) IsActive() bool {
	return s == Pending || s == Confirmed || s == Completed
}

var legalTransitions = map[BookingStatus][]BookingStatus{
	Pending:   {Confirmed, Cancelled},
	Confirmed: {Cancelled, Completed},
	Cancelled: {},
	Completed: {},
}

// CanTransitionTo reports whether target is structurally reachable from s,
// ignoring who is asking. Self-loops are illegal.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, next := range legalTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return len(legalTransitions[s]) == 0
}

func ParseBookingStatus(value string) (BookingStatus, bool) {
	switch BookingStatus(value) {
	case Pending, Confirmed, Cancelled, Completed:
		return BookingStatus(value), true
	}
	return "", false
}

// TransitionAction names the policy action a transition maps to, used as the
// casbin act value.
func TransitionAction(target BookingStatus) string {
	switch target {
	case Confirmed:
		return "confirm"
	case Cancelled:
		return "cancel"
	case Completed:
		return "complete"
	}
	return ""
}
