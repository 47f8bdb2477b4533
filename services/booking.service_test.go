package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"booking-service/domain"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
)

type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[string]*domain.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[string]*domain.Booking)}
}

func (fs *fakeBookingStore) Insert(_ context.Context, booking *domain.Booking) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	booking.ID = primitive.NewObjectID()
	copied := *booking
	fs.bookings[booking.ID.Hex()] = &copied
	return nil
}

func (fs *fakeBookingStore) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	booking, ok := fs.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking not found")
	}
	copied := *booking
	return &copied, nil
}

func (fs *fakeBookingStore) HasOverlap(_ context.Context, propertyID string, start, end time.Time, excludeID string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for id, b := range fs.bookings {
		if b.PropertyID != propertyID || !b.Status.IsActive() || id == excludeID {
			continue
		}
		if b.StartDate.Before(end) && start.Before(b.EndDate) {
			return true, nil
		}
	}
	return false, nil
}

func (fs *fakeBookingStore) UpdateStatus(_ context.Context, id string, expected, next domain.BookingStatus, reason string) (*domain.Booking, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	booking, ok := fs.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking not found")
	}
	if booking.Status != expected {
		return nil, domain.NewConflictError("Booking was modified concurrently")
	}
	booking.Status = next
	if reason != "" {
		booking.CancellationReason = reason
	}
	copied := *booking
	return &copied, nil
}

func (fs *fakeBookingStore) GetByUser(_ context.Context, userID string, status domain.BookingStatus) (domain.Bookings, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	result := domain.Bookings{}
	for _, b := range fs.bookings {
		if b.UserID == userID && (status == "" || b.Status == status) {
			copied := *b
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (fs *fakeBookingStore) GetByProperty(_ context.Context, propertyID string, status domain.BookingStatus) (domain.Bookings, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	result := domain.Bookings{}
	for _, b := range fs.bookings {
		if b.PropertyID == propertyID && (status == "" || b.Status == status) {
			copied := *b
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (fs *fakeBookingStore) GetElapsedConfirmed(_ context.Context, now time.Time) (domain.Bookings, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	result := domain.Bookings{}
	for _, b := range fs.bookings {
		if b.Status == domain.Confirmed && !b.EndDate.After(now) {
			copied := *b
			result = append(result, &copied)
		}
	}
	return result, nil
}

type fakeCatalog struct {
	properties map[string]*domain.Property
}

func (fc *fakeCatalog) GetProperty(_ context.Context, id string) (*domain.Property, error) {
	property, ok := fc.properties[id]
	if !ok {
		return nil, domain.NewNotFoundError("Property not found")
	}
	copied := *property
	return &copied, nil
}

// stubPolicy mirrors the shipped rbac policy table.
type stubPolicy struct{}

func (stubPolicy) Allow(role domain.UserRole, action string) bool {
	switch action {
	case "confirm":
		return role == domain.Host || role == domain.Admin
	case "cancel":
		return role == domain.Guest || role == domain.Host || role == domain.Admin
	case "complete":
		return role == domain.System || role == domain.Admin
	}
	return false
}

var testNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func newTestService(lead time.Duration) (*BookingServiceImpl, *fakeBookingStore, *fakeCatalog) {
	store := newFakeBookingStore()
	catalog := &fakeCatalog{properties: map[string]*domain.Property{
		"prop-1": {ID: "prop-1", Name: "Seaside flat", PricePerNight: 100, OwnerID: "host-1", Status: domain.PropertyAvailable},
		"prop-2": {ID: "prop-2", Name: "Old mill", PricePerNight: 80, OwnerID: "host-2", Status: domain.PropertyMaintenance},
	}}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := NewBookingService(store, catalog, stubPolicy{}, NoopNotifier{}, lead, otel.Tracer("test"), logger)
	svc.Now = func() time.Time { return testNow }
	return svc, store, catalog
}

func createInput(start, end string) CreateBookingInput {
	return CreateBookingInput{PropertyID: "prop-1", StartDate: start, EndDate: end}
}

func TestCreateBooking(t *testing.T) {
	svc, _, _ := newTestService(0)

	booking, err := svc.Create(context.Background(), "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)

	assert.Equal(t, domain.Pending, booking.Status)
	assert.Equal(t, "guest-1", booking.UserID)
	assert.Equal(t, 400.0, booking.TotalPrice)
	assert.False(t, booking.ID.IsZero())
	assert.Equal(t, testNow, booking.CreatedAt)
}

func TestCreateBookingValidation(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateBookingInput
	}{
		{"missing fields", CreateBookingInput{PropertyID: "prop-1"}},
		{"bad date", createInput("not-a-date", "2025-08-05")},
		{"end equals start", createInput("2025-08-01", "2025-08-01")},
		{"end before start", createInput("2025-08-05", "2025-08-01")},
		{"start in the past", createInput("2025-06-01", "2025-06-05")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "guest-1", tc.input)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}

func TestCreateBookingPropertyChecks(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()

	_, err := svc.Create(ctx, "guest-1", CreateBookingInput{PropertyID: "ghost", StartDate: "2025-08-01", EndDate: "2025-08-05"})
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = svc.Create(ctx, "guest-1", CreateBookingInput{PropertyID: "prop-2", StartDate: "2025-08-01", EndDate: "2025-08-05"})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestOverlappingBookingConflicts(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()

	_, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, "guest-2", createInput("2025-08-03", "2025-08-06"))
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestAdjacentBookingsBothSucceed(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()

	_, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, "guest-2", createInput("2025-08-05", "2025-08-10"))
	require.NoError(t, err)
}

func TestCancelledBookingFreesInterval(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()

	booking, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, booking.ID.Hex(), domain.Actor{ID: "guest-1", Role: domain.Guest}, "change of plans")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "guest-2", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)
}

func TestConcurrentCreateOneWins(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else if domain.KindOf(err) == domain.KindConflict {
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestTransitionConfirm(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()

	booking, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)

	// The guest may not confirm their own booking.
	_, err = svc.TransitionStatus(ctx, booking.ID.Hex(), domain.Actor{ID: "guest-1", Role: domain.Guest}, domain.Confirmed, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))

	// Another host does not own the property.
	_, err = svc.TransitionStatus(ctx, booking.ID.Hex(), domain.Actor{ID: "host-2", Role: domain.Host}, domain.Confirmed, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))

	updated, err := svc.TransitionStatus(ctx, booking.ID.Hex(), domain.Actor{ID: "host-1", Role: domain.Host}, domain.Confirmed, "")
	require.NoError(t, err)
	assert.Equal(t, domain.Confirmed, updated.Status)
}

func TestTransitionIllegalPairs(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()
	admin := domain.Actor{ID: "admin-1", Role: domain.Admin}

	booking, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, booking.ID.Hex(), admin, "fraud")
	require.NoError(t, err)

	// Terminal state: even an admin cannot revive a cancelled booking.
	_, err = svc.TransitionStatus(ctx, booking.ID.Hex(), admin, domain.Confirmed, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.TransitionStatus(ctx, booking.ID.Hex(), admin, domain.Completed, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestCancelCompletedBookingMessage(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()
	admin := domain.Actor{ID: "admin-1", Role: domain.Admin}

	booking, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)
	_, err = svc.TransitionStatus(ctx, booking.ID.Hex(), admin, domain.Confirmed, "")
	require.NoError(t, err)
	_, err = svc.TransitionStatus(ctx, booking.ID.Hex(), admin, domain.Completed, "")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, booking.ID.Hex(), admin, "too late")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, "Cannot cancel a completed booking", err.Error())
}

func TestCancelRequiresReason(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()

	booking, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, booking.ID.Hex(), domain.Actor{ID: "guest-1", Role: domain.Guest}, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestCancellationWindow(t *testing.T) {
	svc, _, _ := newTestService(48 * time.Hour)
	ctx := context.Background()
	guest := domain.Actor{ID: "guest-1", Role: domain.Guest}

	// Check-in within the 2-day window.
	near, err := svc.Create(ctx, "guest-1", createInput("2025-07-02", "2025-07-04"))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, near.ID.Hex(), guest, "too risky")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	far, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)
	updated, err := svc.Cancel(ctx, far.ID.Hex(), guest, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, domain.Cancelled, updated.Status)
	assert.Equal(t, "change of plans", updated.CancellationReason)
}

func TestCancelForeignBooking(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()

	booking, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, booking.ID.Hex(), domain.Actor{ID: "guest-2", Role: domain.Guest}, "not mine")
	require.Error(t, err)
	assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))
}

func TestTransitionUnknownBooking(t *testing.T) {
	svc, _, _ := newTestService(0)

	_, err := svc.TransitionStatus(context.Background(), "deadbeefdeadbeefdeadbeef", domain.Actor{ID: "admin-1", Role: domain.Admin}, domain.Confirmed, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestCompleteElapsed(t *testing.T) {
	svc, store, _ := newTestService(0)
	ctx := context.Background()
	admin := domain.Actor{ID: "admin-1", Role: domain.Admin}

	past, err := svc.Create(ctx, "guest-1", createInput("2025-07-05", "2025-07-10"))
	require.NoError(t, err)
	future, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, past.ID.Hex(), admin, domain.Confirmed, "")
	require.NoError(t, err)
	_, err = svc.TransitionStatus(ctx, future.ID.Hex(), admin, domain.Confirmed, "")
	require.NoError(t, err)

	count, err := svc.CompleteElapsed(ctx, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	completed, err := store.GetByID(ctx, past.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.Completed, completed.Status)

	untouched, err := store.GetByID(ctx, future.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, domain.Confirmed, untouched.Status)
}

func TestGetByIDAuthorization(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()

	booking, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)
	id := booking.ID.Hex()

	_, err = svc.GetByID(ctx, id, domain.Actor{ID: "guest-1", Role: domain.Guest})
	assert.NoError(t, err)
	_, err = svc.GetByID(ctx, id, domain.Actor{ID: "host-1", Role: domain.Host})
	assert.NoError(t, err)
	_, err = svc.GetByID(ctx, id, domain.Actor{ID: "admin-1", Role: domain.Admin})
	assert.NoError(t, err)

	_, err = svc.GetByID(ctx, id, domain.Actor{ID: "guest-2", Role: domain.Guest})
	require.Error(t, err)
	assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))
}

func TestGetByPropertyAuthorization(t *testing.T) {
	svc, _, _ := newTestService(0)
	ctx := context.Background()

	_, err := svc.Create(ctx, "guest-1", createInput("2025-08-01", "2025-08-05"))
	require.NoError(t, err)

	bookings, err := svc.GetByProperty(ctx, "prop-1", domain.Actor{ID: "host-1", Role: domain.Host}, "")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	_, err = svc.GetByProperty(ctx, "prop-1", domain.Actor{ID: "host-2", Role: domain.Host}, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))

	_, err = svc.GetByProperty(ctx, "prop-1", domain.Actor{ID: "guest-1", Role: domain.Guest}, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindAuthorization, domain.KindOf(err))
}

func TestStatusFilterValidation(t *testing.T) {
	svc, _, _ := newTestService(0)

	_, err := svc.GetByUser(context.Background(), "guest-1", "SHIPPED")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
