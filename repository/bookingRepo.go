package repository

import (
	"context"
	"time"

	"booking-service/domain"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/trace"
)

// BookingStore is the persistence contract the booking service depends on.
// The overlap query is only meaningful when evaluated inside the caller's
// per-property critical section.
type BookingStore interface {
	Insert(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	HasOverlap(ctx context.Context, propertyID string, start, end time.Time, excludeID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, expected, next domain.BookingStatus, reason string) (*domain.Booking, error)
	GetByUser(ctx context.Context, userID string, status domain.BookingStatus) (domain.Bookings, error)
	GetByProperty(ctx context.Context, propertyID string, status domain.BookingStatus) (domain.Bookings, error)
	GetElapsedConfirmed(ctx context.Context, now time.Time) (domain.Bookings, error)
}

type BookingRepo struct {
	collection *mongo.Collection
	logger     *logrus.Logger
	Tracer     trace.Tracer
}

func NewBookingRepo(collection *mongo.Collection, logger *logrus.Logger, tracer trace.Tracer) *BookingRepo {
	return &BookingRepo{collection: collection, logger: logger, Tracer: tracer}
}

// EnsureIndexes creates the compound index the overlap query scans.
func (br *BookingRepo) EnsureIndexes(ctx context.Context) error {
	_, err := br.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "property_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_date", Value: 1},
		},
	})
	return err
}

func (br *BookingRepo) Insert(ctx context.Context, booking *domain.Booking) error {
	ctx, span := br.Tracer.Start(ctx, "BookingRepo.Insert")
	defer span.End()

	result, err := br.collection.InsertOne(ctx, booking)
	if err != nil {
		br.logger.WithFields(logrus.Fields{"path": "repository/booking"}).Error("Insert failed: ", err)
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid
	}
	return nil
}

func (br *BookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := br.Tracer.Start(ctx, "BookingRepo.GetByID")
	defer span.End()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.NewNotFoundError("Booking not found")
	}

	var booking domain.Booking
	err = br.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, domain.NewNotFoundError("Booking not found")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// HasOverlap reports whether [start, end) intersects an active booking of
// the property. Adjacent intervals do not count: the range predicate is
// strict on both ends.
func (br *BookingRepo) HasOverlap(ctx context.Context, propertyID string, start, end time.Time, excludeID string) (bool, error) {
	ctx, span := br.Tracer.Start(ctx, "BookingRepo.HasOverlap")
	defer span.End()

	filter := bson.M{
		"property_id": propertyID,
		"status":      bson.M{"$in": domain.ActiveStatuses()},
		"start_date":  bson.M{"$lt": end},
		"end_date":    bson.M{"$gt": start},
	}
	if excludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
			filter["_id"] = bson.M{"$ne": oid}
		}
	}

	count, err := br.collection.CountDocuments(ctx, filter)
	if err != nil {
		br.logger.WithFields(logrus.Fields{"path": "repository/booking"}).Error("Overlap query failed: ", err)
		return false, err
	}
	return count > 0, nil
}

// UpdateStatus is a compare-and-swap keyed on (id, expected status). A
// missed match means the booking changed under us and surfaces as a
// conflict, not a silent overwrite.
func (br *BookingRepo) UpdateStatus(ctx context.Context, id string, expected, next domain.BookingStatus, reason string) (*domain.Booking, error) {
	ctx, span := br.Tracer.Start(ctx, "BookingRepo.UpdateStatus")
	defer span.End()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.NewNotFoundError("Booking not found")
	}

	set := bson.M{"status": next}
	if reason != "" {
		set["cancellation_reason"] = reason
	}

	var updated domain.Booking
	err = br.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": expected},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, domain.NewConflictError("Booking was modified concurrently")
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (br *BookingRepo) GetByUser(ctx context.Context, userID string, status domain.BookingStatus) (domain.Bookings, error) {
	ctx, span := br.Tracer.Start(ctx, "BookingRepo.GetByUser")
	defer span.End()

	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = status
	}
	return br.find(ctx, filter)
}

func (br *BookingRepo) GetByProperty(ctx context.Context, propertyID string, status domain.BookingStatus) (domain.Bookings, error) {
	ctx, span := br.Tracer.Start(ctx, "BookingRepo.GetByProperty")
	defer span.End()

	filter := bson.M{"property_id": propertyID}
	if status != "" {
		filter["status"] = status
	}
	return br.find(ctx, filter)
}

func (br *BookingRepo) GetElapsedConfirmed(ctx context.Context, now time.Time) (domain.Bookings, error) {
	ctx, span := br.Tracer.Start(ctx, "BookingRepo.GetElapsedConfirmed")
	defer span.End()

	filter := bson.M{
		"status":   domain.Confirmed,
		"end_date": bson.M{"$lte": now},
	}
	return br.find(ctx, filter)
}

func (br *BookingRepo) find(ctx context.Context, filter bson.M) (domain.Bookings, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	cursor, err := br.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bookings := domain.Bookings{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
