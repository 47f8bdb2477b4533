package repository

import (
	"context"

	"booking-service/domain"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"
)

type ReviewStore interface {
	Insert(ctx context.Context, review *domain.Review) error
	ExistsForBooking(ctx context.Context, userID, bookingID string) (bool, error)
	GetByProperty(ctx context.Context, propertyID string) ([]*domain.Review, error)
}

type ReviewRepo struct {
	collection *mongo.Collection
	logger     *logrus.Logger
	Tracer     trace.Tracer
}

func NewReviewRepo(collection *mongo.Collection, logger *logrus.Logger, tracer trace.Tracer) *ReviewRepo {
	return &ReviewRepo{collection: collection, logger: logger, Tracer: tracer}
}

func (rr *ReviewRepo) EnsureIndexes(ctx context.Context) error {
	_, err := rr.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "booking_id", Value: 1},
		},
	})
	return err
}

func (rr *ReviewRepo) Insert(ctx context.Context, review *domain.Review) error {
	ctx, span := rr.Tracer.Start(ctx, "ReviewRepo.Insert")
	defer span.End()

	result, err := rr.collection.InsertOne(ctx, review)
	if err != nil {
		rr.logger.WithFields(logrus.Fields{"path": "repository/review"}).Error("Insert failed: ", err)
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}
	return nil
}

// ExistsForBooking scopes review uniqueness per (user, booking): a guest may
// review the same property again after a later completed stay.
func (rr *ReviewRepo) ExistsForBooking(ctx context.Context, userID, bookingID string) (bool, error) {
	ctx, span := rr.Tracer.Start(ctx, "ReviewRepo.ExistsForBooking")
	defer span.End()

	count, err := rr.collection.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"booking_id": bookingID,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (rr *ReviewRepo) GetByProperty(ctx context.Context, propertyID string) ([]*domain.Review, error) {
	ctx, span := rr.Tracer.Start(ctx, "ReviewRepo.GetByProperty")
	defer span.End()

	cursor, err := rr.collection.Find(ctx, bson.M{"property_id": propertyID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []*domain.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
