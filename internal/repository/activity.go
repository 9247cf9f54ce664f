package repository

import (
	"context"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/creatorhub/creator-hub-api/internal/model"
)

// ActivityRepository defines the interface for the activity log in the logs
// database. Events are append-only.
type ActivityRepository interface {
	AppendEvent(ctx context.Context, event *model.ActivityEvent) (*model.ActivityEvent, error)
	RecentByUserID(ctx context.Context, userID string, limit int64) ([]model.ActivityEvent, error)
}

const activityCollection = "activity_events"

type activityMongoRepository struct {
	db *mongo.Database
}

// NewActivityMongoRepository creates a Mongo-backed ActivityRepository.
func NewActivityMongoRepository(db *mongo.Database) ActivityRepository {
	return &activityMongoRepository{db: db}
}

func (r *activityMongoRepository) AppendEvent(
	ctx context.Context,
	event *model.ActivityEvent,
) (*model.ActivityEvent, error) {
	event.ID = xid.New().String()
	event.CreatedAt = time.Now()

	if _, err := r.db.Collection(activityCollection).InsertOne(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

func (r *activityMongoRepository) RecentByUserID(
	ctx context.Context,
	userID string,
	limit int64,
) ([]model.ActivityEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.db.Collection(activityCollection).Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []model.ActivityEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}
