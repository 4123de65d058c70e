package db

import (
	"context"
	"fmt"

	"promptcoach/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const historyCollection = "scenarios"

// MongoHistoryStore keeps every tenant's submissions in one collection,
// partitioned by the tenant and userId fields.
type MongoHistoryStore struct {
	coll *mongo.Collection
}

func NewMongoHistoryStore(database *mongo.Database) *MongoHistoryStore {
	return &MongoHistoryStore{coll: database.Collection(historyCollection)}
}

// EnsureIndexes creates the index backing the per-owner, newest-first query.
func (s *MongoHistoryStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tenant", Value: 1}, {Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create history index: %w", err)
	}
	return nil
}

// Append inserts a submission. The timestamp is set by the database server
// through $currentDate, so the write is an upsert on a fresh _id.
func (s *MongoHistoryStore) Append(ctx context.Context, owner models.Owner, sub models.Submission) (models.Submission, error) {
	id := primitive.NewObjectID()
	update := bson.M{
		"$setOnInsert": bson.M{
			"tenant":        owner.Tenant,
			"userId":        owner.UserID,
			"role":          sub.Role,
			"scenario":      sub.Scenario,
			"userPrompt":    sub.UserPrompt,
			"coachData":     sub.CoachData,
			"promptVersion": sub.PromptVersion,
		},
		"$currentDate": bson.M{"timestamp": true},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Submission
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&saved)
	if err != nil {
		return models.Submission{}, fmt.Errorf("failed to save submission: %w", err)
	}
	return saved, nil
}

// List returns the owner's submissions, newest first
func (s *MongoHistoryStore) List(ctx context.Context, owner models.Owner) ([]models.Submission, error) {
	filter := bson.M{"tenant": owner.Tenant, "userId": owner.UserID}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.Submission{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return entries, nil
}
