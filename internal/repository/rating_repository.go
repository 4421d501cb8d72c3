package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Fannysbth/kel1paw/internal/database"
	"github.com/Fannysbth/kel1paw/internal/models"
)

// RatingRepository handles the per-user project scores.
type RatingRepository struct {
	db *database.Database
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db *database.Database) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) collection() *mongo.Collection {
	return r.db.DB.Collection("ratings")
}

// Upsert writes the caller's score for a project, replacing any previous
// one. The unique (projectId, userId) index collapses concurrent writes
// into a single row.
func (r *RatingRepository) Upsert(ctx context.Context, projectID, userID primitive.ObjectID, score int) (*models.Rating, error) {
	now := time.Now().UTC()

	var rating models.Rating
	err := r.db.Run(ctx, func(ctx context.Context) error {
		opts := options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After)
		update := bson.M{
			"$set":         bson.M{"score": score, "updatedAt": now},
			"$setOnInsert": bson.M{"projectId": projectID, "userId": userID, "createdAt": now},
		}
		filter := bson.M{"projectId": projectID, "userId": userID}
		if err := r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&rating); err != nil {
			return upstream("upsert rating", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// FindByProject returns all ratings of a project, newest first.
func (r *RatingRepository) FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.Run(ctx, func(ctx context.Context) error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := r.collection().Find(ctx, bson.M{"projectId": projectID}, opts)
		if err != nil {
			return upstream("list ratings", err)
		}
		ratings = nil
		if err := cursor.All(ctx, &ratings); err != nil {
			return upstream("decode ratings", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

// Aggregate computes the average score and count for a project. A project
// with no ratings yields (0, 0).
func (r *RatingRepository) Aggregate(ctx context.Context, projectID primitive.ObjectID) (float64, int, error) {
	var avg float64
	var count int

	err := r.db.Run(ctx, func(ctx context.Context) error {
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"projectId": projectID}}},
			{{Key: "$group", Value: bson.M{
				"_id":   nil,
				"avg":   bson.M{"$avg": "$score"},
				"count": bson.M{"$sum": 1},
			}}},
		}
		cursor, err := r.collection().Aggregate(ctx, pipeline)
		if err != nil {
			return upstream("aggregate ratings", err)
		}
		var results []struct {
			Avg   float64 `bson:"avg"`
			Count int     `bson:"count"`
		}
		if err := cursor.All(ctx, &results); err != nil {
			return upstream("decode rating aggregate", err)
		}
		avg, count = 0, 0
		if len(results) > 0 {
			avg = results[0].Avg
			count = results[0].Count
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}

// Delete removes the caller's rating. Reports whether one existed.
func (r *RatingRepository) Delete(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	deleted := false
	err := r.db.Run(ctx, func(ctx context.Context) error {
		res, err := r.collection().DeleteOne(ctx, bson.M{"projectId": projectID, "userId": userID})
		if err != nil {
			return upstream("delete rating", err)
		}
		deleted = res.DeletedCount > 0
		return nil
	})
	return deleted, err
}

// DeleteByProject removes every rating of a project (delete cascade).
func (r *RatingRepository) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	return r.db.Run(ctx, func(ctx context.Context) error {
		if _, err := r.collection().DeleteMany(ctx, bson.M{"projectId": projectID}); err != nil {
			return upstream("delete project ratings", err)
		}
		return nil
	})
}
