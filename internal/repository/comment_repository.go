package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Fannysbth/kel1paw/internal/database"
	"github.com/Fannysbth/kel1paw/internal/errs"
	"github.com/Fannysbth/kel1paw/internal/models"
)

// CommentRepository handles CRUD for project comments.
type CommentRepository struct {
	db *database.Database
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *database.Database) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) collection() *mongo.Collection {
	return r.db.DB.Collection("comments")
}

// Create inserts a comment.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	return r.db.Run(ctx, func(ctx context.Context) error {
		res, err := r.collection().InsertOne(ctx, comment)
		if err != nil {
			return upstream("create comment", err)
		}
		comment.ID = res.InsertedID.(primitive.ObjectID)
		return nil
	})
}

// FindByID returns the comment or a NotFound error.
func (r *CommentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.Run(ctx, func(ctx context.Context) error {
		if err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
			return notFound("find comment", "comment not found", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindByProject returns all comments for a project, newest first.
func (r *CommentRepository) FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Run(ctx, func(ctx context.Context) error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := r.collection().Find(ctx, bson.M{"projectId": projectID}, opts)
		if err != nil {
			return upstream("list comments", err)
		}
		comments = nil
		if err := cursor.All(ctx, &comments); err != nil {
			return upstream("decode comments", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateText replaces the comment text.
func (r *CommentRepository) UpdateText(ctx context.Context, id primitive.ObjectID, text string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.Run(ctx, func(ctx context.Context) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		patch := bson.M{"$set": bson.M{"text": text, "updatedAt": time.Now().UTC()}}
		if err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": id}, patch, opts).Decode(&comment); err != nil {
			return notFound("update comment", "comment not found", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.db.Run(ctx, func(ctx context.Context) error {
		res, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return upstream("delete comment", err)
		}
		if res.DeletedCount == 0 {
			return errs.NotFound("comment not found")
		}
		return nil
	})
}

// DeleteByProject removes every comment of a project (delete cascade).
func (r *CommentRepository) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	return r.db.Run(ctx, func(ctx context.Context) error {
		if _, err := r.collection().DeleteMany(ctx, bson.M{"projectId": projectID}); err != nil {
			return upstream("delete project comments", err)
		}
		return nil
	})
}
