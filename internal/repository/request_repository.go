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

// RequestRepository handles the continuation-request workflow records.
type RequestRepository struct {
	db *database.Database
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *database.Database) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) collection() *mongo.Collection {
	return r.db.DB.Collection("requests")
}

// Create inserts a pending request. The unique (projectId, requesterId)
// index rejects a second request by the same group for the same project.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request) error {
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now
	request.Status = models.RequestPending
	request.ApprovedAt = nil

	return r.db.Run(ctx, func(ctx context.Context) error {
		res, err := r.collection().InsertOne(ctx, request)
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflict("you already requested this project")
		}
		if err != nil {
			return upstream("create request", err)
		}
		request.ID = res.InsertedID.(primitive.ObjectID)
		return nil
	})
}

// FindByID returns the request or a NotFound error.
func (r *RequestRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var request models.Request
	err := r.db.Run(ctx, func(ctx context.Context) error {
		if err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&request); err != nil {
			return notFound("find request", "request not found", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindByProject returns all requests on a project, newest first.
func (r *RequestRepository) FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Request, error) {
	return r.find(ctx, bson.M{"projectId": projectID})
}

// FindByRequester returns all requests a group has made, newest first.
func (r *RequestRepository) FindByRequester(ctx context.Context, requesterID primitive.ObjectID) ([]models.Request, error) {
	return r.find(ctx, bson.M{"requesterId": requesterID})
}

func (r *RequestRepository) find(ctx context.Context, filter bson.M) ([]models.Request, error) {
	var requests []models.Request
	err := r.db.Run(ctx, func(ctx context.Context) error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := r.collection().Find(ctx, filter, opts)
		if err != nil {
			return upstream("list requests", err)
		}
		requests = nil
		if err := cursor.All(ctx, &requests); err != nil {
			return upstream("decode requests", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// FindApprovedByRequester returns the requester's approved request, or nil.
func (r *RequestRepository) FindApprovedByRequester(ctx context.Context, requesterID primitive.ObjectID) (*models.Request, error) {
	var request models.Request
	found := false
	err := r.db.Run(ctx, func(ctx context.Context) error {
		filter := bson.M{"requesterId": requesterID, "status": models.RequestApproved}
		err := r.collection().FindOne(ctx, filter).Decode(&request)
		if err == mongo.ErrNoDocuments {
			return nil
		}
		if err != nil {
			return upstream("find approved request", err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &request, nil
}

// UpdateMessage rewrites the pitch of a still-pending request.
func (r *RequestRepository) UpdateMessage(ctx context.Context, id primitive.ObjectID, message string) (*models.Request, error) {
	var request models.Request
	err := r.db.Run(ctx, func(ctx context.Context) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		patch := bson.M{"$set": bson.M{"message": message, "updatedAt": time.Now().UTC()}}
		filter := bson.M{"_id": id, "status": models.RequestPending}
		if err := r.collection().FindOneAndUpdate(ctx, filter, patch, opts).Decode(&request); err != nil {
			return notFound("update request", "pending request not found", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// SupersedeOthers flattens the requester's other non-approved requests once
// one of them wins. Returns how many were superseded.
func (r *RequestRepository) SupersedeOthers(ctx context.Context, requesterID, approvedID primitive.ObjectID) (int64, error) {
	var modified int64
	err := r.db.Run(ctx, func(ctx context.Context) error {
		filter := bson.M{
			"requesterId": requesterID,
			"_id":         bson.M{"$ne": approvedID},
			"status":      models.RequestPending,
		}
		patch := bson.M{"$set": bson.M{
			"status":    models.RequestSuperseded,
			"updatedAt": time.Now().UTC(),
		}}
		res, err := r.collection().UpdateMany(ctx, filter, patch)
		if err != nil {
			return upstream("supersede requests", err)
		}
		modified = res.ModifiedCount
		return nil
	})
	return modified, err
}

// Approve flips a pending request to approved and stamps the decision time.
// The partial unique index on (requesterId, status=approved) turns a racing
// second approval for the same requester into a Conflict.
func (r *RequestRepository) Approve(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	now := time.Now().UTC()

	var request models.Request
	err := r.db.Run(ctx, func(ctx context.Context) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		patch := bson.M{"$set": bson.M{
			"status":     models.RequestApproved,
			"approvedAt": now,
			"updatedAt":  now,
		}}
		filter := bson.M{"_id": id, "status": models.RequestPending}
		err := r.collection().FindOneAndUpdate(ctx, filter, patch, opts).Decode(&request)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return errs.Conflict("requester already has an approved request")
			}
			return notFound("approve request", "pending request not found", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Delete removes a request (rejection or cancellation).
func (r *RequestRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.db.Run(ctx, func(ctx context.Context) error {
		res, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return upstream("delete request", err)
		}
		if res.DeletedCount == 0 {
			return errs.NotFound("request not found")
		}
		return nil
	})
}

// DeleteByProject removes every request on a project (delete cascade).
func (r *RequestRepository) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	return r.db.Run(ctx, func(ctx context.Context) error {
		if _, err := r.collection().DeleteMany(ctx, bson.M{"projectId": projectID}); err != nil {
			return upstream("delete project requests", err)
		}
		return nil
	})
}
