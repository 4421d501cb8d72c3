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

// UserRepository handles CRUD for student-group accounts.
type UserRepository struct {
	db *database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Database) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) collection() *mongo.Collection {
	return r.db.DB.Collection("users")
}

// Create inserts a user. The unique email index is the arbiter against
// concurrent registrations with the same address.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Members == nil {
		user.Members = []models.Member{}
	}

	return r.db.Run(ctx, func(ctx context.Context) error {
		res, err := r.collection().InsertOne(ctx, user)
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflict("email already registered")
		}
		if err != nil {
			return upstream("create user", err)
		}
		user.ID = res.InsertedID.(primitive.ObjectID)
		return nil
	})
}

// FindByID returns the user or a NotFound error.
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.db.Run(ctx, func(ctx context.Context) error {
		if err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
			return notFound("find user", "user not found", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail returns the user, or nil when no account uses the address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	found := false
	err := r.db.Run(ctx, func(ctx context.Context) error {
		err := r.collection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			return nil
		}
		if err != nil {
			return upstream("find user by email", err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// Update applies the patch and returns the resulting document.
func (r *UserRepository) Update(ctx context.Context, id primitive.ObjectID, patch bson.M) (*models.User, error) {
	patch["updatedAt"] = time.Now().UTC()

	var user models.User
	err := r.db.Run(ctx, func(ctx context.Context) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": patch}, opts).Decode(&user)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return errs.Conflict("email already registered")
			}
			return notFound("update user", "user not found", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes the account.
func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.db.Run(ctx, func(ctx context.Context) error {
		res, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return upstream("delete user", err)
		}
		if res.DeletedCount == 0 {
			return errs.NotFound("user not found")
		}
		return nil
	})
}
