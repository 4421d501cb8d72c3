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

// ProjectFilter carries the catalog query parameters. Its fields compose
// the list cache key, so anything added here must be added there too.
type ProjectFilter struct {
	Theme  string
	Status string
	Search string
	Page   int64
	Limit  int64
}

// ProjectRepository handles CRUD for published capstone projects.
type ProjectRepository struct {
	db *database.Database
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *database.Database) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) collection() *mongo.Collection {
	return r.db.DB.Collection("projects")
}

// Create inserts a project. The unique index on ownerId is the arbiter for
// the one-project-per-owner invariant; a duplicate-key error is translated
// into the same Conflict the application pre-check produces.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Status == "" {
		project.Status = models.StatusOpen
	}

	return r.db.Run(ctx, func(ctx context.Context) error {
		res, err := r.collection().InsertOne(ctx, project)
		if mongo.IsDuplicateKeyError(err) {
			return errs.Conflict("you already have a published project")
		}
		if err != nil {
			return upstream("create project", err)
		}
		project.ID = res.InsertedID.(primitive.ObjectID)
		return nil
	})
}

// FindByID returns the project or a NotFound error.
func (r *ProjectRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := r.db.Run(ctx, func(ctx context.Context) error {
		if err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&project); err != nil {
			return notFound("find project", "project not found", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByOwner returns the owner's project, or nil when the owner has none.
func (r *ProjectRepository) FindByOwner(ctx context.Context, ownerID primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	found := false
	err := r.db.Run(ctx, func(ctx context.Context) error {
		err := r.collection().FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&project)
		if err == mongo.ErrNoDocuments {
			return nil
		}
		if err != nil {
			return upstream("find project by owner", err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return &project, nil
}

// Find returns one catalog page plus the total match count.
func (r *ProjectRepository) Find(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error) {
	query := bson.M{}
	if filter.Theme != "" {
		query["theme"] = filter.Theme
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		query["$text"] = bson.M{"$search": filter.Search}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	var projects []models.Project
	var total int64

	err := r.db.Run(ctx, func(ctx context.Context) error {
		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := r.collection().Find(ctx, query, opts)
		if err != nil {
			return upstream("list projects", err)
		}
		projects = nil
		if err := cursor.All(ctx, &projects); err != nil {
			return upstream("decode projects", err)
		}

		total, err = r.collection().CountDocuments(ctx, query)
		if err != nil {
			return upstream("count projects", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Update applies the patch and returns the resulting document.
func (r *ProjectRepository) Update(ctx context.Context, id primitive.ObjectID, patch bson.M) (*models.Project, error) {
	patch["updatedAt"] = time.Now().UTC()

	var project models.Project
	err := r.db.Run(ctx, func(ctx context.Context) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": patch}, opts).Decode(&project)
		if err != nil {
			return notFound("update project", "project not found", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateRatingStats patches the derived aggregate fields after a rating write.
func (r *ProjectRepository) UpdateRatingStats(ctx context.Context, id primitive.ObjectID, avg float64, count int) error {
	return r.db.Run(ctx, func(ctx context.Context) error {
		_, err := r.collection().UpdateByID(ctx, id, bson.M{"$set": bson.M{
			"avgRating":   avg,
			"ratingCount": count,
			"updatedAt":   time.Now().UTC(),
		}})
		if err != nil {
			return upstream("update project rating stats", err)
		}
		return nil
	})
}

// Delete removes the project document.
func (r *ProjectRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.db.Run(ctx, func(ctx context.Context) error {
		res, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return upstream("delete project", err)
		}
		if res.DeletedCount == 0 {
			return errs.NotFound("project not found")
		}
		return nil
	})
}
