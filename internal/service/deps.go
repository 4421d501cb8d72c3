package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Fannysbth/kel1paw/internal/models"
	"github.com/Fannysbth/kel1paw/internal/repository"
)

// Store interfaces consumed by the services. The repository structs satisfy
// them; tests substitute in-memory fakes.

// UserStore persists group accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, patch bson.M) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProjectStore persists published projects.
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	FindByOwner(ctx context.Context, ownerID primitive.ObjectID) (*models.Project, error)
	Find(ctx context.Context, filter repository.ProjectFilter) ([]models.Project, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, patch bson.M) (*models.Project, error)
	UpdateRatingStats(ctx context.Context, id primitive.ObjectID, avg float64, count int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CommentStore persists project comments.
type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Comment, error)
	UpdateText(ctx context.Context, id primitive.ObjectID, text string) (*models.Comment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error
}

// RatingStore persists per-user project scores.
type RatingStore interface {
	Upsert(ctx context.Context, projectID, userID primitive.ObjectID, score int) (*models.Rating, error)
	FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Rating, error)
	Aggregate(ctx context.Context, projectID primitive.ObjectID) (float64, int, error)
	Delete(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error)
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error
}

// RequestStore persists continuation requests.
type RequestStore interface {
	Create(ctx context.Context, request *models.Request) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Request, error)
	FindByRequester(ctx context.Context, requesterID primitive.ObjectID) ([]models.Request, error)
	FindApprovedByRequester(ctx context.Context, requesterID primitive.ObjectID) (*models.Request, error)
	UpdateMessage(ctx context.Context, id primitive.ObjectID, message string) (*models.Request, error)
	SupersedeOthers(ctx context.Context, requesterID, approvedID primitive.ObjectID) (int64, error)
	Approve(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error
}

// Notifier sends workflow emails. Failures are logged and never fail the
// mutation that triggered them.
type Notifier interface {
	SendRequestReceived(to, projectTitle, requesterGroup, message string) error
	SendRequestApproved(to, projectTitle, proposalLink string) error
	SendRequestRejected(to, projectTitle string) error
}
