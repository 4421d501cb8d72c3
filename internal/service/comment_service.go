package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Fannysbth/kel1paw/internal/cache"
	"github.com/Fannysbth/kel1paw/internal/config"
	"github.com/Fannysbth/kel1paw/internal/errs"
	"github.com/Fannysbth/kel1paw/internal/models"
)

const maxCommentLength = 1000

// CommentInput is the payload accepted on comment creation.
type CommentInput struct {
	Text     string  `json:"text"`
	ParentID *string `json:"parentId"`
}

// CommentService handles project discussion threads.
type CommentService struct {
	comments CommentStore
	projects ProjectStore
	cache    cache.Cache
	inv      *cache.Invalidator
	ttl      config.CacheConfig
}

// NewCommentService creates a new comment service
func NewCommentService(comments CommentStore, projects ProjectStore, c cache.Cache, inv *cache.Invalidator, ttl config.CacheConfig) *CommentService {
	return &CommentService{
		comments: comments,
		projects: projects,
		cache:    c,
		inv:      inv,
		ttl:      ttl,
	}
}

// ListByProject returns a project's comments, cache-aside under
// comments:project:{id}.
func (s *CommentService) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Comment, error) {
	key := cache.CommentsKey(projectID.Hex())

	var cached []models.Comment
	if cacheRead(ctx, s.cache, key, &cached) {
		return cached, nil
	}

	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}

	comments, err := s.comments.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	cacheWrite(ctx, s.cache, key, comments, s.ttl.CatalogTTL)
	return comments, nil
}

// Create adds a comment to an existing project. A parent, when given, must
// be a top-level comment of the same project; replies nest one level deep.
func (s *CommentService) Create(ctx context.Context, projectID, userID primitive.ObjectID, input CommentInput) (*models.Comment, error) {
	text, err := validateCommentText(input.Text)
	if err != nil {
		return nil, err
	}

	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ProjectID: projectID,
		UserID:    userID,
		Text:      text,
	}

	if input.ParentID != nil && *input.ParentID != "" {
		parentID, err := primitive.ObjectIDFromHex(*input.ParentID)
		if err != nil {
			return nil, errs.Validation("parentId is not a valid id")
		}
		parent, err := s.comments.FindByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != projectID {
			return nil, errs.Validation("parent comment belongs to a different project")
		}
		if parent.ParentID != nil {
			return nil, errs.Validation("replies cannot be nested further")
		}
		comment.ParentID = &parentID
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.inv.Invalidate(ctx, cache.MutationComment, cache.IDs{ProjectID: projectID.Hex()})
	return comment, nil
}

// Update rewrites a comment's text. Author only.
func (s *CommentService) Update(ctx context.Context, id, callerID primitive.ObjectID, text string) (*models.Comment, error) {
	text, err := validateCommentText(text)
	if err != nil {
		return nil, err
	}

	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != callerID {
		return nil, errs.Forbidden("you can only edit your own comments")
	}

	updated, err := s.comments.UpdateText(ctx, id, text)
	if err != nil {
		return nil, err
	}

	s.inv.Invalidate(ctx, cache.MutationComment, cache.IDs{ProjectID: comment.ProjectID.Hex()})
	return updated, nil
}

// Delete removes a comment. Author only.
func (s *CommentService) Delete(ctx context.Context, id, callerID primitive.ObjectID) error {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != callerID {
		return errs.Forbidden("you can only delete your own comments")
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}

	s.inv.Invalidate(ctx, cache.MutationComment, cache.IDs{ProjectID: comment.ProjectID.Hex()})
	return nil
}

func validateCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errs.Validation("text is required")
	}
	if len(text) > maxCommentLength {
		return "", errs.Validation("text must be at most 1000 characters")
	}
	return text, nil
}
