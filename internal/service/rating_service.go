package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Fannysbth/kel1paw/internal/cache"
	"github.com/Fannysbth/kel1paw/internal/config"
	"github.com/Fannysbth/kel1paw/internal/errs"
	"github.com/Fannysbth/kel1paw/internal/models"
)

// RatingSummary is the cached list-plus-aggregate view of a project's
// ratings.
type RatingSummary struct {
	Ratings []models.Rating `json:"ratings"`
	Average float64         `json:"average"`
	Count   int             `json:"count"`
}

// RatingService handles 1..5 scores and the project's derived aggregate.
type RatingService struct {
	ratings  RatingStore
	projects ProjectStore
	cache    cache.Cache
	inv      *cache.Invalidator
	ttl      config.CacheConfig
}

// NewRatingService creates a new rating service
func NewRatingService(ratings RatingStore, projects ProjectStore, c cache.Cache, inv *cache.Invalidator, ttl config.CacheConfig) *RatingService {
	return &RatingService{
		ratings:  ratings,
		projects: projects,
		cache:    c,
		inv:      inv,
		ttl:      ttl,
	}
}

// ListByProject returns a project's ratings with their aggregate,
// cache-aside under ratings:project:{id}.
func (s *RatingService) ListByProject(ctx context.Context, projectID primitive.ObjectID) (*RatingSummary, error) {
	key := cache.RatingsKey(projectID.Hex())

	var cached RatingSummary
	if cacheRead(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}

	ratings, err := s.ratings.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}

	avg, count, err := s.ratings.Aggregate(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := &RatingSummary{Ratings: ratings, Average: avg, Count: count}
	cacheWrite(ctx, s.cache, key, summary, s.ttl.CatalogTTL)
	return summary, nil
}

// Rate submits the caller's score for a project, replacing any earlier one.
// Owners cannot rate their own project. The aggregate is recomputed from the
// store and patched onto the project document.
func (s *RatingService) Rate(ctx context.Context, projectID, userID primitive.ObjectID, score int) (*models.Rating, error) {
	if score < 1 || score > 5 {
		return nil, errs.Validation("score must be between 1 and 5")
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID == userID {
		return nil, errs.Forbidden("you cannot rate your own project")
	}

	rating, err := s.ratings.Upsert(ctx, projectID, userID, score)
	if err != nil {
		return nil, err
	}

	if err := s.recompute(ctx, projectID); err != nil {
		return nil, err
	}

	s.inv.Invalidate(ctx, cache.MutationRating, cache.IDs{ProjectID: projectID.Hex()})
	return rating, nil
}

// Remove deletes the caller's rating and recomputes the aggregate.
func (s *RatingService) Remove(ctx context.Context, projectID, userID primitive.ObjectID) error {
	deleted, err := s.ratings.Delete(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return errs.NotFound("you have not rated this project")
	}

	if err := s.recompute(ctx, projectID); err != nil {
		return err
	}

	s.inv.Invalidate(ctx, cache.MutationRating, cache.IDs{ProjectID: projectID.Hex()})
	return nil
}

func (s *RatingService) recompute(ctx context.Context, projectID primitive.ObjectID) error {
	avg, count, err := s.ratings.Aggregate(ctx, projectID)
	if err != nil {
		return err
	}
	return s.projects.UpdateRatingStats(ctx, projectID, avg, count)
}
