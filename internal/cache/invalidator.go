package cache

import (
	"context"
	"log/slog"
)

// Mutation identifies which entity kind a write touched. Every mutation path
// in the services reports exactly one of these after its authoritative write
// succeeds.
type Mutation string

const (
	MutationProject Mutation = "project"
	MutationComment Mutation = "comment"
	MutationRating  Mutation = "rating"
	MutationRequest Mutation = "request"
	MutationUser    Mutation = "user"
)

// IDs carries the identifiers the invalidation rules interpolate into keys.
// Only the fields a rule needs have to be set.
type IDs struct {
	ProjectID   string
	OwnerID     string
	UserID      string
	RequesterID string
}

// rule describes one row of the invalidation table.
type rule struct {
	keys     func(IDs) []string
	patterns func(IDs) []string
}

// rules is the single declarative mutation→invalidation table. Adding a new
// mutation path means adding one row here, not a scattered call site.
var rules = map[Mutation]rule{
	MutationProject: {
		keys: func(ids IDs) []string {
			return []string{ProjectKey(ids.ProjectID), UserProjectsKey(ids.OwnerID)}
		},
		patterns: func(IDs) []string {
			return []string{ProjectListPattern}
		},
	},
	MutationComment: {
		keys: func(ids IDs) []string {
			return []string{CommentsKey(ids.ProjectID)}
		},
	},
	MutationRating: {
		// The project's avgRating lives inside the detail entry, so a rating
		// write clears that entry too.
		keys: func(ids IDs) []string {
			return []string{RatingsKey(ids.ProjectID), ProjectKey(ids.ProjectID)}
		},
	},
	MutationRequest: {
		keys: func(ids IDs) []string {
			return []string{UserRequestsKey(ids.RequesterID)}
		},
	},
	MutationUser: {
		keys: func(ids IDs) []string {
			return []string{UserKey(ids.UserID)}
		},
	},
}

// Invalidator drops the cache entries a mutation made stale. It runs after
// the authoritative write and before the response is returned; its own
// failures are logged and swallowed because a stale entry self-heals when
// its TTL expires.
type Invalidator struct {
	cache Cache
}

// NewInvalidator creates an invalidator over the given cache.
func NewInvalidator(c Cache) *Invalidator {
	return &Invalidator{cache: c}
}

// Invalidate applies the table row for mutation with the given ids.
func (i *Invalidator) Invalidate(ctx context.Context, mutation Mutation, ids IDs) {
	r, ok := rules[mutation]
	if !ok {
		slog.Error("No invalidation rule for mutation", "mutation", string(mutation))
		return
	}

	if r.keys != nil {
		keys := r.keys(ids)
		if err := i.cache.Delete(ctx, keys...); err != nil {
			slog.Warn("Cache invalidation failed",
				"mutation", string(mutation),
				"keys", keys,
				"error", err,
			)
		}
	}

	if r.patterns != nil {
		for _, pattern := range r.patterns(ids) {
			if _, err := i.cache.DeleteByPattern(ctx, pattern); err != nil {
				slog.Warn("Cache pattern invalidation failed",
					"mutation", string(mutation),
					"pattern", pattern,
					"error", err,
				)
			}
		}
	}
}
