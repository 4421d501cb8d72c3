package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Fannysbth/kel1paw/internal/cache"
	"github.com/Fannysbth/kel1paw/internal/config"
	"github.com/Fannysbth/kel1paw/internal/errs"
	"github.com/Fannysbth/kel1paw/internal/models"
	"github.com/Fannysbth/kel1paw/pkg/validator"
)

// UserUpdateInput is the payload accepted on profile updates. Nil fields are
// left untouched; the member roster is patched through a tagged update.
type UserUpdateInput struct {
	GroupName    *string              `json:"groupName"`
	Email        *string              `json:"email"`
	Department   *string              `json:"department"`
	Year         *int                 `json:"year"`
	Description  *string              `json:"description"`
	TeamPhotoURL *string              `json:"teamPhotoUrl"`
	Members      *models.MemberUpdate `json:"members"`
}

// UserService handles group-profile business logic.
type UserService struct {
	users UserStore
	cache cache.Cache
	inv   *cache.Invalidator
	ttl   config.CacheConfig
}

// NewUserService creates a new user service
func NewUserService(users UserStore, c cache.Cache, inv *cache.Invalidator, ttl config.CacheConfig) *UserService {
	return &UserService{
		users: users,
		cache: c,
		inv:   inv,
		ttl:   ttl,
	}
}

// Get loads a profile, cache-aside under user:{id}.
func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	key := cache.UserKey(id.Hex())

	var cached models.User
	if cacheRead(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cacheWrite(ctx, s.cache, key, user, s.ttl.OwnerTTL)
	return user, nil
}

// Update patches the caller's own profile. callerID must match id; groups
// cannot edit each other.
func (s *UserService) Update(ctx context.Context, id, callerID primitive.ObjectID, input UserUpdateInput) (*models.User, error) {
	if id != callerID {
		return nil, errs.Forbidden("you can only update your own profile")
	}

	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := bson.M{}
	if input.GroupName != nil {
		if *input.GroupName == "" {
			return nil, errs.Validation("groupName must not be empty")
		}
		patch["groupName"] = *input.GroupName
	}
	if input.Email != nil {
		if err := validator.ValidateEmail(*input.Email); err != nil {
			return nil, errs.Validation("email must be a valid address")
		}
		patch["email"] = *input.Email
	}
	if input.Department != nil {
		patch["department"] = *input.Department
	}
	if input.Year != nil {
		patch["year"] = *input.Year
	}
	if input.Description != nil {
		patch["description"] = *input.Description
	}
	if input.TeamPhotoURL != nil {
		patch["teamPhotoUrl"] = *input.TeamPhotoURL
	}

	if input.Members != nil {
		members, err := mergeMembers(current.Members, *input.Members)
		if err != nil {
			return nil, err
		}
		patch["members"] = members
	}

	if len(patch) == 0 {
		return nil, errs.Validation("nothing to update")
	}

	// An OAuth-created profile stays incomplete until the required fields
	// are all filled in; this update may be the one that completes it.
	if current.Incomplete && profileComplete(current, input) {
		patch["incomplete"] = false
	}

	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.inv.Invalidate(ctx, cache.MutationUser, cache.IDs{UserID: id.Hex()})
	return user, nil
}

// Delete removes the caller's own account.
func (s *UserService) Delete(ctx context.Context, id, callerID primitive.ObjectID) error {
	if id != callerID {
		return errs.Forbidden("you can only delete your own account")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.inv.Invalidate(ctx, cache.MutationUser, cache.IDs{UserID: id.Hex()})
	return nil
}

// profileComplete reports whether the profile holds every required field
// once the update is applied.
func profileComplete(current *models.User, input UserUpdateInput) bool {
	groupName := current.GroupName
	if input.GroupName != nil {
		groupName = *input.GroupName
	}
	department := current.Department
	if input.Department != nil {
		department = *input.Department
	}
	year := current.Year
	if input.Year != nil {
		year = *input.Year
	}
	return groupName != "" && department != "" && year != 0
}

// mergeMembers applies a tagged roster update. Replace swaps the whole list;
// patch merges entries into the existing roster by NIM, appending unknown
// ones. Every incoming entry is validated before anything is written.
func mergeMembers(current []models.Member, update models.MemberUpdate) ([]models.Member, error) {
	for _, m := range update.Members {
		if err := validator.ValidateStruct(m); err != nil {
			return nil, errs.Validation(err.Error())
		}
	}

	switch update.Mode {
	case models.MemberReplace:
		if update.Members == nil {
			return []models.Member{}, nil
		}
		return update.Members, nil

	case models.MemberPatch:
		merged := make([]models.Member, len(current))
		copy(merged, current)
		for _, incoming := range update.Members {
			replaced := false
			for i := range merged {
				if merged[i].NIM == incoming.NIM {
					merged[i] = incoming
					replaced = true
					break
				}
			}
			if !replaced {
				merged = append(merged, incoming)
			}
		}
		return merged, nil

	default:
		return nil, errs.Validation("members.mode must be \"replace\" or \"patch\"")
	}
}
