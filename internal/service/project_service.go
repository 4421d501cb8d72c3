package service

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Fannysbth/kel1paw/internal/cache"
	"github.com/Fannysbth/kel1paw/internal/config"
	"github.com/Fannysbth/kel1paw/internal/errs"
	"github.com/Fannysbth/kel1paw/internal/models"
	"github.com/Fannysbth/kel1paw/internal/repository"
	"github.com/Fannysbth/kel1paw/internal/storage"
	"github.com/Fannysbth/kel1paw/pkg/validator"
)

// ProjectInput is the payload accepted on project creation.
type ProjectInput struct {
	Title           string       `json:"title" validate:"required"`
	Summary         string       `json:"summary" validate:"required"`
	Evaluation      string       `json:"evaluation"`
	Suggestion      string       `json:"suggestion"`
	Theme           models.Theme `json:"theme" validate:"required"`
	ProjectPhotoURL string       `json:"projectPhotoUrl"`
}

// ProjectUpdateInput is the partial payload accepted on project updates.
type ProjectUpdateInput struct {
	Title           *string               `json:"title"`
	Summary         *string               `json:"summary"`
	Evaluation      *string               `json:"evaluation"`
	Suggestion      *string               `json:"suggestion"`
	Theme           *models.Theme         `json:"theme"`
	ProjectPhotoURL *string               `json:"projectPhotoUrl"`
	Status          *models.ProjectStatus `json:"status"`
}

// ProjectPage is one catalog page.
type ProjectPage struct {
	Projects []models.Project `json:"projects"`
	Total    int64            `json:"total"`
	Page     int64            `json:"page"`
	Limit    int64            `json:"limit"`
}

// ProjectService handles the catalog, ownership guards and the proposal
// access policy.
type ProjectService struct {
	projects ProjectStore
	comments CommentStore
	ratings  RatingStore
	requests RequestStore
	uploader storage.Uploader
	cache    cache.Cache
	inv      *cache.Invalidator
	ttl      config.CacheConfig
}

// NewProjectService creates a new project service
func NewProjectService(
	projects ProjectStore,
	comments CommentStore,
	ratings RatingStore,
	requests RequestStore,
	uploader storage.Uploader,
	c cache.Cache,
	inv *cache.Invalidator,
	ttl config.CacheConfig,
) *ProjectService {
	return &ProjectService{
		projects: projects,
		comments: comments,
		ratings:  ratings,
		requests: requests,
		uploader: uploader,
		cache:    c,
		inv:      inv,
		ttl:      ttl,
	}
}

// List returns one catalog page, cache-aside per filter combination.
// Proposal references are stripped before the page enters the cache, so a
// list payload can never leak one.
func (s *ProjectService) List(ctx context.Context, filter repository.ProjectFilter) (*ProjectPage, error) {
	if filter.Theme != "" && !models.ValidTheme(models.Theme(filter.Theme)) {
		return nil, errs.Validation("unknown theme")
	}
	if filter.Status != "" && !models.ValidProjectStatus(models.ProjectStatus(filter.Status)) {
		return nil, errs.Validation("unknown status")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	key := cache.ProjectListKey(filter.Theme, filter.Status, filter.Search, filter.Page, filter.Limit)

	var cached ProjectPage
	if cacheRead(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	projects, total, err := s.projects.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	sanitized := make([]models.Project, len(projects))
	for i, p := range projects {
		sanitized[i] = p.Sanitized()
	}

	page := &ProjectPage{
		Projects: sanitized,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}

	cacheWrite(ctx, s.cache, key, page, s.ttl.CatalogTTL)
	return page, nil
}

// Get returns one project detail, cache-aside under project:{id}. The cache
// holds the full document; the proposal reference is stripped on the way out
// unless the viewer passes the access policy.
func (s *ProjectService) Get(ctx context.Context, id primitive.ObjectID, viewerID primitive.ObjectID) (*models.Project, error) {
	key := cache.ProjectKey(id.Hex())

	var project models.Project
	if !cacheRead(ctx, s.cache, key, &project) {
		loaded, err := s.projects.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		project = *loaded
		cacheWrite(ctx, s.cache, key, project, s.ttl.CatalogTTL)
	}

	allowed, err := s.canSeeProposal(ctx, &project, viewerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		project = project.Sanitized()
	}
	return &project, nil
}

// My returns the caller's own project, cache-aside under
// user_projects:{ownerId}. A group without a project gets an empty result,
// not an error.
func (s *ProjectService) My(ctx context.Context, ownerID primitive.ObjectID) (*models.Project, error) {
	key := cache.UserProjectsKey(ownerID.Hex())

	var cached models.Project
	if cacheRead(ctx, s.cache, key, &cached) {
		return &cached, nil
	}

	project, err := s.projects.FindByOwner(ctx, ownerID)
	if err != nil || project == nil {
		return nil, err
	}

	cacheWrite(ctx, s.cache, key, project, s.ttl.OwnerTTL)
	return project, nil
}

// Create publishes the caller's project. One per owner: a pre-check gives
// the friendly error, the unique ownerId index arbitrates races.
func (s *ProjectService) Create(ctx context.Context, ownerID primitive.ObjectID, input ProjectInput) (*models.Project, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, errs.Validation(err.Error())
	}
	if !models.ValidTheme(input.Theme) {
		return nil, errs.Validation("unknown theme")
	}

	existing, err := s.projects.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.Conflict("you already have a published project")
	}

	project := &models.Project{
		Title:           input.Title,
		Summary:         input.Summary,
		Evaluation:      input.Evaluation,
		Suggestion:      input.Suggestion,
		Theme:           input.Theme,
		ProjectPhotoURL: input.ProjectPhotoURL,
		OwnerID:         ownerID,
		Status:          models.StatusOpen,
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.invalidateProject(ctx, project)
	return project, nil
}

// Update patches the caller's project. Owner only.
func (s *ProjectService) Update(ctx context.Context, id, callerID primitive.ObjectID, input ProjectUpdateInput) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, errs.Forbidden("only the owning group can update this project")
	}

	patch := bson.M{}
	if input.Title != nil {
		if *input.Title == "" {
			return nil, errs.Validation("title must not be empty")
		}
		patch["title"] = *input.Title
	}
	if input.Summary != nil {
		if *input.Summary == "" {
			return nil, errs.Validation("summary must not be empty")
		}
		patch["summary"] = *input.Summary
	}
	if input.Evaluation != nil {
		patch["evaluation"] = *input.Evaluation
	}
	if input.Suggestion != nil {
		patch["suggestion"] = *input.Suggestion
	}
	if input.Theme != nil {
		if !models.ValidTheme(*input.Theme) {
			return nil, errs.Validation("unknown theme")
		}
		patch["theme"] = *input.Theme
	}
	if input.ProjectPhotoURL != nil {
		patch["projectPhotoUrl"] = *input.ProjectPhotoURL
	}
	if input.Status != nil {
		if !models.ValidProjectStatus(*input.Status) {
			return nil, errs.Validation("unknown status")
		}
		patch["status"] = *input.Status
	}

	if len(patch) == 0 {
		return nil, errs.Validation("nothing to update")
	}

	updated, err := s.projects.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.invalidateProject(ctx, updated)
	return updated, nil
}

// Delete removes the caller's project and cascades to its comments, ratings,
// requests and stored proposal document. Owner only.
func (s *ProjectService) Delete(ctx context.Context, id, callerID primitive.ObjectID) error {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if project.OwnerID != callerID {
		return errs.Forbidden("only the owning group can delete this project")
	}

	// Capture requesters before the cascade so their cached views can be
	// cleared afterwards.
	requests, err := s.requests.FindByProject(ctx, id)
	if err != nil {
		return err
	}

	if err := s.comments.DeleteByProject(ctx, id); err != nil {
		return err
	}
	if err := s.ratings.DeleteByProject(ctx, id); err != nil {
		return err
	}
	if err := s.requests.DeleteByProject(ctx, id); err != nil {
		return err
	}

	if project.ProposalDriveLink != nil && project.ProposalDriveLink.DriveFileID != "" {
		if err := s.uploader.Delete(ctx, project.ProposalDriveLink.DriveFileID); err != nil {
			// The project is going away regardless; an orphaned file is
			// cleaned up manually.
			slog.Warn("Failed to delete proposal document",
				"project_id", id.Hex(),
				"file_id", project.ProposalDriveLink.DriveFileID,
				"error", err,
			)
		}
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateProject(ctx, project)
	s.inv.Invalidate(ctx, cache.MutationComment, cache.IDs{ProjectID: id.Hex()})
	s.inv.Invalidate(ctx, cache.MutationRating, cache.IDs{ProjectID: id.Hex()})
	for _, req := range requests {
		s.inv.Invalidate(ctx, cache.MutationRequest, cache.IDs{RequesterID: req.RequesterID.Hex()})
	}
	return nil
}

// UploadProposal stores a proposal document and attaches its reference to
// the caller's project, replacing any previous document. Owner only.
func (s *ProjectService) UploadProposal(ctx context.Context, id, callerID primitive.ObjectID, data []byte, fileName, mimeType string) (*models.Project, error) {
	if len(data) == 0 {
		return nil, errs.Validation("proposal file is empty")
	}

	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, errs.Forbidden("only the owning group can upload a proposal")
	}

	doc, err := s.uploader.Upload(ctx, data, fileName, mimeType)
	if err != nil {
		return nil, err
	}

	if project.ProposalDriveLink != nil && project.ProposalDriveLink.DriveFileID != "" {
		if err := s.uploader.Delete(ctx, project.ProposalDriveLink.DriveFileID); err != nil {
			slog.Warn("Failed to delete replaced proposal document",
				"project_id", id.Hex(),
				"file_id", project.ProposalDriveLink.DriveFileID,
				"error", err,
			)
		}
	}

	updated, err := s.projects.Update(ctx, id, bson.M{"proposalDriveLink": doc})
	if err != nil {
		return nil, err
	}

	s.invalidateProject(ctx, updated)
	return updated, nil
}

// GetProposal returns the proposal reference, enforcing the access policy:
// only the owner or a requester whose request on this project was approved
// may see it.
func (s *ProjectService) GetProposal(ctx context.Context, id, viewerID primitive.ObjectID) (*models.ProposalDocument, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.canSeeProposal(ctx, project, viewerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errs.Forbidden("proposal access requires an approved request")
	}
	if project.ProposalDriveLink == nil {
		return nil, errs.NotFound("this project has no proposal document")
	}
	return project.ProposalDriveLink, nil
}

// canSeeProposal is the proposal access policy predicate.
func (s *ProjectService) canSeeProposal(ctx context.Context, project *models.Project, viewerID primitive.ObjectID) (bool, error) {
	if viewerID.IsZero() {
		return false, nil
	}
	if project.OwnerID == viewerID {
		return true, nil
	}
	approved, err := s.requests.FindApprovedByRequester(ctx, viewerID)
	if err != nil {
		return false, err
	}
	return approved != nil && approved.ProjectID == project.ID, nil
}

// invalidateProject runs the project invalidation row.
func (s *ProjectService) invalidateProject(ctx context.Context, project *models.Project) {
	s.inv.Invalidate(ctx, cache.MutationProject, cache.IDs{
		ProjectID: project.ID.Hex(),
		OwnerID:   project.OwnerID.Hex(),
	})
}
