package service

import (
	"context"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Fannysbth/kel1paw/internal/cache"
	"github.com/Fannysbth/kel1paw/internal/config"
	"github.com/Fannysbth/kel1paw/internal/errs"
	"github.com/Fannysbth/kel1paw/internal/models"
)

// RequestService drives the continuation-request workflow.
type RequestService struct {
	requests RequestStore
	projects ProjectStore
	users    UserStore
	notifier Notifier
	cache    cache.Cache
	inv      *cache.Invalidator
	ttl      config.CacheConfig
}

// NewRequestService creates a new request service
func NewRequestService(
	requests RequestStore,
	projects ProjectStore,
	users UserStore,
	notifier Notifier,
	c cache.Cache,
	inv *cache.Invalidator,
	ttl config.CacheConfig,
) *RequestService {
	return &RequestService{
		requests: requests,
		projects: projects,
		users:    users,
		notifier: notifier,
		cache:    c,
		inv:      inv,
		ttl:      ttl,
	}
}

// Create opens a pending request on someone else's Open project. A group
// holding an approved request anywhere, or one that already requested this
// project, gets a Conflict naming the rule.
func (s *RequestService) Create(ctx context.Context, projectID, requesterID primitive.ObjectID, message string) (*models.Request, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errs.Validation("message is required")
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID == requesterID {
		return nil, errs.Forbidden("you cannot request your own project")
	}
	if project.Status != models.StatusOpen {
		return nil, errs.Conflict("this project is not open for continuation")
	}

	approved, err := s.requests.FindApprovedByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if approved != nil {
		return nil, errs.Conflict("you already have an approved request")
	}

	request := &models.Request{
		ProjectID:   projectID,
		RequesterID: requesterID,
		Message:     message,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	s.inv.Invalidate(ctx, cache.MutationRequest, cache.IDs{RequesterID: requesterID.Hex()})
	s.notifyReceived(project, request)
	return request, nil
}

// ListByProject returns the requests on a project. Owner only.
func (s *RequestService) ListByProject(ctx context.Context, projectID, callerID primitive.ObjectID) ([]models.Request, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, errs.Forbidden("only the owning group can list requests")
	}

	requests, err := s.requests.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.Request{}
	}
	return requests, nil
}

// ListMine returns the caller's requests, cache-aside under
// user_requests:{requesterId}.
func (s *RequestService) ListMine(ctx context.Context, requesterID primitive.ObjectID) ([]models.Request, error) {
	key := cache.UserRequestsKey(requesterID.Hex())

	var cached []models.Request
	if cacheRead(ctx, s.cache, key, &cached) {
		return cached, nil
	}

	requests, err := s.requests.FindByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.Request{}
	}

	cacheWrite(ctx, s.cache, key, requests, s.ttl.OwnerTTL)
	return requests, nil
}

// UpdateMessage rewrites the pitch of the caller's still-pending request.
func (s *RequestService) UpdateMessage(ctx context.Context, id, callerID primitive.ObjectID, message string) (*models.Request, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errs.Validation("message is required")
	}

	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != callerID {
		return nil, errs.Forbidden("you can only edit your own request")
	}
	if request.Status != models.RequestPending {
		return nil, errs.Conflict("only pending requests can be edited")
	}

	updated, err := s.requests.UpdateMessage(ctx, id, message)
	if err != nil {
		return nil, err
	}

	s.inv.Invalidate(ctx, cache.MutationRequest, cache.IDs{RequesterID: callerID.Hex()})
	return updated, nil
}

// Approve grants a pending request. Owner only. The approved write goes
// first so the partial unique index can arbitrate a racing approval of the
// same requester elsewhere; the cascade then flattens the requester's other
// pending requests.
func (s *RequestService) Approve(ctx context.Context, id, callerID primitive.ObjectID) (*models.Request, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.FindByID(ctx, request.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != callerID {
		return nil, errs.Forbidden("only the owning group can approve requests")
	}
	if request.Status != models.RequestPending {
		return nil, errs.Conflict("only pending requests can be approved")
	}

	approved, err := s.requests.Approve(ctx, id)
	if err != nil {
		return nil, err
	}

	superseded, err := s.requests.SupersedeOthers(ctx, approved.RequesterID, approved.ID)
	if err != nil {
		// The approval itself committed; the flattening self-heals on the
		// next approval attempt for those projects.
		slog.Error("Failed to supersede competing requests",
			"request_id", approved.ID.Hex(),
			"requester_id", approved.RequesterID.Hex(),
			"error", err,
		)
	} else if superseded > 0 {
		slog.Info("Superseded competing requests",
			"requester_id", approved.RequesterID.Hex(),
			"count", superseded,
		)
	}

	s.inv.Invalidate(ctx, cache.MutationRequest, cache.IDs{RequesterID: approved.RequesterID.Hex()})
	s.notifyApproved(project, approved)
	return approved, nil
}

// Reject declines a pending request and removes it. Owner only.
func (s *RequestService) Reject(ctx context.Context, id, callerID primitive.ObjectID) error {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return err
	}

	project, err := s.projects.FindByID(ctx, request.ProjectID)
	if err != nil {
		return err
	}
	if project.OwnerID != callerID {
		return errs.Forbidden("only the owning group can reject requests")
	}
	if request.Status != models.RequestPending {
		return errs.Conflict("only pending requests can be rejected")
	}

	if err := s.requests.Delete(ctx, id); err != nil {
		return err
	}

	s.inv.Invalidate(ctx, cache.MutationRequest, cache.IDs{RequesterID: request.RequesterID.Hex()})
	s.notifyRejected(project, request)
	return nil
}

// Cancel withdraws the caller's own pending request.
func (s *RequestService) Cancel(ctx context.Context, id, callerID primitive.ObjectID) error {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if request.RequesterID != callerID {
		return errs.Forbidden("you can only cancel your own request")
	}
	if request.Status != models.RequestPending {
		return errs.Conflict("only pending requests can be cancelled")
	}

	if err := s.requests.Delete(ctx, id); err != nil {
		return err
	}

	s.inv.Invalidate(ctx, cache.MutationRequest, cache.IDs{RequesterID: callerID.Hex()})
	return nil
}

// Notification senders. All of them run detached from the request lifecycle;
// a failed email never fails the workflow transition.

func (s *RequestService) notifyReceived(project *models.Project, request *models.Request) {
	go func() {
		ctx := context.Background()
		owner, err := s.users.FindByID(ctx, project.OwnerID)
		if err != nil {
			slog.Warn("Failed to load owner for notification", "error", err)
			return
		}
		requester, err := s.users.FindByID(ctx, request.RequesterID)
		if err != nil {
			slog.Warn("Failed to load requester for notification", "error", err)
			return
		}
		if err := s.notifier.SendRequestReceived(owner.Email, project.Title, requester.GroupName, request.Message); err != nil {
			slog.Warn("Failed to send request-received email", "to", owner.Email, "error", err)
		}
	}()
}

func (s *RequestService) notifyApproved(project *models.Project, request *models.Request) {
	go func() {
		ctx := context.Background()
		requester, err := s.users.FindByID(ctx, request.RequesterID)
		if err != nil {
			slog.Warn("Failed to load requester for notification", "error", err)
			return
		}
		proposalLink := ""
		if project.ProposalDriveLink != nil {
			proposalLink = project.ProposalDriveLink.ViewLink
		}
		if err := s.notifier.SendRequestApproved(requester.Email, project.Title, proposalLink); err != nil {
			slog.Warn("Failed to send request-approved email", "to", requester.Email, "error", err)
		}
	}()
}

func (s *RequestService) notifyRejected(project *models.Project, request *models.Request) {
	go func() {
		ctx := context.Background()
		requester, err := s.users.FindByID(ctx, request.RequesterID)
		if err != nil {
			slog.Warn("Failed to load requester for notification", "error", err)
			return
		}
		if err := s.notifier.SendRequestRejected(requester.Email, project.Title); err != nil {
			slog.Warn("Failed to send request-rejected email", "to", requester.Email, "error", err)
		}
	}()
}
