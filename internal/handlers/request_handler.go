package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Fannysbth/kel1paw/internal/middleware"
	"github.com/Fannysbth/kel1paw/internal/service"
)

// RequestHandler handles continuation-request workflow endpoints
type RequestHandler struct {
	requestSvc *service.RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestSvc *service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

// Create opens a request on a project
// @Summary Request to continue a project
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body object true "Message"
// @Success 201 {object} models.Request
// @Failure 409 {object} map[string]string "Duplicate or already approved elsewhere"
// @Router /projects/{id}/requests [post]
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	projectID, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	request, err := h.requestSvc.Create(r.Context(), projectID, userID, req.Message)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusCreated, request)
}

// ListByProject returns the requests on the caller's project
// @Summary List requests on own project
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {array} models.Request
// @Failure 403 {object} map[string]string "Not the owner"
// @Router /projects/{id}/requests [get]
func (h *RequestHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	projectID, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	requests, err := h.requestSvc.ListByProject(r.Context(), projectID, userID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, requests)
}

// ListMine returns the caller's requests
// @Summary List own requests
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Request
// @Router /requests/my [get]
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	requests, err := h.requestSvc.ListMine(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, requests)
}

// UpdateMessage rewrites the caller's pending request
// @Summary Edit own pending request
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body object true "Message"
// @Success 200 {object} models.Request
// @Failure 409 {object} map[string]string "Not pending"
// @Router /requests/{id} [put]
func (h *RequestHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	request, err := h.requestSvc.UpdateMessage(r.Context(), id, userID, req.Message)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, request)
}

// Approve grants a pending request on the caller's project
// @Summary Approve a request
// @Description Supersedes the requester's other pending requests
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} models.Request
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 409 {object} map[string]string "Not pending or requester already approved elsewhere"
// @Router /requests/{id}/approve [post]
func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	request, err := h.requestSvc.Approve(r.Context(), id, userID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, request)
}

// Reject declines a pending request on the caller's project
// @Summary Reject a request
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]string "Rejected"
// @Failure 403 {object} map[string]string "Not the owner"
// @Router /requests/{id}/reject [post]
func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	if err := h.requestSvc.Reject(r.Context(), id, userID); err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, map[string]string{"message": "request rejected"})
}

// Cancel withdraws the caller's pending request
// @Summary Cancel own request
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]string "Cancelled"
// @Failure 403 {object} map[string]string "Not the requester"
// @Router /requests/{id} [delete]
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	if err := h.requestSvc.Cancel(r.Context(), id, userID); err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, map[string]string{"message": "request cancelled"})
}
