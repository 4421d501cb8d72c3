package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/Fannysbth/kel1paw/internal/middleware"
	"github.com/Fannysbth/kel1paw/internal/repository"
	"github.com/Fannysbth/kel1paw/internal/service"
)

// maxProposalSize bounds proposal uploads to 10 MiB.
const maxProposalSize = 10 << 20

// ProjectHandler handles catalog and project requests
type ProjectHandler struct {
	projectSvc *service.ProjectService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectSvc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc}
}

// List returns one catalog page
// @Summary List projects
// @Description Filter by theme, status and full-text search; paged
// @Tags Projects
// @Produce json
// @Param theme query string false "Theme filter"
// @Param status query string false "Status filter"
// @Param search query string false "Full-text search on title and summary"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} service.ProjectPage
// @Router /projects [get]
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ProjectFilter{
		Theme:  q.Get("theme"),
		Status: q.Get("status"),
		Search: q.Get("search"),
		Page:   parseInt64(q.Get("page"), 1),
		Limit:  parseInt64(q.Get("limit"), 10),
	}

	page, err := h.projectSvc.List(r.Context(), filter)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, page)
}

// Get returns one project detail
// @Summary Get a project
// @Description Proposal reference included only for the owner or an approved requester
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} models.Project
// @Failure 404 {object} map[string]string "Project not found"
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	// Anonymous viewers get the sanitized document.
	viewerID, _ := middleware.GetUserID(r)

	project, err := h.projectSvc.Get(r.Context(), id, viewerID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, project)
}

// My returns the caller's own project
// @Summary Get own project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Project
// @Router /projects/my [get]
func (h *ProjectHandler) My(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	project, err := h.projectSvc.My(r.Context(), ownerID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}
	if project == nil {
		JSONResponse(w, http.StatusOK, map[string]interface{}{"project": nil})
		return
	}

	JSONResponse(w, http.StatusOK, project)
}

// Create publishes the caller's project
// @Summary Publish a project
// @Description One published project per group
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ProjectInput true "Project payload"
// @Success 201 {object} models.Project
// @Failure 409 {object} map[string]string "Group already has a project"
// @Router /projects [post]
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var input service.ProjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	project, err := h.projectSvc.Create(r.Context(), ownerID, input)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusCreated, project)
}

// Update patches the caller's project
// @Summary Update own project
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body service.ProjectUpdateInput true "Project patch"
// @Success 200 {object} models.Project
// @Failure 403 {object} map[string]string "Not the owner"
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var input service.ProjectUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	project, err := h.projectSvc.Update(r.Context(), id, callerID, input)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, project)
}

// Delete removes the caller's project with its comments, ratings, requests
// and proposal document
// @Summary Delete own project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 403 {object} map[string]string "Not the owner"
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	if err := h.projectSvc.Delete(r.Context(), id, callerID); err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, map[string]string{"message": "project deleted"})
}

// UploadProposal attaches a proposal document to the caller's project
// @Summary Upload proposal document
// @Description Multipart upload, field name "proposal"; replaces any previous document
// @Tags Projects
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param proposal formData file true "Proposal file"
// @Success 200 {object} models.Project
// @Failure 403 {object} map[string]string "Not the owner"
// @Router /projects/{id}/proposal [post]
func (h *ProjectHandler) UploadProposal(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	if err := r.ParseMultipartForm(maxProposalSize); err != nil {
		errorMessage(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("proposal")
	if err != nil {
		errorMessage(w, http.StatusBadRequest, "Missing proposal file")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(file, maxProposalSize))
	if err != nil {
		errorMessage(w, http.StatusBadRequest, "Failed to read proposal file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	project, err := h.projectSvc.UploadProposal(r.Context(), id, callerID, data, header.Filename, mimeType)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, project)
}

// GetProposal returns the proposal reference
// @Summary Get proposal document reference
// @Description Owner or approved requester only
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} models.ProposalDocument
// @Failure 403 {object} map[string]string "Approved request required"
// @Router /projects/{id}/proposal [get]
func (h *ProjectHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	doc, err := h.projectSvc.GetProposal(r.Context(), id, callerID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, doc)
}

func parseInt64(raw string, fallback int64) int64 {
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
