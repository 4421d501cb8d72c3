package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Fannysbth/kel1paw/internal/middleware"
	"github.com/Fannysbth/kel1paw/internal/service"
)

// CommentHandler handles discussion requests
type CommentHandler struct {
	commentSvc *service.CommentService
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentSvc *service.CommentService) *CommentHandler {
	return &CommentHandler{commentSvc: commentSvc}
}

// ListByProject returns a project's comments
// @Summary List project comments
// @Tags Comments
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} map[string]string "Project not found"
// @Router /projects/{id}/comments [get]
func (h *CommentHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	comments, err := h.commentSvc.ListByProject(r.Context(), projectID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, comments)
}

// Create adds a comment to a project
// @Summary Comment on a project
// @Tags Comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body service.CommentInput true "Comment payload"
// @Success 201 {object} models.Comment
// @Failure 404 {object} map[string]string "Project not found"
// @Router /projects/{id}/comments [post]
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var input service.CommentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	comment, err := h.commentSvc.Create(r.Context(), projectID, userID, input)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusCreated, comment)
}

// Update rewrites the caller's comment
// @Summary Edit own comment
// @Tags Comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Param request body object true "New text"
// @Success 200 {object} models.Comment
// @Failure 403 {object} map[string]string "Not the author"
// @Router /comments/{id} [put]
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
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
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	comment, err := h.commentSvc.Update(r.Context(), id, userID, req.Text)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, comment)
}

// Delete removes the caller's comment
// @Summary Delete own comment
// @Tags Comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 403 {object} map[string]string "Not the author"
// @Router /comments/{id} [delete]
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.commentSvc.Delete(r.Context(), id, userID); err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}
