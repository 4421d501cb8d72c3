package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Fannysbth/kel1paw/internal/middleware"
	"github.com/Fannysbth/kel1paw/internal/service"
)

// RatingHandler handles rating requests
type RatingHandler struct {
	ratingSvc *service.RatingService
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(ratingSvc *service.RatingService) *RatingHandler {
	return &RatingHandler{ratingSvc: ratingSvc}
}

// ListByProject returns a project's ratings with their aggregate
// @Summary List project ratings
// @Tags Ratings
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} service.RatingSummary
// @Failure 404 {object} map[string]string "Project not found"
// @Router /projects/{id}/ratings [get]
func (h *RatingHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	summary, err := h.ratingSvc.ListByProject(r.Context(), projectID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, summary)
}

// Rate submits the caller's score for a project
// @Summary Rate a project
// @Description Upserts the caller's 1-5 score and recomputes the average
// @Tags Ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body object true "Score (1-5)"
// @Success 200 {object} models.Rating
// @Failure 403 {object} map[string]string "Own project"
// @Router /projects/{id}/ratings [post]
func (h *RatingHandler) Rate(w http.ResponseWriter, r *http.Request) {
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
		Score int `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	rating, err := h.ratingSvc.Rate(r.Context(), projectID, userID, req.Score)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, rating)
}

// Remove deletes the caller's rating
// @Summary Remove own rating
// @Tags Ratings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 404 {object} map[string]string "No rating"
// @Router /projects/{id}/ratings [delete]
func (h *RatingHandler) Remove(w http.ResponseWriter, r *http.Request) {
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

	if err := h.ratingSvc.Remove(r.Context(), projectID, userID); err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, map[string]string{"message": "rating removed"})
}
