package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Fannysbth/kel1paw/internal/middleware"
	"github.com/Fannysbth/kel1paw/internal/service"
)

// UserHandler handles group-profile requests
type UserHandler struct {
	userSvc *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userSvc *service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// Get returns a group profile
// @Summary Get a group profile
// @Description Return a group account by id, password never included
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	user, err := h.userSvc.Get(r.Context(), id)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, user)
}

// Update patches the caller's own profile
// @Summary Update own profile
// @Description Patch profile fields; member roster via tagged replace/patch update
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body service.UserUpdateInput true "Profile patch"
// @Success 200 {object} models.User
// @Failure 403 {object} map[string]string "Not your profile"
// @Router /users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var input service.UserUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	user, err := h.userSvc.Update(r.Context(), id, callerID, input)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, user)
}

// Delete removes the caller's own account
// @Summary Delete own account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 403 {object} map[string]string "Not your account"
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.userSvc.Delete(r.Context(), id, callerID); err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
