package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Fannysbth/kel1paw/internal/middleware"
	"github.com/Fannysbth/kel1paw/internal/service"
)

// AuthHandler handles registration and login requests
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register registers a new group account
// @Summary Register a group account
// @Description Create a group account and sign it in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration payload"
// @Success 201 {object} map[string]interface{} "Account and token"
// @Failure 400 {object} map[string]string "Invalid payload"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	user, token, expiresAt, err := h.authSvc.Register(r.Context(), input)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusCreated, map[string]interface{}{
		"user":      user,
		"token":     token,
		"expiresAt": expiresAt,
	})
}

// Login signs a group in
// @Summary Login
// @Description Verify credentials and issue a JWT
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body object true "Credentials (email, password)"
// @Success 200 {object} map[string]interface{} "Account and token"
// @Failure 400 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorMessage(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	user, token, expiresAt, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, map[string]interface{}{
		"user":      user,
		"token":     token,
		"expiresAt": expiresAt,
	})
}

// Me returns the signed-in account
// @Summary Current account
// @Description Return the authenticated group account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		errorMessage(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	user, err := h.authSvc.Me(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	JSONResponse(w, http.StatusOK, user)
}
