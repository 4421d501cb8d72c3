package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Fannysbth/kel1paw/internal/auth"
	"github.com/Fannysbth/kel1paw/internal/errs"
	"github.com/Fannysbth/kel1paw/internal/models"
	"github.com/Fannysbth/kel1paw/pkg/validator"
)

// RegisterInput is the payload accepted on registration.
type RegisterInput struct {
	GroupName  string          `json:"groupName" validate:"required"`
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required,min=8"`
	Department string          `json:"department" validate:"required"`
	Year       int             `json:"year" validate:"required"`
	Members    []models.Member `json:"members"`
}

// AuthService handles registration and login.
type AuthService struct {
	users   UserStore
	authSvc *auth.Service
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, authSvc *auth.Service) *AuthService {
	return &AuthService{
		users:   users,
		authSvc: authSvc,
	}
}

// Register creates a group account and signs it in. The unique email index
// turns a racing duplicate registration into a Conflict.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, string, time.Time, error) {
	input.Email = validator.SanitizeEmail(input.Email)
	if err := validator.ValidateStruct(input); err != nil {
		return nil, "", time.Time{}, errs.Validation(err.Error())
	}
	for _, m := range input.Members {
		if err := validator.ValidateStruct(m); err != nil {
			return nil, "", time.Time{}, errs.Validation(err.Error())
		}
	}

	hash, err := s.authSvc.HashPassword(input.Password)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &models.User{
		GroupName:  input.GroupName,
		Email:      input.Email,
		Password:   hash,
		Department: input.Department,
		Year:       input.Year,
		Members:    input.Members,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.authSvc.GenerateToken(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	return user, token, expiresAt, nil
}

// Login verifies credentials and issues a JWT. A wrong email and a wrong
// password produce the same Validation error, so the endpoint does not leak
// which addresses are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, time.Time, error) {
	email = validator.SanitizeEmail(email)
	if email == "" || password == "" {
		return nil, "", time.Time{}, errs.Validation("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, errs.Validation("invalid credentials")
	}

	if err := s.authSvc.VerifyPassword(user.Password, password); err != nil {
		return nil, "", time.Time{}, errs.Validation("invalid credentials")
	}

	token, expiresAt, err := s.authSvc.GenerateToken(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	return user, token, expiresAt, nil
}

// Me loads the signed-in account.
func (s *AuthService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}
