package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bookmarks/bookmarks/internal/models"
	"github.com/bookmarks/bookmarks/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// UserService is the identity provider the rest of the system consumes.
type UserService struct {
	users  UserStore
	logger *logger.Logger
}

func NewUserService(users UserStore, logger *logger.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150,alphanum"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

// LoginRequest accepts either a username or an e-mail address as Username.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,max=150"`
	LastName    *string `json:"last_name" binding:"omitempty,max=150"`
	Email       *string `json:"email" binding:"omitempty,email"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Photo       *string `json:"photo" binding:"omitempty,max=2000"`
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	existing, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("username %q: %w", req.Username, ErrAlreadyExists)
	}

	existing, err = s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email %q: %w", req.Email, ErrAlreadyExists)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashed),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  true,
		Profile:   &models.Profile{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return user, nil
}

// Login authenticates by username first, then by e-mail address.
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil && strings.Contains(req.Username, "@") {
		if user, err = s.users.GetByEmail(ctx, req.Username); err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return user, nil
}

// FindByID returns nil when the user does not exist.
func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// IsActive is false for unknown and deactivated users.
func (s *UserService) IsActive(ctx context.Context, id uint) (bool, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsActive, nil
}

// FindByUsername returns nil when the user does not exist.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *UserService) ListActive(ctx context.Context, offset, limit int) ([]*models.User, error) {
	return s.users.ListActive(ctx, offset, limit)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if user.Profile == nil {
		user.Profile = &models.Profile{UserID: user.ID}
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil && *req.Email != user.Email {
		other, err := s.users.GetByEmail(ctx, *req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if other != nil {
			return nil, fmt.Errorf("email %q: %w", *req.Email, ErrAlreadyExists)
		}
		user.Email = *req.Email
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date of birth", ErrInvalidOperation)
		}
		user.Profile.DateOfBirth = &dob
	}
	if req.Photo != nil {
		user.Profile.Photo = *req.Photo
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("Profile updated successfully")
	return user, nil
}
