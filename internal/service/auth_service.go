package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/mapper"
	"github.com/lawdir/directory-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService signs admin users in and manages their accounts
type AuthService struct {
	userRepo *repository.AdminUserRepository
	tokens   *auth.TokenManager
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.AdminUserRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the credentials and issues an access token. Unknown emails,
// wrong passwords and deactivated users all fail with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Info("admin login failed", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	s.logger.Info("admin logged in", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	return &domain.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        mapper.ToAdminUserDTO(user),
	}, nil
}

// Me describes the authenticated caller
func (s *AuthService) Me(ctx context.Context) (*domain.AuthUserDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return &domain.AuthUserDTO{
		ID:          userCtx.UserID.String(),
		Email:       userCtx.Email,
		DisplayName: userCtx.DisplayName,
		Role:        userCtx.Role,
		AuthMethod:  userCtx.Method,
	}, nil
}

// ListUsers returns every admin user
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.AdminUserDTO, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	dtos := make([]domain.AdminUserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToAdminUserDTO(&users[i])
	}
	return dtos, nil
}

// CreateUser adds an active admin user
func (s *AuthService) CreateUser(ctx context.Context, req *domain.CreateAdminUserRequest) (*domain.AdminUserDTO, error) {
	if !req.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.userRepo.GetByEmail(ctx, emailAddr); err == nil {
		return nil, fmt.Errorf("%w: a user with email %s already exists", ErrConflict, emailAddr)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.AdminUser{
		Email:        emailAddr,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a user with email %s already exists", ErrConflict, emailAddr)
		}
		return nil, mapper.FormatError("user", "create", err)
	}

	actorID, actorName := auth.Actor(ctx)
	s.logger.Info("admin user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("created_by", actorID),
		zap.String("created_by_name", actorName))

	dto := mapper.ToAdminUserDTO(user)
	return &dto, nil
}

// SetActive enables or disables sign-in for a user. The last active admin
// cannot be deactivated, and callers cannot deactivate themselves.
func (s *AuthService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.AdminUserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}

	if !active && user.IsActive {
		if caller, ok := auth.FromContext(ctx); ok && caller.UserID == user.ID {
			return nil, fmt.Errorf("%w: you cannot deactivate your own account", ErrInvalidInput)
		}
		if user.Role == domain.AdminRoleAdmin {
			admins, err := s.userRepo.CountActiveAdmins(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to count admins: %w", err)
			}
			if admins <= 1 {
				return nil, ErrCannotRemoveLastAdmin
			}
		}
	}

	if err := s.userRepo.SetActive(ctx, id, active); err != nil {
		return nil, mapper.FormatError("user", "update", err)
	}
	user.IsActive = active

	s.logger.Info("admin user active flag changed", zap.String("user_id", id.String()), zap.Bool("active", active))
	dto := mapper.ToAdminUserDTO(user)
	return &dto, nil
}

// ChangePassword replaces the caller's own password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, req *domain.ChangePasswordRequest) error {
	caller, ok := auth.FromContext(ctx)
	if !ok || caller.IsSystem() {
		return ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		return notFoundOr(err, "user")
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return mapper.FormatError("user", "update", err)
	}

	s.logger.Info("admin password changed", zap.String("user_id", user.ID.String()))
	return nil
}
