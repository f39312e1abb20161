package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lawdir/directory-api/internal/cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned for a wrong email or password
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrCannotRemoveLastAdmin is returned when deactivating the last active admin
	ErrCannotRemoveLastAdmin = errors.New("cannot deactivate the last active admin")

	// ErrInvalidRole is returned when an invalid role type is provided
	ErrInvalidRole = errors.New("invalid role type")

	// ErrInUse is returned when deleting a record other records still reference
	ErrInUse = errors.New("resource is still in use")

	// ErrNominationNotPending is returned when reviewing an already reviewed nomination
	ErrNominationNotPending = errors.New("nomination has already been reviewed")

	// ErrDuplicateNomination is returned when the same person nominates the same firm twice while pending
	ErrDuplicateNomination = errors.New("a pending nomination for this firm already exists")

	// ErrSpamDetected is returned when the nomination honeypot field is filled in
	ErrSpamDetected = errors.New("submission rejected")

	// ErrUnsupportedFileType is returned for uploads with a disallowed content type
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// notFoundOr maps gorm.ErrRecordNotFound to ErrNotFound and wraps anything else
func notFoundOr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, entity)
	}
	return fmt.Errorf("failed to get %s: %w", entity, err)
}

// isUniqueViolation detects unique constraint errors from postgres and sqlite
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

// Cache key prefixes owned by the directory read side
const (
	cachePrefixDirectory = "directory:"
	cachePrefixContent   = "content:"
)

// invalidateDirectory drops cached navigation data after a write. Failures
// are logged only; entries still expire through their TTL.
func invalidateDirectory(ctx context.Context, c cache.Cache, logger *zap.Logger) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx, cachePrefixDirectory); err != nil {
		logger.Warn("failed to invalidate directory cache", zap.Error(err))
	}
}

func invalidateContent(ctx context.Context, c cache.Cache, logger *zap.Logger) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx, cachePrefixContent); err != nil {
		logger.Warn("failed to invalidate content cache", zap.Error(err))
	}
	// the home page embeds recent posts
	if err := c.Invalidate(ctx, cachePrefixDirectory+"home"); err != nil {
		logger.Warn("failed to invalidate directory home cache", zap.Error(err))
	}
}

// readThrough returns the value stored under key or computes and stores it.
// Cache failures fall through to the database.
func readThrough[T any](ctx context.Context, c cache.Cache, logger *zap.Logger, key string, load func() (T, error)) (T, error) {
	var value T
	hit, err := c.Get(ctx, key, &value)
	if err != nil {
		logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return value, nil
	}

	value, err = load()
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, key, value); err != nil {
		logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

// totalPages computes the page count for a paginated response
func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
