package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
	"gorm.io/gorm"
)

type AdminUserRepository struct {
	db *gorm.DB
}

func NewAdminUserRepository(db *gorm.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

func (r *AdminUserRepository) Create(ctx context.Context, user *domain.AdminUser) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *AdminUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AdminUser, error) {
	var user domain.AdminUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail looks a user up by case-insensitive email
func (r *AdminUserRepository) GetByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	var user domain.AdminUser
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *AdminUserRepository) Update(ctx context.Context, user *domain.AdminUser) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// SetActive toggles whether the user may sign in
func (r *AdminUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&domain.AdminUser{}).Where("id = ?", id).Update("is_active", active).Error
}

// TouchLastLogin records a successful sign-in
func (r *AdminUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.AdminUser{}).Where("id = ?", id).Update("last_login_at", at).Error
}

// List returns every admin user ordered by email
func (r *AdminUserRepository) List(ctx context.Context) ([]domain.AdminUser, error) {
	var users []domain.AdminUser
	err := r.db.WithContext(ctx).Order("email ASC").Find(&users).Error
	return users, err
}

// ListActiveEmails returns the addresses of active users with the given role
func (r *AdminUserRepository) ListActiveEmails(ctx context.Context, role domain.AdminRole) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).Model(&domain.AdminUser{}).
		Where("is_active = ? AND role = ?", true, role).
		Order("email ASC").
		Pluck("email", &emails).Error
	return emails, err
}

// CountActiveAdmins counts active users with the admin role
func (r *AdminUserRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.AdminUser{}).
		Where("is_active = ? AND role = ?", true, domain.AdminRoleAdmin).
		Count(&count).Error
	return count, err
}
