package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/database"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/slug"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory sqlite database with the full schema.
// Each call gets its own database so tests can run in parallel.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the shared in-memory database alive and serialises writes
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateState inserts a state with a slug derived from its name
func CreateState(t *testing.T, db *gorm.DB, name, code string) *domain.State {
	t.Helper()
	st := &domain.State{Name: name, Code: code, Slug: slug.Make(name)}
	require.NoError(t, db.Create(st).Error)
	return st
}

// CreateMetro inserts a metro in the given state
func CreateMetro(t *testing.T, db *gorm.DB, state *domain.State, name string) *domain.Metro {
	t.Helper()
	m := &domain.Metro{Name: name, Slug: slug.Make(name), StateID: state.ID}
	require.NoError(t, db.Create(m).Error)
	return m
}

// CreateCity inserts a city in the given state, optionally within a metro
func CreateCity(t *testing.T, db *gorm.DB, state *domain.State, metro *domain.Metro, name string) *domain.City {
	t.Helper()
	c := &domain.City{Name: name, Slug: slug.Make(name), StateID: state.ID}
	if metro != nil {
		c.MetroID = &metro.ID
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreatePracticeArea inserts a practice area
func CreatePracticeArea(t *testing.T, db *gorm.DB, name string) *domain.PracticeArea {
	t.Helper()
	pa := &domain.PracticeArea{Name: name, Slug: slug.Make(name)}
	require.NoError(t, db.Create(pa).Error)
	return pa
}

// FirmOption customises a firm built by CreateFirm
type FirmOption func(*domain.Firm)

// WithTier sets the firm tier
func WithTier(tier int) FirmOption {
	return func(f *domain.Firm) { f.Tier = tier }
}

// WithPremium marks the firm premium until the given time (nil for open-ended)
func WithPremium(until *time.Time) FirmOption {
	return func(f *domain.Firm) {
		f.IsPremium = true
		f.PremiumUntil = until
	}
}

// WithStatus sets the firm status
func WithStatus(status domain.FirmStatus) FirmOption {
	return func(f *domain.Firm) { f.Status = status }
}

// WithPracticeAreas attaches practice areas to the firm
func WithPracticeAreas(areas ...*domain.PracticeArea) FirmOption {
	return func(f *domain.Firm) {
		for _, pa := range areas {
			f.PracticeAreas = append(f.PracticeAreas, *pa)
		}
	}
}

// CreateFirm inserts an active firm with optional overrides
func CreateFirm(t *testing.T, db *gorm.DB, name string, opts ...FirmOption) *domain.Firm {
	t.Helper()
	f := &domain.Firm{
		Name:   name,
		Slug:   slug.Make(name),
		Status: domain.FirmStatusActive,
		Source: domain.FirmSourceAdmin,
	}
	for _, opt := range opts {
		opt(f)
	}
	require.NoError(t, db.Create(f).Error)
	return f
}

// CreateOffice inserts an office for a firm in a city
func CreateOffice(t *testing.T, db *gorm.DB, firm *domain.Firm, city *domain.City, hq bool) *domain.Office {
	t.Helper()
	o := &domain.Office{
		FirmID:         firm.ID,
		Name:           city.Name + " office",
		Address:        "1 Main St",
		StateID:        city.StateID,
		MetroID:        city.MetroID,
		CityID:         city.ID,
		IsHeadquarters: hq,
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

// CreateLawyer inserts a lawyer at a firm
func CreateLawyer(t *testing.T, db *gorm.DB, firm *domain.Firm, first, last string) *domain.Lawyer {
	t.Helper()
	l := &domain.Lawyer{
		FirmID:    firm.ID,
		FirstName: first,
		LastName:  last,
		Slug:      slug.Make(first + " " + last + " " + uuid.NewString()[:8]),
	}
	require.NoError(t, db.Create(l).Error)
	return l
}

// CreateNomination inserts a pending nomination
func CreateNomination(t *testing.T, db *gorm.DB, firmName, cityName, stateName string) *domain.Nomination {
	t.Helper()
	n := &domain.Nomination{
		FirmName:       firmName,
		FirmWebsite:    "https://example.com",
		CityName:       cityName,
		StateName:      stateName,
		PracticeAreas:  "Family Law; Estate Planning",
		NominatorName:  "Pat Client",
		NominatorEmail: "pat@example.com",
		Reason:         "Great service",
		Status:         domain.NominationStatusPending,
	}
	require.NoError(t, db.Create(n).Error)
	return n
}

// CreateAdminUser inserts an active admin user with the given password hash
func CreateAdminUser(t *testing.T, db *gorm.DB, email, passwordHash string, role domain.AdminRole) *domain.AdminUser {
	t.Helper()
	u := &domain.AdminUser{
		Email:        email,
		DisplayName:  "Admin " + email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
