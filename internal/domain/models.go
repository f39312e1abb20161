package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel holds the fields shared by every directory table
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a UUID when the caller did not set one
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// State is a US state or territory
type State struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Code string `gorm:"type:varchar(2);not null;uniqueIndex"`
	Slug string `gorm:"type:varchar(120);not null;uniqueIndex"`
}

// Metro is a metropolitan area grouping cities within a state
type Metro struct {
	BaseModel
	Name    string    `gorm:"type:varchar(150);not null"`
	Slug    string    `gorm:"type:varchar(170);not null;uniqueIndex:idx_metro_state_slug"`
	StateID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_metro_state_slug"`
	State   *State    `gorm:"foreignKey:StateID"`
}

// City is a city within a state, optionally part of a metro
type City struct {
	BaseModel
	Name    string     `gorm:"type:varchar(150);not null"`
	Slug    string     `gorm:"type:varchar(170);not null;uniqueIndex:idx_city_state_slug"`
	StateID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_city_state_slug"`
	State   *State     `gorm:"foreignKey:StateID"`
	MetroID *uuid.UUID `gorm:"type:uuid;index"`
	Metro   *Metro     `gorm:"foreignKey:MetroID"`
}

// PracticeArea is a legal specialty firms and lawyers can be tagged with
type PracticeArea struct {
	BaseModel
	Name        string `gorm:"type:varchar(150);not null;uniqueIndex"`
	Slug        string `gorm:"type:varchar(170);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	IsFeatured  bool   `gorm:"not null;default:false"`
	SortOrder   int    `gorm:"not null;default:0"`
}

// FirmStatus controls whether a firm is visible in the public directory
type FirmStatus string

const (
	FirmStatusActive   FirmStatus = "active"
	FirmStatusInactive FirmStatus = "inactive"
)

// IsValid reports whether the status is a known value
func (s FirmStatus) IsValid() bool {
	switch s {
	case FirmStatusActive, FirmStatusInactive:
		return true
	}
	return false
}

// FirmSource records how a firm entered the directory
type FirmSource string

const (
	FirmSourceAdmin      FirmSource = "admin"
	FirmSourceImport     FirmSource = "import"
	FirmSourceNomination FirmSource = "nomination"
)

// MaxFirmTier is the highest display tier a firm can hold
const MaxFirmTier = 3

// Firm is a law firm listed in the directory
type Firm struct {
	BaseModel
	Name          string         `gorm:"type:varchar(200);not null;index"`
	Slug          string         `gorm:"type:varchar(220);not null;uniqueIndex"`
	Description   string         `gorm:"type:text"`
	Website       string         `gorm:"type:varchar(500)"`
	Email         string         `gorm:"type:varchar(255)"`
	Phone         string         `gorm:"type:varchar(50)"`
	LogoPath      string         `gorm:"type:varchar(500)"`
	FoundedYear   *int           `gorm:"column:founded_year"`
	Status        FirmStatus     `gorm:"type:varchar(20);not null;default:'active';index"`
	Tier          int            `gorm:"not null;default:0;index"`
	IsPremium     bool           `gorm:"not null;default:false;index"`
	PremiumUntil  *time.Time     `gorm:"column:premium_until"`
	Source        FirmSource     `gorm:"type:varchar(20);not null;default:'admin'"`
	Offices       []Office       `gorm:"foreignKey:FirmID;constraint:OnDelete:CASCADE"`
	Lawyers       []Lawyer       `gorm:"foreignKey:FirmID;constraint:OnDelete:CASCADE"`
	PracticeAreas []PracticeArea `gorm:"many2many:firm_practice_areas;constraint:OnDelete:CASCADE"`
}

// PremiumActive reports whether the premium flag is currently in effect
func (f *Firm) PremiumActive(now time.Time) bool {
	if !f.IsPremium {
		return false
	}
	return f.PremiumUntil == nil || f.PremiumUntil.After(now)
}

// Office is a physical location of a firm
type Office struct {
	BaseModel
	FirmID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	Firm           *Firm      `gorm:"foreignKey:FirmID"`
	Name           string     `gorm:"type:varchar(200)"`
	Address        string     `gorm:"type:varchar(500)"`
	PostalCode     string     `gorm:"type:varchar(20)"`
	Phone          string     `gorm:"type:varchar(50)"`
	StateID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	State          *State     `gorm:"foreignKey:StateID"`
	MetroID        *uuid.UUID `gorm:"type:uuid;index"`
	Metro          *Metro     `gorm:"foreignKey:MetroID"`
	CityID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	City           *City      `gorm:"foreignKey:CityID"`
	IsHeadquarters bool       `gorm:"not null;default:false"`
}

// Lawyer is an attorney working at a firm
type Lawyer struct {
	BaseModel
	FirmID        uuid.UUID      `gorm:"type:uuid;not null;index"`
	Firm          *Firm          `gorm:"foreignKey:FirmID"`
	OfficeID      *uuid.UUID     `gorm:"type:uuid;index"`
	Office        *Office        `gorm:"foreignKey:OfficeID"`
	FirstName     string         `gorm:"type:varchar(100);not null"`
	LastName      string         `gorm:"type:varchar(100);not null"`
	Slug          string         `gorm:"type:varchar(220);not null;uniqueIndex"`
	Title         string         `gorm:"type:varchar(150)"`
	Email         string         `gorm:"type:varchar(255)"`
	Phone         string         `gorm:"type:varchar(50)"`
	Bio           string         `gorm:"type:text"`
	PhotoPath     string         `gorm:"type:varchar(500)"`
	BarAdmissions string         `gorm:"type:varchar(500)"`
	PracticeAreas []PracticeArea `gorm:"many2many:lawyer_practice_areas;constraint:OnDelete:CASCADE"`
}

// FullName returns the lawyer's display name
func (l *Lawyer) FullName() string {
	return l.FirstName + " " + l.LastName
}

// NominationStatus is the review state of a nomination
type NominationStatus string

const (
	NominationStatusPending  NominationStatus = "pending"
	NominationStatusApproved NominationStatus = "approved"
	NominationStatusRejected NominationStatus = "rejected"
)

// IsValid reports whether the status is a known value
func (s NominationStatus) IsValid() bool {
	switch s {
	case NominationStatusPending, NominationStatusApproved, NominationStatusRejected:
		return true
	}
	return false
}

// Nomination is a third-party proposal to list a firm
type Nomination struct {
	BaseModel
	FirmName              string           `gorm:"type:varchar(200);not null"`
	FirmWebsite           string           `gorm:"type:varchar(500)"`
	FirmEmail             string           `gorm:"type:varchar(255)"`
	FirmPhone             string           `gorm:"type:varchar(50)"`
	Address               string           `gorm:"type:varchar(500)"`
	CityName              string           `gorm:"type:varchar(150);not null"`
	StateName             string           `gorm:"type:varchar(100);not null"`
	PracticeAreas         string           `gorm:"type:varchar(1000)"`
	NominatorName         string           `gorm:"type:varchar(200);not null"`
	NominatorEmail        string           `gorm:"type:varchar(255);not null;index"`
	NominatorRelationship string           `gorm:"type:varchar(100)"`
	Reason                string           `gorm:"type:text"`
	Status                NominationStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	ReviewedByID          string           `gorm:"type:varchar(100)"`
	ReviewedByName        string           `gorm:"type:varchar(200)"`
	ReviewedAt            *time.Time
	ReviewNotes           string     `gorm:"type:text"`
	FirmID                *uuid.UUID `gorm:"type:uuid;index"`
	Firm                  *Firm      `gorm:"foreignKey:FirmID"`
	IPAddress             string     `gorm:"type:varchar(64)"`
}

// Page is a static content page
type Page struct {
	BaseModel
	Title           string `gorm:"type:varchar(200);not null"`
	Slug            string `gorm:"type:varchar(220);not null;uniqueIndex"`
	Body            string `gorm:"type:text"`
	BodyHTML        string `gorm:"type:text;column:body_html"`
	MetaDescription string `gorm:"type:varchar(300)"`
	IsPublished     bool   `gorm:"not null;default:false;index"`
	ShowInNav       bool   `gorm:"not null;default:false"`
	SortOrder       int    `gorm:"not null;default:0"`
}

// BlogPostStatus is the publication state of a blog post
type BlogPostStatus string

const (
	BlogPostStatusDraft     BlogPostStatus = "draft"
	BlogPostStatusPublished BlogPostStatus = "published"
)

// BlogPost is an article in the directory blog
type BlogPost struct {
	BaseModel
	Title          string         `gorm:"type:varchar(200);not null"`
	Slug           string         `gorm:"type:varchar(220);not null;uniqueIndex"`
	Excerpt        string         `gorm:"type:varchar(500)"`
	Body           string         `gorm:"type:text"`
	BodyHTML       string         `gorm:"type:text;column:body_html"`
	AuthorName     string         `gorm:"type:varchar(200)"`
	CoverImagePath string         `gorm:"type:varchar(500)"`
	Status         BlogPostStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	PublishedAt    *time.Time     `gorm:"index"`
	PracticeAreaID *uuid.UUID     `gorm:"type:uuid;index"`
	PracticeArea   *PracticeArea  `gorm:"foreignKey:PracticeAreaID"`
}

// AdminRole is the role of a dashboard user
type AdminRole string

const (
	// AdminRoleAdmin can manage everything including other admin users
	AdminRoleAdmin AdminRole = "admin"
	// AdminRoleEditor can manage directory data and content
	AdminRoleEditor AdminRole = "editor"
	// AdminRoleService is assigned to API key callers
	AdminRoleService AdminRole = "service"
)

// IsValid reports whether the role can be assigned to a user
func (r AdminRole) IsValid() bool {
	return r == AdminRoleAdmin || r == AdminRoleEditor
}

// AdminUser is a person who can sign in to the admin dashboard
type AdminUser struct {
	BaseModel
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName  string    `gorm:"type:varchar(200);not null"`
	PasswordHash string    `gorm:"type:varchar(100);not null"`
	Role         AdminRole `gorm:"type:varchar(20);not null;default:'editor'"`
	IsActive     bool      `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
}

// ImportRun records one CSV bulk upload
type ImportRun struct {
	BaseModel
	Filename        string `gorm:"type:varchar(255);not null"`
	StoragePath     string `gorm:"type:varchar(500)"`
	DryRun          bool   `gorm:"not null;default:false"`
	TotalRows       int    `gorm:"not null;default:0"`
	CreatedCount    int    `gorm:"not null;default:0"`
	UpdatedCount    int    `gorm:"not null;default:0"`
	FailedCount     int    `gorm:"not null;default:0"`
	Errors          string `gorm:"type:text"`
	PerformedByID   string `gorm:"type:varchar(100)"`
	PerformedByName string `gorm:"type:varchar(200)"`
}

// AuditAction is the kind of change recorded in the audit log
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// AuditLog records a modification made through the admin API
type AuditLog struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey"`
	UserID      string      `gorm:"type:varchar(100);index"`
	UserEmail   string      `gorm:"type:varchar(255)"`
	UserName    string      `gorm:"type:varchar(200)"`
	Action      AuditAction `gorm:"type:varchar(20);not null"`
	EntityType  string      `gorm:"type:varchar(50);not null;index"`
	EntityID    *uuid.UUID  `gorm:"type:uuid;index"`
	Path        string      `gorm:"type:varchar(500)"`
	Values      string      `gorm:"type:text"`
	IPAddress   string      `gorm:"type:varchar(64)"`
	UserAgent   string      `gorm:"type:text"`
	RequestID   string      `gorm:"type:varchar(100)"`
	PerformedAt time.Time   `gorm:"not null;index"`
}

// BeforeCreate assigns a UUID when the caller did not set one
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
