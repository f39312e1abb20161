package domain

import (
	"time"

	"github.com/google/uuid"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Locations

type StateDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Slug      string    `json:"slug"`
	FirmCount int64     `json:"firmCount"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type MetroDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	StateID   uuid.UUID `json:"stateId"`
	StateCode string    `json:"stateCode,omitempty"`
	FirmCount int64     `json:"firmCount"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type CityDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	StateID   uuid.UUID  `json:"stateId"`
	StateCode string     `json:"stateCode,omitempty"`
	MetroID   *uuid.UUID `json:"metroId,omitempty"`
	MetroName string     `json:"metroName,omitempty"`
	FirmCount int64      `json:"firmCount"`
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
}

type CreateStateRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,len=2,alpha"`
}

type UpdateStateRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,len=2,alpha"`
}

type CreateMetroRequest struct {
	Name    string    `json:"name" validate:"required,max=150"`
	StateID uuid.UUID `json:"stateId" validate:"required"`
}

type UpdateMetroRequest struct {
	Name string `json:"name" validate:"required,max=150"`
}

type CreateCityRequest struct {
	Name    string     `json:"name" validate:"required,max=150"`
	StateID uuid.UUID  `json:"stateId" validate:"required"`
	MetroID *uuid.UUID `json:"metroId,omitempty"`
}

type UpdateCityRequest struct {
	Name    string     `json:"name" validate:"required,max=150"`
	MetroID *uuid.UUID `json:"metroId,omitempty"`
}

// Practice areas

type PracticeAreaDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IsFeatured  bool      `json:"isFeatured"`
	SortOrder   int       `json:"sortOrder"`
	FirmCount   int64     `json:"firmCount"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

// PracticeAreaSummaryDTO is the short form embedded in firm and lawyer payloads
type PracticeAreaSummaryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type CreatePracticeAreaRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	IsFeatured  bool   `json:"isFeatured"`
	SortOrder   int    `json:"sortOrder" validate:"gte=0"`
}

type UpdatePracticeAreaRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	IsFeatured  bool   `json:"isFeatured"`
	SortOrder   int    `json:"sortOrder" validate:"gte=0"`
}

// Firms

type FirmDTO struct {
	ID            uuid.UUID                `json:"id"`
	Name          string                   `json:"name"`
	Slug          string                   `json:"slug"`
	Description   string                   `json:"description,omitempty"`
	Website       string                   `json:"website,omitempty"`
	Email         string                   `json:"email,omitempty"`
	Phone         string                   `json:"phone,omitempty"`
	LogoURL       string                   `json:"logoUrl,omitempty"`
	FoundedYear   *int                     `json:"foundedYear,omitempty"`
	Status        FirmStatus               `json:"status"`
	Tier          int                      `json:"tier"`
	IsPremium     bool                     `json:"isPremium"`
	PremiumActive bool                     `json:"premiumActive"`
	PremiumUntil  *string                  `json:"premiumUntil,omitempty"`
	Source        FirmSource               `json:"source"`
	PracticeAreas []PracticeAreaSummaryDTO `json:"practiceAreas"`
	Headquarters  *OfficeDTO               `json:"headquarters,omitempty"`
	CreatedAt     string                   `json:"createdAt"`
	UpdatedAt     string                   `json:"updatedAt"`
}

// FirmDetailDTO is the full firm profile with offices and lawyers
type FirmDetailDTO struct {
	FirmDTO
	Offices []OfficeDTO `json:"offices"`
	Lawyers []LawyerDTO `json:"lawyers"`
}

type CreateFirmRequest struct {
	Name            string      `json:"name" validate:"required,max=200"`
	Description     string      `json:"description,omitempty" validate:"max=5000"`
	Website         string      `json:"website,omitempty" validate:"omitempty,url,max=500"`
	Email           string      `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone           string      `json:"phone,omitempty" validate:"max=50"`
	FoundedYear     *int        `json:"foundedYear,omitempty" validate:"omitempty,gte=1700,lte=2100"`
	Status          FirmStatus  `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	Tier            int         `json:"tier" validate:"gte=0,lte=3"`
	IsPremium       bool        `json:"isPremium"`
	PremiumUntil    *time.Time  `json:"premiumUntil,omitempty"`
	PracticeAreaIDs []uuid.UUID `json:"practiceAreaIds,omitempty"`
}

type UpdateFirmRequest struct {
	Name            string      `json:"name" validate:"required,max=200"`
	Description     string      `json:"description,omitempty" validate:"max=5000"`
	Website         string      `json:"website,omitempty" validate:"omitempty,url,max=500"`
	Email           string      `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone           string      `json:"phone,omitempty" validate:"max=50"`
	FoundedYear     *int        `json:"foundedYear,omitempty" validate:"omitempty,gte=1700,lte=2100"`
	Status          FirmStatus  `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	PracticeAreaIDs []uuid.UUID `json:"practiceAreaIds,omitempty"`
}

// UpdateFirmListingRequest changes the paid placement of a firm
type UpdateFirmListingRequest struct {
	Tier         int        `json:"tier" validate:"gte=0,lte=3"`
	IsPremium    bool       `json:"isPremium"`
	PremiumUntil *time.Time `json:"premiumUntil,omitempty"`
}

type SetPracticeAreasRequest struct {
	PracticeAreaIDs []uuid.UUID `json:"practiceAreaIds"`
}

// Offices

type OfficeDTO struct {
	ID             uuid.UUID  `json:"id"`
	FirmID         uuid.UUID  `json:"firmId"`
	Name           string     `json:"name,omitempty"`
	Address        string     `json:"address,omitempty"`
	PostalCode     string     `json:"postalCode,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	StateID        uuid.UUID  `json:"stateId"`
	StateName      string     `json:"stateName,omitempty"`
	StateCode      string     `json:"stateCode,omitempty"`
	MetroID        *uuid.UUID `json:"metroId,omitempty"`
	MetroName      string     `json:"metroName,omitempty"`
	CityID         uuid.UUID  `json:"cityId"`
	CityName       string     `json:"cityName,omitempty"`
	IsHeadquarters bool       `json:"isHeadquarters"`
	CreatedAt      string     `json:"createdAt"`
	UpdatedAt      string     `json:"updatedAt"`
}

type CreateOfficeRequest struct {
	Name           string    `json:"name,omitempty" validate:"max=200"`
	Address        string    `json:"address,omitempty" validate:"max=500"`
	PostalCode     string    `json:"postalCode,omitempty" validate:"max=20"`
	Phone          string    `json:"phone,omitempty" validate:"max=50"`
	CityID         uuid.UUID `json:"cityId" validate:"required"`
	IsHeadquarters bool      `json:"isHeadquarters"`
}

type UpdateOfficeRequest struct {
	Name           string    `json:"name,omitempty" validate:"max=200"`
	Address        string    `json:"address,omitempty" validate:"max=500"`
	PostalCode     string    `json:"postalCode,omitempty" validate:"max=20"`
	Phone          string    `json:"phone,omitempty" validate:"max=50"`
	CityID         uuid.UUID `json:"cityId" validate:"required"`
	IsHeadquarters bool      `json:"isHeadquarters"`
}

// Lawyers

type LawyerDTO struct {
	ID            uuid.UUID                `json:"id"`
	FirmID        uuid.UUID                `json:"firmId"`
	FirmName      string                   `json:"firmName,omitempty"`
	OfficeID      *uuid.UUID               `json:"officeId,omitempty"`
	FirstName     string                   `json:"firstName"`
	LastName      string                   `json:"lastName"`
	FullName      string                   `json:"fullName"`
	Slug          string                   `json:"slug"`
	Title         string                   `json:"title,omitempty"`
	Email         string                   `json:"email,omitempty"`
	Phone         string                   `json:"phone,omitempty"`
	Bio           string                   `json:"bio,omitempty"`
	PhotoURL      string                   `json:"photoUrl,omitempty"`
	BarAdmissions string                   `json:"barAdmissions,omitempty"`
	PracticeAreas []PracticeAreaSummaryDTO `json:"practiceAreas"`
	CreatedAt     string                   `json:"createdAt"`
	UpdatedAt     string                   `json:"updatedAt"`
}

type CreateLawyerRequest struct {
	OfficeID        *uuid.UUID  `json:"officeId,omitempty"`
	FirstName       string      `json:"firstName" validate:"required,max=100"`
	LastName        string      `json:"lastName" validate:"required,max=100"`
	Title           string      `json:"title,omitempty" validate:"max=150"`
	Email           string      `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone           string      `json:"phone,omitempty" validate:"max=50"`
	Bio             string      `json:"bio,omitempty" validate:"max=5000"`
	BarAdmissions   string      `json:"barAdmissions,omitempty" validate:"max=500"`
	PracticeAreaIDs []uuid.UUID `json:"practiceAreaIds,omitempty"`
}

type UpdateLawyerRequest struct {
	OfficeID        *uuid.UUID  `json:"officeId,omitempty"`
	FirstName       string      `json:"firstName" validate:"required,max=100"`
	LastName        string      `json:"lastName" validate:"required,max=100"`
	Title           string      `json:"title,omitempty" validate:"max=150"`
	Email           string      `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone           string      `json:"phone,omitempty" validate:"max=50"`
	Bio             string      `json:"bio,omitempty" validate:"max=5000"`
	BarAdmissions   string      `json:"barAdmissions,omitempty" validate:"max=500"`
	PracticeAreaIDs []uuid.UUID `json:"practiceAreaIds,omitempty"`
}

// Nominations

type NominationDTO struct {
	ID                    uuid.UUID        `json:"id"`
	FirmName              string           `json:"firmName"`
	FirmWebsite           string           `json:"firmWebsite,omitempty"`
	FirmEmail             string           `json:"firmEmail,omitempty"`
	FirmPhone             string           `json:"firmPhone,omitempty"`
	Address               string           `json:"address,omitempty"`
	City                  string           `json:"city"`
	State                 string           `json:"state"`
	PracticeAreas         []string         `json:"practiceAreas"`
	NominatorName         string           `json:"nominatorName"`
	NominatorEmail        string           `json:"nominatorEmail"`
	NominatorRelationship string           `json:"nominatorRelationship,omitempty"`
	Reason                string           `json:"reason,omitempty"`
	Status                NominationStatus `json:"status"`
	ReviewedByName        string           `json:"reviewedByName,omitempty"`
	ReviewedAt            *string          `json:"reviewedAt,omitempty"`
	ReviewNotes           string           `json:"reviewNotes,omitempty"`
	FirmID                *uuid.UUID       `json:"firmId,omitempty"`
	CreatedAt             string           `json:"createdAt"`
}

// SubmitNominationRequest is the public nomination form. Website2 is a
// honeypot: it is hidden from people and must stay empty.
type SubmitNominationRequest struct {
	FirmName              string `json:"firmName" validate:"required,max=200"`
	FirmWebsite           string `json:"firmWebsite,omitempty" validate:"omitempty,url,max=500"`
	FirmEmail             string `json:"firmEmail,omitempty" validate:"omitempty,email,max=255"`
	FirmPhone             string `json:"firmPhone,omitempty" validate:"max=50"`
	Address               string `json:"address,omitempty" validate:"max=500"`
	City                  string `json:"city" validate:"required,max=150"`
	State                 string `json:"state" validate:"required,max=100"`
	PracticeAreas         string `json:"practiceAreas,omitempty" validate:"max=1000"`
	NominatorName         string `json:"nominatorName" validate:"required,max=200"`
	NominatorEmail        string `json:"nominatorEmail" validate:"required,email,max=255"`
	NominatorRelationship string `json:"nominatorRelationship,omitempty" validate:"max=100"`
	Reason                string `json:"reason,omitempty" validate:"max=5000"`
	Website2              string `json:"website2,omitempty"`
}

// ApproveNominationRequest optionally links the nomination to an existing firm
type ApproveNominationRequest struct {
	ExistingFirmID *uuid.UUID `json:"existingFirmId,omitempty"`
	Tier           int        `json:"tier" validate:"gte=0,lte=3"`
	Notes          string     `json:"notes,omitempty" validate:"max=2000"`
}

type RejectNominationRequest struct {
	Notes string `json:"notes" validate:"required,max=2000"`
}

// Content

type PageDTO struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Body            string    `json:"body"`
	BodyHTML        string    `json:"bodyHtml"`
	MetaDescription string    `json:"metaDescription,omitempty"`
	IsPublished     bool      `json:"isPublished"`
	ShowInNav       bool      `json:"showInNav"`
	SortOrder       int       `json:"sortOrder"`
	CreatedAt       string    `json:"createdAt"`
	UpdatedAt       string    `json:"updatedAt"`
}

type CreatePageRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Slug            string `json:"slug,omitempty" validate:"max=220"`
	Body            string `json:"body" validate:"max=100000"`
	MetaDescription string `json:"metaDescription,omitempty" validate:"max=300"`
	IsPublished     bool   `json:"isPublished"`
	ShowInNav       bool   `json:"showInNav"`
	SortOrder       int    `json:"sortOrder" validate:"gte=0"`
}

type UpdatePageRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Slug            string `json:"slug,omitempty" validate:"max=220"`
	Body            string `json:"body" validate:"max=100000"`
	MetaDescription string `json:"metaDescription,omitempty" validate:"max=300"`
	IsPublished     bool   `json:"isPublished"`
	ShowInNav       bool   `json:"showInNav"`
	SortOrder       int    `json:"sortOrder" validate:"gte=0"`
}

type BlogPostDTO struct {
	ID               uuid.UUID      `json:"id"`
	Title            string         `json:"title"`
	Slug             string         `json:"slug"`
	Excerpt          string         `json:"excerpt,omitempty"`
	Body             string         `json:"body,omitempty"`
	BodyHTML         string         `json:"bodyHtml,omitempty"`
	AuthorName       string         `json:"authorName,omitempty"`
	CoverImageURL    string         `json:"coverImageUrl,omitempty"`
	Status           BlogPostStatus `json:"status"`
	PublishedAt      *string        `json:"publishedAt,omitempty"`
	PracticeAreaID   *uuid.UUID     `json:"practiceAreaId,omitempty"`
	PracticeAreaName string         `json:"practiceAreaName,omitempty"`
	CreatedAt        string         `json:"createdAt"`
	UpdatedAt        string         `json:"updatedAt"`
}

type CreateBlogPostRequest struct {
	Title          string         `json:"title" validate:"required,max=200"`
	Slug           string         `json:"slug,omitempty" validate:"max=220"`
	Excerpt        string         `json:"excerpt,omitempty" validate:"max=500"`
	Body           string         `json:"body" validate:"max=100000"`
	AuthorName     string         `json:"authorName,omitempty" validate:"max=200"`
	Status         BlogPostStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published"`
	PracticeAreaID *uuid.UUID     `json:"practiceAreaId,omitempty"`
}

type UpdateBlogPostRequest struct {
	Title          string         `json:"title" validate:"required,max=200"`
	Slug           string         `json:"slug,omitempty" validate:"max=220"`
	Excerpt        string         `json:"excerpt,omitempty" validate:"max=500"`
	Body           string         `json:"body" validate:"max=100000"`
	AuthorName     string         `json:"authorName,omitempty" validate:"max=200"`
	Status         BlogPostStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published"`
	PracticeAreaID *uuid.UUID     `json:"practiceAreaId,omitempty"`
}

// Admin users and auth

type AdminUserDTO struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        AdminRole `json:"role"`
	IsActive    bool      `json:"isActive"`
	LastLoginAt *string   `json:"lastLoginAt,omitempty"`
	CreatedAt   string    `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        AdminUserDTO `json:"user"`
}

// AuthUserDTO describes the caller of an authenticated request
type AuthUserDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName"`
	Role        AdminRole `json:"role"`
	AuthMethod  string    `json:"authMethod"`
}

type CreateAdminUserRequest struct {
	Email       string    `json:"email" validate:"required,email,max=255"`
	DisplayName string    `json:"displayName" validate:"required,max=200"`
	Password    string    `json:"password" validate:"required,min=10,max=72"`
	Role        AdminRole `json:"role" validate:"required,oneof=admin editor"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,max=72"`
	NewPassword     string `json:"newPassword" validate:"required,min=10,max=72"`
}

// Imports

type ImportRowErrorDTO struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

type ImportRunDTO struct {
	ID           uuid.UUID           `json:"id"`
	Filename     string              `json:"filename"`
	DryRun       bool                `json:"dryRun"`
	TotalRows    int                 `json:"totalRows"`
	CreatedCount int                 `json:"createdCount"`
	UpdatedCount int                 `json:"updatedCount"`
	FailedCount  int                 `json:"failedCount"`
	Errors       []ImportRowErrorDTO `json:"errors"`
	PerformedBy  string              `json:"performedBy,omitempty"`
	CreatedAt    string              `json:"createdAt"`
}

// Audit

type AuditLogDTO struct {
	ID          uuid.UUID   `json:"id"`
	UserID      string      `json:"userId,omitempty"`
	UserEmail   string      `json:"userEmail,omitempty"`
	UserName    string      `json:"userName,omitempty"`
	Action      AuditAction `json:"action"`
	EntityType  string      `json:"entityType"`
	EntityID    *uuid.UUID  `json:"entityId,omitempty"`
	Path        string      `json:"path,omitempty"`
	Values      string      `json:"values,omitempty"`
	IPAddress   string      `json:"ipAddress,omitempty"`
	RequestID   string      `json:"requestId,omitempty"`
	PerformedAt string      `json:"performedAt"`
}

// Dashboard

type DashboardMetricsDTO struct {
	TotalFirms         int64           `json:"totalFirms"`
	ActiveFirms        int64           `json:"activeFirms"`
	PremiumFirms       int64           `json:"premiumFirms"`
	TotalOffices       int64           `json:"totalOffices"`
	TotalLawyers       int64           `json:"totalLawyers"`
	PendingNominations int64           `json:"pendingNominations"`
	PublishedPosts     int64           `json:"publishedPosts"`
	RecentNominations  []NominationDTO `json:"recentNominations"`
	RecentImports      []ImportRunDTO  `json:"recentImports"`
}

// Public directory

type DirectoryHomeDTO struct {
	States                []StateDTO        `json:"states"`
	FeaturedPracticeAreas []PracticeAreaDTO `json:"featuredPracticeAreas"`
	PremiumFirms          []FirmDTO         `json:"premiumFirms"`
	RecentPosts           []BlogPostDTO     `json:"recentPosts"`
}

type StateLandingDTO struct {
	State         StateDTO          `json:"state"`
	Metros        []MetroDTO        `json:"metros"`
	Cities        []CityDTO         `json:"cities"`
	PracticeAreas []PracticeAreaDTO `json:"practiceAreas"`
	Firms         PaginatedResponse `json:"firms"`
}

type MetroLandingDTO struct {
	State  StateDTO          `json:"state"`
	Metro  MetroDTO          `json:"metro"`
	Cities []CityDTO         `json:"cities"`
	Firms  PaginatedResponse `json:"firms"`
}

type CityLandingDTO struct {
	State StateDTO          `json:"state"`
	Metro *MetroDTO         `json:"metro,omitempty"`
	City  CityDTO           `json:"city"`
	Firms PaginatedResponse `json:"firms"`
}

type PracticeAreaLandingDTO struct {
	PracticeArea PracticeAreaDTO   `json:"practiceArea"`
	States       []StateDTO        `json:"states"`
	Firms        PaginatedResponse `json:"firms"`
}

// FirmSearchParams are the public search filters. Location and practice
// area filters are slugs; State also accepts a two-letter code.
type FirmSearchParams struct {
	Query        string `json:"q,omitempty"`
	State        string `json:"state,omitempty"`
	Metro        string `json:"metro,omitempty"`
	City         string `json:"city,omitempty"`
	PracticeArea string `json:"practiceArea,omitempty"`
	MinTier      int    `json:"minTier,omitempty"`
	PremiumOnly  bool   `json:"premiumOnly,omitempty"`
	Page         int    `json:"page,omitempty"`
	PageSize     int    `json:"pageSize,omitempty"`
}
