package mapper

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lawdir/directory-api/internal/domain"
)

// TimestampFormat is the ISO 8601 layout used for every DTO timestamp
const TimestampFormat = "2006-01-02T15:04:05Z"

// MediaPrefix is the public route that serves stored uploads
const MediaPrefix = "/media/"

// MediaURL turns a storage path into a public URL
func MediaURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return MediaPrefix + strings.TrimPrefix(path, "/")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ToStateDTO converts State to StateDTO
func ToStateDTO(state *domain.State, firmCount int64) domain.StateDTO {
	return domain.StateDTO{
		ID:        state.ID,
		Name:      state.Name,
		Code:      state.Code,
		Slug:      state.Slug,
		FirmCount: firmCount,
		CreatedAt: formatTime(state.CreatedAt),
		UpdatedAt: formatTime(state.UpdatedAt),
	}
}

// ToMetroDTO converts Metro to MetroDTO
func ToMetroDTO(metro *domain.Metro, firmCount int64) domain.MetroDTO {
	dto := domain.MetroDTO{
		ID:        metro.ID,
		Name:      metro.Name,
		Slug:      metro.Slug,
		StateID:   metro.StateID,
		FirmCount: firmCount,
		CreatedAt: formatTime(metro.CreatedAt),
		UpdatedAt: formatTime(metro.UpdatedAt),
	}
	if metro.State != nil {
		dto.StateCode = metro.State.Code
	}
	return dto
}

// ToCityDTO converts City to CityDTO
func ToCityDTO(city *domain.City, firmCount int64) domain.CityDTO {
	dto := domain.CityDTO{
		ID:        city.ID,
		Name:      city.Name,
		Slug:      city.Slug,
		StateID:   city.StateID,
		MetroID:   city.MetroID,
		FirmCount: firmCount,
		CreatedAt: formatTime(city.CreatedAt),
		UpdatedAt: formatTime(city.UpdatedAt),
	}
	if city.State != nil {
		dto.StateCode = city.State.Code
	}
	if city.Metro != nil {
		dto.MetroName = city.Metro.Name
	}
	return dto
}

// ToPracticeAreaDTO converts PracticeArea to PracticeAreaDTO
func ToPracticeAreaDTO(pa *domain.PracticeArea, firmCount int64) domain.PracticeAreaDTO {
	return domain.PracticeAreaDTO{
		ID:          pa.ID,
		Name:        pa.Name,
		Slug:        pa.Slug,
		Description: pa.Description,
		IsFeatured:  pa.IsFeatured,
		SortOrder:   pa.SortOrder,
		FirmCount:   firmCount,
		CreatedAt:   formatTime(pa.CreatedAt),
		UpdatedAt:   formatTime(pa.UpdatedAt),
	}
}

// ToPracticeAreaSummaries converts loaded practice areas to their short form
func ToPracticeAreaSummaries(areas []domain.PracticeArea) []domain.PracticeAreaSummaryDTO {
	out := make([]domain.PracticeAreaSummaryDTO, 0, len(areas))
	for _, pa := range areas {
		out = append(out, domain.PracticeAreaSummaryDTO{ID: pa.ID, Name: pa.Name, Slug: pa.Slug})
	}
	return out
}

// ToFirmDTO converts Firm to FirmDTO. The headquarters office is filled in
// when offices were preloaded.
func ToFirmDTO(firm *domain.Firm, now time.Time) domain.FirmDTO {
	dto := domain.FirmDTO{
		ID:            firm.ID,
		Name:          firm.Name,
		Slug:          firm.Slug,
		Description:   firm.Description,
		Website:       firm.Website,
		Email:         firm.Email,
		Phone:         firm.Phone,
		LogoURL:       MediaURL(firm.LogoPath),
		FoundedYear:   firm.FoundedYear,
		Status:        firm.Status,
		Tier:          firm.Tier,
		IsPremium:     firm.IsPremium,
		PremiumActive: firm.PremiumActive(now),
		PremiumUntil:  formatTimePtr(firm.PremiumUntil),
		Source:        firm.Source,
		PracticeAreas: ToPracticeAreaSummaries(firm.PracticeAreas),
		CreatedAt:     formatTime(firm.CreatedAt),
		UpdatedAt:     formatTime(firm.UpdatedAt),
	}
	for i := range firm.Offices {
		if firm.Offices[i].IsHeadquarters {
			hq := ToOfficeDTO(&firm.Offices[i])
			dto.Headquarters = &hq
			break
		}
	}
	return dto
}

// ToFirmDetailDTO converts a firm with preloaded offices and lawyers
func ToFirmDetailDTO(firm *domain.Firm, now time.Time) domain.FirmDetailDTO {
	detail := domain.FirmDetailDTO{
		FirmDTO: ToFirmDTO(firm, now),
		Offices: make([]domain.OfficeDTO, 0, len(firm.Offices)),
		Lawyers: make([]domain.LawyerDTO, 0, len(firm.Lawyers)),
	}
	for i := range firm.Offices {
		detail.Offices = append(detail.Offices, ToOfficeDTO(&firm.Offices[i]))
	}
	for i := range firm.Lawyers {
		detail.Lawyers = append(detail.Lawyers, ToLawyerDTO(&firm.Lawyers[i]))
	}
	return detail
}

// ToOfficeDTO converts Office to OfficeDTO
func ToOfficeDTO(office *domain.Office) domain.OfficeDTO {
	dto := domain.OfficeDTO{
		ID:             office.ID,
		FirmID:         office.FirmID,
		Name:           office.Name,
		Address:        office.Address,
		PostalCode:     office.PostalCode,
		Phone:          office.Phone,
		StateID:        office.StateID,
		MetroID:        office.MetroID,
		CityID:         office.CityID,
		IsHeadquarters: office.IsHeadquarters,
		CreatedAt:      formatTime(office.CreatedAt),
		UpdatedAt:      formatTime(office.UpdatedAt),
	}
	if office.State != nil {
		dto.StateName = office.State.Name
		dto.StateCode = office.State.Code
	}
	if office.Metro != nil {
		dto.MetroName = office.Metro.Name
	}
	if office.City != nil {
		dto.CityName = office.City.Name
	}
	return dto
}

// ToLawyerDTO converts Lawyer to LawyerDTO
func ToLawyerDTO(lawyer *domain.Lawyer) domain.LawyerDTO {
	dto := domain.LawyerDTO{
		ID:            lawyer.ID,
		FirmID:        lawyer.FirmID,
		OfficeID:      lawyer.OfficeID,
		FirstName:     lawyer.FirstName,
		LastName:      lawyer.LastName,
		FullName:      lawyer.FullName(),
		Slug:          lawyer.Slug,
		Title:         lawyer.Title,
		Email:         lawyer.Email,
		Phone:         lawyer.Phone,
		Bio:           lawyer.Bio,
		PhotoURL:      MediaURL(lawyer.PhotoPath),
		BarAdmissions: lawyer.BarAdmissions,
		PracticeAreas: ToPracticeAreaSummaries(lawyer.PracticeAreas),
		CreatedAt:     formatTime(lawyer.CreatedAt),
		UpdatedAt:     formatTime(lawyer.UpdatedAt),
	}
	if lawyer.Firm != nil {
		dto.FirmName = lawyer.Firm.Name
	}
	return dto
}

// SplitPracticeAreas splits a free-text practice area list on ';', '|' or ','
func SplitPracticeAreas(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == '|' || r == ','
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

// ToNominationDTO converts Nomination to NominationDTO
func ToNominationDTO(n *domain.Nomination) domain.NominationDTO {
	return domain.NominationDTO{
		ID:                    n.ID,
		FirmName:              n.FirmName,
		FirmWebsite:           n.FirmWebsite,
		FirmEmail:             n.FirmEmail,
		FirmPhone:             n.FirmPhone,
		Address:               n.Address,
		City:                  n.CityName,
		State:                 n.StateName,
		PracticeAreas:         SplitPracticeAreas(n.PracticeAreas),
		NominatorName:         n.NominatorName,
		NominatorEmail:        n.NominatorEmail,
		NominatorRelationship: n.NominatorRelationship,
		Reason:                n.Reason,
		Status:                n.Status,
		ReviewedByName:        n.ReviewedByName,
		ReviewedAt:            formatTimePtr(n.ReviewedAt),
		ReviewNotes:           n.ReviewNotes,
		FirmID:                n.FirmID,
		CreatedAt:             formatTime(n.CreatedAt),
	}
}

// ToPageDTO converts Page to PageDTO
func ToPageDTO(p *domain.Page) domain.PageDTO {
	return domain.PageDTO{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		Body:            p.Body,
		BodyHTML:        p.BodyHTML,
		MetaDescription: p.MetaDescription,
		IsPublished:     p.IsPublished,
		ShowInNav:       p.ShowInNav,
		SortOrder:       p.SortOrder,
		CreatedAt:       formatTime(p.CreatedAt),
		UpdatedAt:       formatTime(p.UpdatedAt),
	}
}

// ToBlogPostDTO converts BlogPost to BlogPostDTO. Listing views pass
// withBody=false to leave out the article text.
func ToBlogPostDTO(p *domain.BlogPost, withBody bool) domain.BlogPostDTO {
	dto := domain.BlogPostDTO{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		Excerpt:        p.Excerpt,
		AuthorName:     p.AuthorName,
		CoverImageURL:  MediaURL(p.CoverImagePath),
		Status:         p.Status,
		PublishedAt:    formatTimePtr(p.PublishedAt),
		PracticeAreaID: p.PracticeAreaID,
		CreatedAt:      formatTime(p.CreatedAt),
		UpdatedAt:      formatTime(p.UpdatedAt),
	}
	if withBody {
		dto.Body = p.Body
		dto.BodyHTML = p.BodyHTML
	}
	if p.PracticeArea != nil {
		dto.PracticeAreaName = p.PracticeArea.Name
	}
	return dto
}

// ToAdminUserDTO converts AdminUser to AdminUserDTO
func ToAdminUserDTO(u *domain.AdminUser) domain.AdminUserDTO {
	return domain.AdminUserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: formatTimePtr(u.LastLoginAt),
		CreatedAt:   formatTime(u.CreatedAt),
	}
}

// ToImportRunDTO converts ImportRun to ImportRunDTO, decoding the stored row errors
func ToImportRunDTO(run *domain.ImportRun) domain.ImportRunDTO {
	dto := domain.ImportRunDTO{
		ID:           run.ID,
		Filename:     run.Filename,
		DryRun:       run.DryRun,
		TotalRows:    run.TotalRows,
		CreatedCount: run.CreatedCount,
		UpdatedCount: run.UpdatedCount,
		FailedCount:  run.FailedCount,
		Errors:       []domain.ImportRowErrorDTO{},
		PerformedBy:  run.PerformedByName,
		CreatedAt:    formatTime(run.CreatedAt),
	}
	if run.Errors != "" {
		_ = json.Unmarshal([]byte(run.Errors), &dto.Errors)
	}
	return dto
}

// ToAuditLogDTO converts AuditLog to AuditLogDTO
func ToAuditLogDTO(log *domain.AuditLog) domain.AuditLogDTO {
	return domain.AuditLogDTO{
		ID:          log.ID,
		UserID:      log.UserID,
		UserEmail:   log.UserEmail,
		UserName:    log.UserName,
		Action:      log.Action,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Path:        log.Path,
		Values:      log.Values,
		IPAddress:   log.IPAddress,
		RequestID:   log.RequestID,
		PerformedAt: formatTime(log.PerformedAt),
	}
}

// FormatError creates a formatted error message
func FormatError(entity, operation string, err error) error {
	return fmt.Errorf("failed to %s %s: %w", operation, entity, err)
}
