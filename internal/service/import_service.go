package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/importer"
	"github.com/lawdir/directory-api/internal/mapper"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/lawdir/directory-api/internal/slug"
	"github.com/lawdir/directory-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errDryRunRollback aborts the dry run transaction after every row has been applied
var errDryRunRollback = errors.New("dry run rollback")

// ImportOptions controls a single import
type ImportOptions struct {
	Filename string
	DryRun   bool
}

// ImportService runs CSV bulk uploads of firms and offices
type ImportService struct {
	db            *gorm.DB
	importRepo    *repository.ImportRunRepository
	firmRepo      *repository.FirmRepository
	officeRepo    *repository.OfficeRepository
	locations     *LocationService
	practiceAreas *PracticeAreaService
	offices       *OfficeService
	parser        *importer.Parser
	storage       storage.Storage
	cache         cache.Cache
	logger        *zap.Logger
}

// NewImportService creates a new import service
func NewImportService(
	db *gorm.DB,
	importRepo *repository.ImportRunRepository,
	firmRepo *repository.FirmRepository,
	officeRepo *repository.OfficeRepository,
	locations *LocationService,
	practiceAreas *PracticeAreaService,
	offices *OfficeService,
	parser *importer.Parser,
	store storage.Storage,
	c cache.Cache,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		db:            db,
		importRepo:    importRepo,
		firmRepo:      firmRepo,
		officeRepo:    officeRepo,
		locations:     locations,
		practiceAreas: practiceAreas,
		offices:       offices,
		parser:        parser,
		storage:       store,
		cache:         c,
		logger:        logger,
	}
}

// rowOutcome is what applying one row did to its firm
type rowOutcome int

const (
	rowCreated rowOutcome = iota
	rowUpdated
)

// Import parses data and applies every valid row in its own transaction.
// A row that fails is reported and does not affect the others. A dry run
// applies all rows inside one transaction that is rolled back at the end, so
// lookups, constraint checks and created/updated counts match a real import.
// The upload is archived (except for dry runs) and an ImportRun is recorded
// even when ctx is cancelled part way through.
func (s *ImportService) Import(ctx context.Context, data io.Reader, opts ImportOptions) (*domain.ImportRunDTO, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	result, err := s.parser.Parse(bytes.NewReader(raw))
	if err != nil {
		// whole-file problems: no header, missing columns, too many rows, broken quoting
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	run := &domain.ImportRun{
		Filename:  filepath.Base(opts.Filename),
		DryRun:    opts.DryRun,
		TotalRows: result.TotalRows,
	}
	run.PerformedByID, run.PerformedByName = auth.Actor(ctx)

	rowErrors := append([]importer.RowError{}, result.Errors...)
	var cancelErr error
	if opts.DryRun {
		txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			rowErrors, cancelErr = s.applyRows(ctx, tx, result.Rows, run, rowErrors)
			return errDryRunRollback
		})
		if !errors.Is(txErr, errDryRunRollback) && cancelErr == nil {
			ctxErr := ctx.Err()
			if ctxErr == nil {
				return nil, fmt.Errorf("failed to run dry import: %w", txErr)
			}
			rowErrors, cancelErr = cancelRows(rowErrors, result.Rows), ctxErr
		}
	} else {
		rowErrors, cancelErr = s.applyRows(ctx, s.db, result.Rows, run, rowErrors)
	}
	run.FailedCount = countFailedLines(rowErrors)

	encoded, err := json.Marshal(rowErrors)
	if err != nil {
		return nil, fmt.Errorf("failed to encode import errors: %w", err)
	}
	run.Errors = string(encoded)

	// committed rows are bookkept even if the caller has gone away
	bookCtx := context.WithoutCancel(ctx)

	if !opts.DryRun && s.storage != nil {
		path, _, err := s.storage.Upload(bookCtx, storage.FolderImports, run.Filename, "text/csv", bytes.NewReader(raw))
		if err != nil {
			// the rows are already committed; keep the run record without the archive
			s.logger.Warn("failed to archive import file", zap.String("filename", run.Filename), zap.Error(err))
		} else {
			run.StoragePath = path
		}
	}

	if err := s.importRepo.Create(bookCtx, run); err != nil {
		return nil, mapper.FormatError("import run", "create", err)
	}

	if !opts.DryRun && run.CreatedCount+run.UpdatedCount > 0 {
		invalidateDirectory(bookCtx, s.cache, s.logger)
	}

	s.logger.Info("import finished",
		zap.String("import_id", run.ID.String()),
		zap.String("filename", run.Filename),
		zap.Bool("dry_run", run.DryRun),
		zap.Bool("cancelled", cancelErr != nil),
		zap.Int("total", run.TotalRows),
		zap.Int("created", run.CreatedCount),
		zap.Int("updated", run.UpdatedCount),
		zap.Int("failed", run.FailedCount))

	if cancelErr != nil {
		return nil, fmt.Errorf("import %s cancelled: %w", run.ID, cancelErr)
	}

	dto := mapper.ToImportRunDTO(run)
	return &dto, nil
}

// applyRows applies rows in order against db, counting outcomes on run. When
// ctx is cancelled the current and remaining rows are reported as cancelled
// and ctx's error is returned.
func (s *ImportService) applyRows(ctx context.Context, db *gorm.DB, rows []importer.Row, run *domain.ImportRun, rowErrors []importer.RowError) ([]importer.RowError, error) {
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return cancelRows(rowErrors, rows[i:]), err
		}

		outcome, err := s.applyRow(ctx, db, row)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return cancelRows(rowErrors, rows[i:]), ctxErr
			}
			rowErrors = append(rowErrors, importer.RowError{Line: row.Line, Message: rowErrorMessage(err)})
			s.logger.Debug("import row failed", zap.Int("line", row.Line), zap.Error(err))
			continue
		}
		switch outcome {
		case rowCreated:
			run.CreatedCount++
		case rowUpdated:
			run.UpdatedCount++
		}
	}
	return rowErrors, nil
}

func cancelRows(rowErrors []importer.RowError, rows []importer.Row) []importer.RowError {
	for _, row := range rows {
		rowErrors = append(rowErrors, importer.RowError{Line: row.Line, Message: "import cancelled"})
	}
	return rowErrors
}

// applyRow upserts the firm, office and practice areas for one row. Inside a
// dry run db is already a transaction and the row runs in a savepoint.
func (s *ImportService) applyRow(ctx context.Context, db *gorm.DB, row importer.Row) (rowOutcome, error) {
	var outcome rowOutcome
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		firms := s.firmRepo.WithTx(tx)
		locations := s.locations.WithTx(tx)

		state, _, err := locations.FindOrCreateState(ctx, row.State)
		if err != nil {
			return err
		}
		var metro *domain.Metro
		if row.Metro != "" {
			metro, _, err = locations.FindOrCreateMetro(ctx, state, row.Metro)
			if err != nil {
				return err
			}
		}
		city, _, err := locations.FindOrCreateCity(ctx, state, metro, row.City)
		if err != nil {
			return err
		}
		areas, _, err := s.practiceAreas.WithTx(tx).FindOrCreateAll(ctx, row.PracticeAreas)
		if err != nil {
			return err
		}

		firm, err := firms.GetBySlug(ctx, slug.Make(row.FirmName))
		switch {
		case err == nil:
			outcome = rowUpdated
			mergeFirm(firm, row)
			if err := firms.Update(ctx, firm); err != nil {
				return fmt.Errorf("failed to update firm: %w", err)
			}
			if err := firms.AppendPracticeAreas(ctx, firm, areas); err != nil {
				return fmt.Errorf("failed to link practice areas: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			outcome = rowCreated
			firmSlug, err := uniqueFirmSlug(ctx, firms, row.FirmName, nil)
			if err != nil {
				return err
			}
			firm = &domain.Firm{
				Name:          row.FirmName,
				Slug:          firmSlug,
				Description:   row.Description,
				Website:       row.Website,
				Email:         row.Email,
				Phone:         row.Phone,
				Status:        domain.FirmStatusActive,
				Tier:          row.Tier,
				IsPremium:     row.Premium,
				Source:        domain.FirmSourceImport,
				PracticeAreas: areas,
			}
			if err := firms.Create(ctx, firm); err != nil {
				return fmt.Errorf("failed to create firm: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up firm: %w", err)
		}

		return s.upsertOffice(ctx, tx, firm, city, row)
	})
	return outcome, err
}

// upsertOffice fills in an office matched by city and address or creates it
func (s *ImportService) upsertOffice(ctx context.Context, tx *gorm.DB, firm *domain.Firm, city *domain.City, row importer.Row) error {
	offices := s.officeRepo.WithTx(tx)
	office, err := offices.FindByFirmCityAddress(ctx, firm.ID, city.ID, row.Address)
	if err == nil {
		changed := false
		if row.OfficeName != "" && office.Name != row.OfficeName {
			office.Name = row.OfficeName
			changed = true
		}
		if row.PostalCode != "" && office.PostalCode != row.PostalCode {
			office.PostalCode = row.PostalCode
			changed = true
		}
		if row.Phone != "" && office.Phone != row.Phone {
			office.Phone = row.Phone
			changed = true
		}
		if !changed {
			return nil
		}
		if err := offices.Update(ctx, office); err != nil {
			return fmt.Errorf("failed to update office: %w", err)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up office: %w", err)
	}

	office = &domain.Office{
		FirmID:     firm.ID,
		Name:       row.OfficeName,
		Address:    row.Address,
		PostalCode: row.PostalCode,
		Phone:      row.Phone,
	}
	placeInCity(office, city)
	if err := s.offices.CreateInTx(ctx, tx, office); err != nil {
		return fmt.Errorf("failed to create office: %w", err)
	}
	return nil
}

// mergeFirm copies the non-empty columns of row onto an existing firm.
// Tier only ever rises and premium is only switched on by an import.
func mergeFirm(firm *domain.Firm, row importer.Row) {
	if row.Description != "" {
		firm.Description = row.Description
	}
	if row.Website != "" {
		firm.Website = row.Website
	}
	if row.Email != "" {
		firm.Email = row.Email
	}
	if row.Phone != "" {
		firm.Phone = row.Phone
	}
	if row.Tier > firm.Tier {
		firm.Tier = row.Tier
	}
	if row.Premium {
		firm.IsPremium = true
	}
}

// rowErrorMessage strips the sentinel prefix from service errors
func rowErrorMessage(err error) string {
	msg := err.Error()
	for _, prefix := range []string{ErrInvalidInput.Error() + ": ", ErrNotFound.Error() + ": "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}

func countFailedLines(errs []importer.RowError) int {
	lines := make(map[int]struct{}, len(errs))
	for _, e := range errs {
		lines[e.Line] = struct{}{}
	}
	return len(lines)
}

// List returns import history newest first
func (s *ImportService) List(ctx context.Context, page, pageSize int) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePagination(page, pageSize)
	runs, total, err := s.importRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}

	dtos := make([]domain.ImportRunDTO, len(runs))
	for i := range runs {
		dtos[i] = mapper.ToImportRunDTO(&runs[i])
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// GetByID returns one import run with its row errors
func (s *ImportService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportRunDTO, error) {
	run, err := s.importRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "import run")
	}
	dto := mapper.ToImportRunDTO(run)
	return &dto, nil
}

// Download opens the archived CSV of an import run
func (s *ImportService) Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	run, err := s.importRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", notFoundOr(err, "import run")
	}
	if run.StoragePath == "" || s.storage == nil {
		return nil, "", fmt.Errorf("%w: import file was not archived", ErrNotFound)
	}
	rc, err := s.storage.Download(ctx, run.StoragePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open import file: %w", err)
	}
	return rc, run.Filename, nil
}
