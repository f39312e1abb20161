// Package importer parses firm listing spreadsheets exported as CSV.
//
// Columns are matched by header name, case-insensitively and with aliases,
// so column order does not matter and unknown columns are ignored. Each data
// row is validated on its own; a bad row produces RowErrors and the rest of
// the file is still returned. Problems with the file as a whole (no header,
// a missing required column, too many rows) fail the parse.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lawdir/directory-api/internal/domain"
)

// DefaultMaxRows is used when the parser is created with a non-positive limit
const DefaultMaxRows = 5000

var (
	// ErrEmptyFile is returned when the upload has no header row
	ErrEmptyFile = errors.New("csv file is empty")
	// ErrMissingColumn is returned when a required column is absent from the header
	ErrMissingColumn = errors.New("missing required column")
	// ErrTooManyRows is returned when the file exceeds the row limit
	ErrTooManyRows = errors.New("too many rows")
)

// Canonical column names
const (
	ColFirmName      = "firm_name"
	ColWebsite       = "website"
	ColEmail         = "email"
	ColPhone         = "phone"
	ColDescription   = "description"
	ColAddress       = "address"
	ColCity          = "city"
	ColState         = "state"
	ColPostalCode    = "postal_code"
	ColMetro         = "metro"
	ColPracticeAreas = "practice_areas"
	ColTier          = "tier"
	ColPremium       = "premium"
	ColOfficeName    = "office_name"
)

// columnAliases maps every accepted header spelling to its canonical column
var columnAliases = map[string]string{
	"firm_name":      ColFirmName,
	"firm":           ColFirmName,
	"name":           ColFirmName,
	"website":        ColWebsite,
	"url":            ColWebsite,
	"email":          ColEmail,
	"phone":          ColPhone,
	"telephone":      ColPhone,
	"description":    ColDescription,
	"address":        ColAddress,
	"street":         ColAddress,
	"city":           ColCity,
	"state":          ColState,
	"postal_code":    ColPostalCode,
	"zip":            ColPostalCode,
	"zip_code":       ColPostalCode,
	"metro":          ColMetro,
	"metro_area":     ColMetro,
	"practice_areas": ColPracticeAreas,
	"practice_area":  ColPracticeAreas,
	"tier":           ColTier,
	"premium":        ColPremium,
	"is_premium":     ColPremium,
	"office_name":    ColOfficeName,
	"office":         ColOfficeName,
}

var requiredColumns = []string{ColFirmName, ColCity, ColState}

// Row is one validated firm listing. Line is the 1-based line of the row in
// the file, counting the header as line 1.
type Row struct {
	Line          int      `csv:"-"`
	FirmName      string   `csv:"firm_name" validate:"required,max=200"`
	Website       string   `csv:"website" validate:"omitempty,url,max=500"`
	Email         string   `csv:"email" validate:"omitempty,email,max=255"`
	Phone         string   `csv:"phone" validate:"max=50"`
	Description   string   `csv:"description" validate:"max=5000"`
	Address       string   `csv:"address" validate:"max=500"`
	City          string   `csv:"city" validate:"required,max=150"`
	State         string   `csv:"state" validate:"required,max=100"`
	PostalCode    string   `csv:"postal_code" validate:"max=20"`
	Metro         string   `csv:"metro" validate:"max=150"`
	PracticeAreas []string `csv:"practice_areas" validate:"dive,max=150"`
	Tier          int      `csv:"tier" validate:"gte=0,lte=3"`
	Premium       bool     `csv:"premium"`
	OfficeName    string   `csv:"office_name" validate:"max=200"`
}

// RowError describes a problem with one row
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Column, e.Message)
}

// Result is the outcome of parsing a file
type Result struct {
	// TotalRows counts non-blank data rows, valid or not
	TotalRows int
	Rows      []Row
	Errors    []RowError
}

// Parser reads firm CSV files
type Parser struct {
	maxRows  int
	validate *validator.Validate
}

// NewParser creates a parser accepting at most maxRows data rows
func NewParser(maxRows int) *Parser {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("csv")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Parser{maxRows: maxRows, validate: v}
}

// Parse reads the whole file
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	result := &Result{Rows: []Row{}, Errors: []RowError{}}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if isBlank(record) {
			continue
		}

		result.TotalRows++
		if result.TotalRows > p.maxRows {
			return nil, fmt.Errorf("%w: the limit is %d", ErrTooManyRows, p.maxRows)
		}

		line, _ := reader.FieldPos(0)
		row, rowErrs := p.parseRow(line, record, columns)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			continue
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// mapHeader resolves each header cell to a canonical column index
func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, cell := range header {
		key := normalizeHeader(cell)
		canonical, ok := columnAliases[key]
		if !ok {
			continue
		}
		// the first occurrence wins when a column is repeated
		if _, seen := columns[canonical]; !seen {
			columns[canonical] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return columns, nil
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(s)
	return s
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (p *Parser) parseRow(line int, record []string, columns map[string]int) (Row, []RowError) {
	get := func(col string) string {
		i, ok := columns[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var errs []RowError
	row := Row{
		Line:          line,
		FirmName:      get(ColFirmName),
		Website:       normalizeWebsite(get(ColWebsite)),
		Email:         strings.ToLower(get(ColEmail)),
		Phone:         get(ColPhone),
		Description:   get(ColDescription),
		Address:       get(ColAddress),
		City:          get(ColCity),
		State:         get(ColState),
		PostalCode:    get(ColPostalCode),
		Metro:         get(ColMetro),
		PracticeAreas: splitList(get(ColPracticeAreas)),
		OfficeName:    get(ColOfficeName),
	}

	if raw := get(ColTier); raw != "" {
		tier, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, RowError{Line: line, Column: ColTier, Message: "Must be a whole number between 0 and 3"})
		} else {
			row.Tier = tier
		}
	}

	if raw := get(ColPremium); raw != "" {
		premium, ok := parseBool(raw)
		if !ok {
			errs = append(errs, RowError{Line: line, Column: ColPremium, Message: "Must be true or false"})
		} else {
			row.Premium = premium
		}
	}

	if err := p.validate.Struct(row); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return row, append(errs, RowError{Line: line, Message: err.Error()})
		}
		for _, fe := range ve {
			column := fe.Field()
			// dive errors are reported as practice_areas[2]
			if i := strings.IndexByte(column, '['); i > 0 {
				column = column[:i]
			}
			errs = append(errs, RowError{Line: line, Column: column, Message: domain.GetValidationMessage(fe.Tag())})
		}
	}

	return row, errs
}

// splitList splits a practice area cell on ';' or '|' and drops duplicates
func splitList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == '|' })
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0":
		return false, true
	}
	return false, false
}

// normalizeWebsite adds a scheme to bare host names such as "smithlaw.com"
func normalizeWebsite(raw string) string {
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}
