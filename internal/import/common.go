package import_pkg

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/klu-lostfound/internal/match"
)

var validate = validator.New()

// ReportRow is one report as it appears in an import file
type ReportRow struct {
	ID           string `csv:"id" json:"id"`
	Name         string `csv:"name" json:"name"`
	Email        string `csv:"email" json:"email" validate:"omitempty,email"`
	Phone        string `csv:"phone" json:"phone"`
	ItemName     string `csv:"item_name" json:"item_name" validate:"required"`
	Description  string `csv:"description" json:"description"`
	Location     string `csv:"location" json:"location"`
	ImageRef     string `csv:"image_filename" json:"image_filename"`
	Type         string `csv:"type" json:"type" validate:"required,oneof=lost found"`
	Status       string `csv:"status" json:"status" validate:"omitempty,oneof=active resolved expired"`
	DateReported string `csv:"date_reported" json:"date_reported"`
}

// RowError describes a row that could not be converted
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// ReadReports loads reports from a .csv or .json file. Rows that fail
// validation are skipped and returned as RowErrors alongside the good ones.
func ReadReports(fs afero.Fs, filename string) ([]match.Report, []RowError, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}

	var rows []*ReportRow
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
			return nil, nil, fmt.Errorf("failed to parse CSV %s: %w", filename, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, nil, fmt.Errorf("failed to parse JSON %s: %w", filename, err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported report file %s: want .csv or .json", filename)
	}

	reports := make([]match.Report, 0, len(rows))
	var rowErrs []RowError
	for i, row := range rows {
		if row == nil {
			continue
		}
		r, err := row.Report()
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: i + 1, Err: err})
			continue
		}
		reports = append(reports, r)
	}

	log.Debug().
		Str("file", filename).
		Int("reports", len(reports)).
		Int("rejected", len(rowErrs)).
		Msg("read report file")
	return reports, rowErrs, nil
}

// Report validates the row and converts it
func (row *ReportRow) Report() (match.Report, error) {
	trimRow(row)
	row.Type = strings.ToLower(row.Type)
	row.Status = strings.ToLower(row.Status)
	if err := validate.Struct(row); err != nil {
		return match.Report{}, err
	}

	r := match.Report{
		Name:        row.Name,
		Email:       row.Email,
		Phone:       row.Phone,
		ItemName:    row.ItemName,
		Description: row.Description,
		Location:    row.Location,
		ImageRef:    row.ImageRef,
		Type:        match.ReportType(row.Type),
		Status:      row.Status,
	}
	if row.ID != "" {
		id, err := strconv.ParseInt(row.ID, 10, 64)
		if err != nil {
			return match.Report{}, fmt.Errorf("invalid id %q", row.ID)
		}
		r.ID = id
	}
	if row.DateReported != "" {
		t := parseDate(row.DateReported)
		if t == nil {
			return match.Report{}, fmt.Errorf("invalid date_reported %q", row.DateReported)
		}
		r.ReportedAt = *t
	}
	return r, nil
}

func trimRow(row *ReportRow) {
	for _, f := range []*string{
		&row.ID, &row.Name, &row.Email, &row.Phone, &row.ItemName, &row.Description,
		&row.Location, &row.ImageRef, &row.Type, &row.Status, &row.DateReported,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// parseDate safely converts string to time.Time pointer
func parseDate(s string) *time.Time {
	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"02/01/2006 15:04",
		"02/01/2006",
		"2/1/2006",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}

	return nil
}
