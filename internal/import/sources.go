package import_pkg

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/klu-lostfound/internal/match"
)

// ReportWriter stores reports
type ReportWriter interface {
	InsertReports(ctx context.Context, reports []match.Report) (int, error)
}

// Importer loads report files into storage
type Importer struct {
	fs     afero.Fs
	writer ReportWriter
}

// Stats summarises one import
type Stats struct {
	Imported int
	Rejected []RowError
}

// NewImporter creates an importer reading files from fs
func NewImporter(fs afero.Fs, writer ReportWriter) *Importer {
	return &Importer{fs: fs, writer: writer}
}

// ImportReports reads filename and writes its valid reports. Ids in the
// file are ignored; storage assigns new ones.
func (im *Importer) ImportReports(ctx context.Context, filename string) (Stats, error) {
	log.Info().Str("file", filename).Msg("importing reports")

	reports, rejected, err := ReadReports(im.fs, filename)
	if err != nil {
		return Stats{}, err
	}
	for _, re := range rejected {
		log.Warn().Int("row", re.Row).Err(re.Err).Msg("skipping invalid report row")
	}

	stats := Stats{Rejected: rejected}
	if len(reports) == 0 {
		return stats, nil
	}

	for i := range reports {
		reports[i].ID = 0
	}

	n, err := im.writer.InsertReports(ctx, reports)
	if err != nil {
		return stats, fmt.Errorf("failed to import %s: %w", filename, err)
	}
	stats.Imported = n

	log.Info().
		Str("file", filename).
		Int("imported", stats.Imported).
		Int("rejected", len(stats.Rejected)).
		Msg("import complete")
	return stats, nil
}
