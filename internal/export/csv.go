// Package export writes lookup results to the downloadable tabular file.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/UnknownOlympus/aether/internal/models"
)

const (
	// DefaultFilename is the name the exported file is offered under.
	DefaultFilename = "geocoding_environmental_data_india.csv"
	// ContentType is the MIME type of the exported file.
	ContentType = "text/csv"
)

// ErrEmptyDestination is returned when no destination path is given.
var ErrEmptyDestination = errors.New("export destination is empty")

// CSVExporter writes exactly one header line and one data line per export,
// replacing whatever the destination held before. The new content is written to a
// temporary file in the same directory and renamed over dest, so readers see either
// the previous export or the new one, never a partial file.
type CSVExporter struct{}

// NewCSVExporter creates a new CSVExporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export replaces dest with the fixed header followed by row.
func (e *CSVExporter) Export(row models.ExportRow, dest string) (err error) {
	if dest == "" {
		return ErrEmptyDestination
	}

	file, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to open export file: %w", err)
	}
	tmpName := file.Name()
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmpName)
		}
	}()

	writer := csv.NewWriter(file)
	if err = writer.Write(models.Header()); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	if err = writer.Write(row.Record()); err != nil {
		return fmt.Errorf("failed to write export row: %w", err)
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		return fmt.Errorf("failed to flush export file: %w", err)
	}

	const perm = 0o644
	if err = file.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set export file mode: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	if err = os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("failed to replace export file: %w", err)
	}

	return nil
}
