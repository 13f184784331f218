// Package csvfile reads CSV exports of the monthly report and writes the
// cleaned table artifact.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/water-utility-etl/internal/domain"
)

// Reader extracts a raw table from a CSV export of the report.
// It implements pipeline.Extractor.
type Reader struct {
	path   string
	logger *slog.Logger
}

// NewReader creates a Reader for path.
func NewReader(path string, logger *slog.Logger) *Reader {
	return &Reader{path: path, logger: logger}
}

func (r *Reader) Extract(ctx context.Context) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	records, err := readRecords(f)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read csv %s: %w", r.path, err)
	}
	r.logger.Debug("csv report read", "path", r.path, "rows", len(records))

	if len(records) == 0 {
		return domain.Table{}, nil
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return domain.NewTable(header, records[1:]), nil
}

// readRecords accepts ragged rows; NewTable aligns them to the header.
func readRecords(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}
