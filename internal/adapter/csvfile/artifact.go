package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/water-utility-etl/internal/domain"
)

// ArtifactWriter writes the cleaned table as CSV, replacing the previous
// artifact atomically: readers see either the old file or the new one.
// It implements pipeline.Loader.
type ArtifactWriter struct {
	path   string
	logger *slog.Logger
}

// NewArtifactWriter creates a writer for the artifact at path.
func NewArtifactWriter(path string, logger *slog.Logger) *ArtifactWriter {
	return &ArtifactWriter{path: path, logger: logger}
}

// Path returns the artifact location.
func (w *ArtifactWriter) Path() string { return w.path }

func (w *ArtifactWriter) Load(ctx context.Context, table domain.CleanedTable) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	// The temp file lives next to the target so the rename stays on one
	// filesystem.
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	cw := csv.NewWriter(tmp)
	if err := cw.WriteAll(table.Records()); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod artifact: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	committed = true

	w.logger.Info("cleaned table written", "path", w.path, "periods", table.Len(), "columns", len(table.Columns))
	return nil
}

// ReadArtifact loads a previously written cleaned table. A missing file
// returns an error satisfying errors.Is(err, os.ErrNotExist).
func ReadArtifact(path, periodColumn string) (domain.CleanedTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.CleanedTable{}, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return domain.CleanedTable{}, fmt.Errorf("read artifact %s: %w", path, err)
	}
	if len(records) == 0 {
		return domain.CleanedTable{}, errors.New("read artifact: file is empty")
	}
	return domain.ParseCleanedTable(records, periodColumn)
}
