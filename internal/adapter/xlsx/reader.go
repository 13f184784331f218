// Package xlsx reads the monthly operations workbook with excelize.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/couchcryptid/water-utility-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Reader extracts one worksheet of a workbook as a raw table.
// It implements pipeline.Extractor.
type Reader struct {
	path   string
	sheet  string
	logger *slog.Logger
}

// NewReader creates a Reader for path. An empty sheet selects the first
// worksheet in the workbook.
func NewReader(path, sheet string, logger *slog.Logger) *Reader {
	return &Reader{path: path, sheet: sheet, logger: logger}
}

func (r *Reader) Extract(ctx context.Context) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("open workbook %s: %w", r.path, err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return domain.Table{}, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	// Raw values keep numbers unformatted and dates as serial numbers, which
	// SerialDate turns back into periods.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	r.logger.Debug("workbook sheet read", "path", r.path, "sheet", sheet, "rows", len(rows))
	return tableFromRows(rows), nil
}

// tableFromRows treats the first row as the header. excelize drops trailing
// empty cells, so the header is widened to the widest row; the extra columns
// come out as "Unnamed: <index>".
func tableFromRows(rows [][]string) domain.Table {
	if len(rows) == 0 {
		return domain.Table{}
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	header := make([]string, width)
	copy(header, rows[0])
	return domain.NewTable(header, rows[1:])
}

// Serial dates outside this range are treated as ordinary numbers: below it
// they collide with plain years and counts.
const (
	minSerial = 10000   // 1927-05-18
	maxSerial = 2958465 // 9999-12-31
)

// SerialDate parses Excel serial day numbers (1900 date system), the raw form
// of date-formatted cells.
var SerialDate = domain.PeriodParser{
	Name: "excel_serial_date",
	Parse: func(label string) (domain.Period, bool) {
		f, err := strconv.ParseFloat(strings.TrimSpace(label), 64)
		if err != nil || f < minSerial || f > maxSerial {
			return domain.Period{}, false
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return domain.Period{}, false
		}
		return domain.PeriodOf(t), true
	},
}
