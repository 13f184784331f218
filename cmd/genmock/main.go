// Command genmock writes a deterministic sample of the monthly operations
// workbook: per-scheme monthly rows interleaved with quarterly, mid-year and
// annual summary rows, the way the utility's reports are laid out. The output
// exercises every normalization rule and is used for local runs and demos.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/monthly_report.xlsx -months 24
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

var start = time.Date(2022, time.July, 1, 0, 0, 0, 0, time.UTC)

var schemes = []string{"Zomba", "Machinga", "Liwonde", "Balaka"}

var metrics = []string{
	"Volume Produced",
	"Total number of customers applied for new connection",
	"Response time to queries",
	"Power Usage",
	"Total Breakdowns",
	"Total Cash Collected",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock/monthly_report.xlsx", "output path for the sample workbook")
	months := flag.Int("months", 24, "number of months to generate")
	chlorine := flag.Bool("chlorine", false, "include the Chlorine (kg) column")
	flag.Parse()

	if *months <= 0 {
		flag.Usage()
		return fmt.Errorf("-months must be positive")
	}

	header := []any{"Schemes", "Months"}
	for _, m := range metrics {
		header = append(header, m)
	}
	if *chlorine {
		header = append(header, "Chlorine (kg)")
	}
	header = append(header, "Remarks", "Unnamed: 224")

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Monthly Report"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	rows := [][]any{header}
	for i := 0; i < *months; i++ {
		month := start.AddDate(0, i, 0)
		label := month.Format("2006-1")
		for s, scheme := range schemes {
			rows = append(rows, monthlyRow(scheme, label, i, s, *chlorine))
		}
		// Summary rows carry period labels too; normalization must drop them.
		if month.Month()%3 == 0 {
			rows = append(rows, summaryRow("Zomba Qtr", label, len(header)))
		}
		if month.Month() == time.December {
			rows = append(rows, summaryRow("Mid Year", label, len(header)))
		}
		if month.Month() == time.June {
			rows = append(rows, summaryRow("Ann Total", label, len(header)))
		}
	}
	// A row without a period, as left behind by manual edits.
	rows = append(rows, []any{"Zomba", "", 1})

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := f.SaveAs(*out); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	log.Printf("wrote %d rows (%d months, %d schemes) to %s", len(rows)-1, *months, len(schemes), *out)
	return nil
}

// monthlyRow derives every value from the month and scheme index so reruns
// produce the same workbook.
func monthlyRow(scheme, label string, month, idx int, chlorine bool) []any {
	base := 1000 + 37*month + 211*idx
	row := []any{
		scheme,
		label,
		base * 12,
		(month*7 + idx*3) % 25,
		float64((month+idx)%9) + 0.5,
		base * 3,
		(month + 2*idx) % 4, // often zero
		base * 45,
	}
	if chlorine {
		row = append(row, float64(base)/100)
	}
	remark := ""
	if (month+idx)%11 == 0 {
		remark = "meter replaced"
	}
	return append(row, remark, nil)
}

func summaryRow(label, period string, width int) []any {
	row := make([]any, width)
	row[0] = label
	row[1] = period
	for i := 2; i < width-2; i++ {
		row[i] = 999999
	}
	return row
}
