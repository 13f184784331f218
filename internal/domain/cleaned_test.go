package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCleaned() CleanedTable {
	return CleanedTable{
		PeriodColumn: "Months",
		Columns:      []string{"Months", "Volume Produced", "Power Usage"},
		Rows: []CleanedRow{
			{Period: Period{Year: 2023, Month: time.July}, Cells: []string{"2023-07", "1200", SentinelZero}},
			{Period: Period{Year: 2023, Month: time.August}, Cells: []string{"2023-08", SentinelMissing, "17.5"}},
		},
	}
}

func TestParseCleanedTable_RoundTrip(t *testing.T) {
	table := sampleCleaned()

	parsed, err := ParseCleanedTable(table.Records(), "Months")
	require.NoError(t, err)
	assert.Equal(t, table, parsed)
	assert.Equal(t, table.Fingerprint(), parsed.Fingerprint())
}

func TestParseCleanedTable_Errors(t *testing.T) {
	tests := []struct {
		name    string
		records [][]string
		wantErr string
	}{
		{"no header", nil, "missing header"},
		{"ragged row", [][]string{{"Months", "A"}, {"2023-01"}}, "has 1 cells"},
		{"bad period", [][]string{{"Months"}, {"2023-Q1"}}, "invalid period"},
		{"duplicate period", [][]string{{"Months"}, {"2023-01"}, {"2023-01"}}, "out of order"},
		{"descending", [][]string{{"Months"}, {"2023-02"}, {"2023-01"}}, "out of order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCleanedTable(tt.records, "Months")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCleanedTable_MissingPeriodColumn(t *testing.T) {
	_, err := ParseCleanedTable([][]string{{"Volume"}}, "Months")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestCleanedTable_Accessors(t *testing.T) {
	table := sampleCleaned()

	col, ok := table.Column("Power Usage")
	require.True(t, ok)
	assert.Equal(t, []string{SentinelZero, "17.5"}, col)

	_, ok = table.Column("Chlorine (kg)")
	assert.False(t, ok)
	assert.True(t, table.HasColumn("Volume Produced"))

	records := table.Records()
	records[1][1] = "mutated"
	assert.Equal(t, "1200", table.Rows[0].Cells[1], "Records returns copies")
}

func TestCleanedTable_FingerprintChangesWithContent(t *testing.T) {
	a := sampleCleaned()
	b := sampleCleaned()
	b.Rows[1].Cells[2] = "17.6"

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestCleanedTable_Clone(t *testing.T) {
	orig := sampleCleaned()
	clone := orig.Clone()
	assert.Equal(t, orig, clone)

	orig.Columns[1] = "changed"
	orig.Rows[0].Cells[1] = "changed"
	assert.Equal(t, "Volume Produced", clone.Columns[1])
	assert.Equal(t, "1200", clone.Rows[0].Cells[1])
	assert.Equal(t, sampleCleaned().Fingerprint(), clone.Fingerprint())
}
