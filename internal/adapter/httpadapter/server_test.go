package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/water-utility-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/water-utility-etl/internal/dashboard"
	"github.com/couchcryptid/water-utility-etl/internal/domain"
	"github.com/couchcryptid/water-utility-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func sampleTable(t *testing.T) domain.CleanedTable {
	t.Helper()
	table, err := domain.ParseCleanedTable([][]string{
		{"Months", "Volume Produced", "Power Usage"},
		{"2023-01", "150", "12"},
		{"2023-02", "-", "NaN"},
		{"2023-03", "210", "NaN"},
	}, "Months")
	require.NoError(t, err)
	return table
}

func newTestServer(t *testing.T, readyErr error, table *domain.CleanedTable) *httpadapter.Server {
	t.Helper()
	return newTestServerWithMetrics(t, readyErr, table, observability.NewMetricsForTesting())
}

func newTestServerWithMetrics(t *testing.T, readyErr error, table *domain.CleanedTable, metrics *observability.Metrics) *httpadapter.Server {
	t.Helper()
	store := dashboard.NewStore()
	if table != nil {
		store.Update(*table)
	}
	charts, err := dashboard.NewCachedRenderer(dashboard.NewSVGRenderer(), 8, metrics, slog.Default())
	require.NoError(t, err)
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, store, charts, metrics, slog.Default())
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(t, nil, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(t, nil, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(t, fmt.Errorf("not ready yet"), nil), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t, nil, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestTabsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t, nil, nil), "/api/tabs")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Default string              `json:"default"`
		Tabs    []dashboard.Binding `json:"tabs"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "production_billing", body.Default)
	assert.Len(t, body.Tabs, 7)
}

func TestVisualEndpoint(t *testing.T) {
	table := sampleTable(t)
	rec := get(t, newTestServer(t, nil, &table), "/api/tabs/production_billing")
	require.Equal(t, http.StatusOK, rec.Code)

	var v dashboard.Visual
	decode(t, rec, &v)
	assert.Equal(t, "Volume Produced", v.Tab.YColumn)
	assert.Equal(t, "Months", v.XColumn)
	require.Len(t, v.Points, 3)
	require.NotNil(t, v.Points[1].Value)
	assert.InDelta(t, 0, *v.Points[1].Value, 0)
}

func TestVisualEndpoint_Placeholder(t *testing.T) {
	table := sampleTable(t)
	rec := get(t, newTestServer(t, nil, &table), "/api/tabs/water_quality")
	require.Equal(t, http.StatusOK, rec.Code)

	var v dashboard.Visual
	decode(t, rec, &v)
	assert.Equal(t, "Data for 'Chlorine (kg)' not found in this dataset.", v.Placeholder)
	require.Len(t, v.Diagnostics, 1)
	assert.Equal(t, domain.UnresolvableField, v.Diagnostics[0].Kind)
}

func TestUnresolvableFieldCounted(t *testing.T) {
	table := sampleTable(t)
	metrics := observability.NewMetricsForTesting()
	srv := newTestServerWithMetrics(t, nil, &table, metrics)
	counter := metrics.Diagnostics.WithLabelValues(string(domain.UnresolvableField))

	get(t, srv, "/api/tabs/water_quality")
	assert.InDelta(t, 1, testutil.ToFloat64(counter), 0)

	get(t, srv, "/?tab=water_quality")
	assert.InDelta(t, 2, testutil.ToFloat64(counter), 0)

	get(t, srv, "/api/tabs/production_billing")
	assert.InDelta(t, 2, testutil.ToFloat64(counter), 0, "resolvable tab adds nothing")
}

func TestVisualEndpoint_UnknownTab(t *testing.T) {
	table := sampleTable(t)
	rec := get(t, newTestServer(t, nil, &table), "/api/tabs/weather")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Contains(t, body["error"], "unknown dashboard tab")
}

func TestVisualEndpoint_NoTable(t *testing.T) {
	rec := get(t, newTestServer(t, nil, nil), "/api/tabs/production_billing")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChartEndpoint(t *testing.T) {
	table := sampleTable(t)
	rec := get(t, newTestServer(t, nil, &table), "/api/tabs/production_billing/chart.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestChartEndpoint_Placeholder(t *testing.T) {
	table := sampleTable(t)
	rec := get(t, newTestServer(t, nil, &table), "/api/tabs/water_quality/chart.svg")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "Data for 'Chlorine (kg)' not found in this dataset.", body["error"])
}

func TestTableEndpoint(t *testing.T) {
	table := sampleTable(t)
	rec := get(t, newTestServer(t, nil, &table), "/api/table")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		PeriodColumn string     `json:"period_column"`
		Columns      []string   `json:"columns"`
		Rows         [][]string `json:"rows"`
		Fingerprint  string     `json:"fingerprint"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "Months", body.PeriodColumn)
	assert.Equal(t, []string{"Months", "Volume Produced", "Power Usage"}, body.Columns)
	assert.Equal(t, []string{"2023-02", "-", "NaN"}, body.Rows[1])
	assert.Equal(t, table.Fingerprint(), body.Fingerprint)
}

func TestDashboardPage(t *testing.T) {
	table := sampleTable(t)
	srv := newTestServer(t, nil, &table)

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Production &amp; Billing EDA")
	assert.Contains(t, rec.Body.String(), "/api/tabs/production_billing/chart.svg")

	rec = get(t, srv, "/?tab=water_quality")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found in this dataset.")
	assert.NotContains(t, rec.Body.String(), "<img")

	rec = get(t, srv, "/?tab=weather")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardPage_NoTable(t *testing.T) {
	rec := get(t, newTestServer(t, nil, nil), "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "No cleaned table is available yet.")
}
