package httpadapter

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/couchcryptid/water-utility-etl/internal/dashboard"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Water Utility Dashboard</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
nav a { margin-right: 1rem; }
nav a.active { font-weight: bold; }
</style>
</head>
<body>
<h1>Water Utility Dashboard</h1>
<nav>
{{- range .Tabs}}
<a href="/?tab={{.ID}}"{{if eq .ID $.Active.ID}} class="active"{{end}}>{{.Label}}</a>
{{- end}}
</nav>
{{- if .Message}}
<p>{{.Message}}</p>
{{- else}}
<h3>{{.Active.Heading}}</h3>
<img src="/api/tabs/{{.Active.ID}}/chart.svg" alt="{{.Active.Title}}">
{{- end}}
</body>
</html>
`))

type pageData struct {
	Tabs    []dashboard.Binding
	Active  dashboard.Binding
	Message string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	active, err := dashboard.Resolve(r.URL.Query().Get("tab"))
	if errors.Is(err, dashboard.ErrUnknownTab) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	data := pageData{Tabs: dashboard.Tabs(), Active: active}
	status := http.StatusOK
	if table, ok := s.tables.Latest(); !ok {
		data.Message = "No cleaned table is available yet."
		status = http.StatusServiceUnavailable
	} else if v, err := dashboard.Render(active.ID, table); err == nil && v.IsPlaceholder() {
		s.recordDiagnostics(v)
		data.Message = v.Placeholder
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("render dashboard page failed", "error", err)
	}
}
