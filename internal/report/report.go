package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/FranksOps/scholartrend/internal/query"
	"github.com/FranksOps/scholartrend/internal/trend"
	"github.com/google/uuid"
)

// Row is one year of the summary table.
type Row struct {
	Year       int    `json:"year"`
	TotalCount int    `json:"total_count"`
	Entries    int    `json:"entries"`
	Failure    string `json:"failure,omitempty"`
}

// Summary contains aggregated figures about one counting run.
type Summary struct {
	RunID        string         `json:"run_id"`
	Keywords     []string       `json:"keywords"`
	Filter       string         `json:"filter"`
	Since        int            `json:"since"`
	To           int            `json:"to"`
	Years        int            `json:"years"`
	Succeeded    int            `json:"succeeded"`
	Failures     map[string]int `json:"failures"`
	TotalResults int            `json:"total_results"`
	PeakYear     int            `json:"peak_year,omitempty"`
	PeakCount    int            `json:"peak_count"`
	Rows         []Row          `json:"rows"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	Duration     time.Duration  `json:"duration_ns"`
}

// GenerateSummary aggregates rs. Degraded years count towards Failures and
// are excluded from the totals and the peak.
func GenerateSummary(q query.Query, r query.YearRange, rs trend.ResultSet, start, end time.Time) Summary {
	s := Summary{
		RunID:     uuid.New().String(),
		Keywords:  q.Terms(),
		Filter:    string(q.Combinator()),
		Since:     r.Since,
		To:        r.To,
		Failures:  make(map[string]int),
		Rows:      make([]Row, 0, len(rs)),
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}

	for _, res := range rs {
		s.Years++
		row := Row{Year: res.Year, TotalCount: res.TotalCount, Entries: len(res.Entries)}

		if res.Degraded() {
			row.Failure = string(res.Kind())
			s.Failures[row.Failure]++
			s.Rows = append(s.Rows, row)
			continue
		}

		s.Succeeded++
		s.TotalResults += res.TotalCount
		if s.PeakYear == 0 || res.TotalCount > s.PeakCount {
			s.PeakYear = res.Year
			s.PeakCount = res.TotalCount
		}
		s.Rows = append(s.Rows, row)
	}

	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Scholar Trend Summary
---------------------
Run:           {{.RunID}}
Keywords:      {{join .Keywords ", "}} ({{.Filter}})
Years:         {{.Since}}-{{.To}}
Duration:      {{.Duration}}
Succeeded:     {{.Succeeded}}/{{.Years}}
Total Results: {{.TotalResults}}
{{- if .PeakYear}}
Peak:          {{.PeakYear}} ({{.PeakCount}})
{{- end}}

Per Year:
{{- range .Rows}}
  {{.Year}}: {{.TotalCount}}{{if .Entries}} [{{.Entries}} entries]{{end}}{{if .Failure}} ({{.Failure}}){{end}}
{{- else}}
  None
{{- end}}

Failures:
{{- range $kind, $count := .Failures}}
  {{$kind}}: {{$count}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Funcs(template.FuncMap{"join": strings.Join}).Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Scholar Trend Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
  .degraded { color: red; }
</style>
</head>
<body>
  <h1>Scholar Trend Report</h1>
  <p><strong>Keywords:</strong> {{join .Keywords ", "}} ({{.Filter}}), {{.Since}}-{{.To}}</p>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Years</div>
    <div class="stat-val">{{.Succeeded}}/{{.Years}}</div>
  </div>
  <div class="stat-card">
    <div>Total Results</div>
    <div class="stat-val">{{.TotalResults}}</div>
  </div>
  <div class="stat-card">
    <div>Peak Year</div>
    <div class="stat-val">{{if .PeakYear}}{{.PeakYear}}{{else}}-{{end}}</div>
  </div>

  <h3>Per Year</h3>
  <table>
    <tr><th>Year</th><th>Results</th><th>Entries</th><th>Failure</th></tr>
    {{- range .Rows}}
    <tr{{if .Failure}} class="degraded"{{end}}><td>{{.Year}}</td><td>{{.TotalCount}}</td><td>{{.Entries}}</td><td>{{.Failure}}</td></tr>
    {{- else}}
    <tr><td colspan="4">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := template.New("htmlReport").Funcs(template.FuncMap{"join": strings.Join}).Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	return nil
}
