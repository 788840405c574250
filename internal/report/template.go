package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/gtmscore/gtmscore/pkg/models"
)

// reportTemplate is the self-contained HTML document printed to PDF. All
// styling is inline so the headless browser needs no network access.
var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(v float64) int { return int(v * 100) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #1a1a2e; margin: 40px; }
  h1 { font-size: 26px; margin-bottom: 4px; }
  h2 { font-size: 18px; margin-top: 28px; border-bottom: 2px solid #e0e0e8; padding-bottom: 6px; }
  .meta { color: #666; font-size: 12px; }
  .overall { font-size: 48px; font-weight: bold; color: #16325c; }
  table { border-collapse: collapse; width: 100%; margin-top: 12px; }
  th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid #e8e8ee; font-size: 13px; }
  th { background: #f4f5f9; }
  .pattern { margin: 10px 0; padding: 10px 14px; background: #fdf3f3; border-left: 4px solid #c0392b; font-size: 13px; }
  .pattern.medium { background: #fdf9ef; border-left-color: #d4a017; }
</style>
</head>
<body>
<h1>GTM Maturity Assessment</h1>
<p class="meta">{{if .Company}}{{.Company}} &middot; {{end}}{{.CreatedAt.Format "January 2, 2006"}} &middot; {{.ID}}</p>

<h2>Overall Score</h2>
<p class="overall">{{pct .Result.OverallScore}}/100</p>

<h2>Loop Health</h2>
<table>
<tr><th>Loop</th><th>Score</th></tr>
<tr><td>Pipeline</td><td>{{pct .Result.LoopScores.Pipeline}}</td></tr>
<tr><td>Conversion</td><td>{{pct .Result.LoopScores.Conversion}}</td></tr>
<tr><td>Expansion</td><td>{{pct .Result.LoopScores.Expansion}}</td></tr>
</table>

<h2>Priority Metrics</h2>
<table>
<tr><th>Metric</th><th>Loop</th><th>Current</th><th>Score</th></tr>
{{range .Result.PriorityRecommendations}}
<tr><td>{{.Name}}</td><td>{{.Loop}}</td><td>{{.FormattedValue}}</td><td>{{.NormalizedScore}}</td></tr>
{{end}}
</table>

{{if .Result.DetectedPatterns}}
<h2>Detected Patterns</h2>
{{range .Result.DetectedPatterns}}
<div class="pattern {{.Priority}}"><strong>{{.PatternID}}</strong> &mdash; {{.Description}}</div>
{{end}}
{{end}}
</body>
</html>`))

// RenderHTML renders the report document for a submission.
func RenderHTML(sub models.Submission) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, sub); err != nil {
		return "", fmt.Errorf("failed to render report template: %w", err)
	}
	return buf.String(), nil
}
