package pdi

import (
	"bytes"
	"html/template"
	"time"
)

// Document carries everything the plan renderer needs. The output is a
// self-contained HTML page (inline styles only) because the same blob
// is shown in-app, emailed, and printed.
type Document struct {
	PersonName  string
	TierLabel   string
	Score       float64
	Note        string
	GeneratedAt time.Time
	Groups      []CategoryGroup
}

var planTmpl = template.Must(template.New("plan").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Individual Development Plan - {{.PersonName}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 24px;">
  <div style="background: #667eea; color: #fff; padding: 24px; border-radius: 8px 8px 0 0; text-align: center;">
    <h1 style="margin: 0;">Individual Development Plan</h1>
    <p style="margin: 8px 0 0;">Generated on {{.GeneratedAt.Format "02 Jan 2006"}}</p>
  </div>
  <div style="background: #f8f9fa; padding: 24px; border-radius: 0 0 8px 8px;">
    <div style="background: #fff; padding: 16px; border-radius: 6px; border-left: 4px solid #667eea; margin-bottom: 16px;">
      <h2 style="margin-top: 0; color: #667eea;">Evaluation Summary</h2>
      <p><strong>Collaborator:</strong> {{.PersonName}}</p>
      <p><strong>Seniority level:</strong> {{.TierLabel}}</p>
      <p><strong>Score:</strong> {{printf "%.2f" .Score}}/100</p>
{{- if .Note}}
      <p><strong>Notes:</strong> {{.Note}}</p>
{{- end}}
    </div>
{{- if .Groups}}
{{- range .Groups}}
    <div style="background: #fff; padding: 16px; border-radius: 6px; margin-bottom: 16px;">
      <h3 style="margin-top: 0; color: #333; border-bottom: 1px solid #eee; padding-bottom: 8px;">{{.Category}}</h3>
{{- range .Actions}}
      <div style="padding: 10px 0; border-bottom: 1px solid #f0f0f0;">
        <p style="margin: 0; font-weight: bold;">{{.Title}}
{{- if .DurationDays}}
          <span style="background: #eef; color: #667eea; border-radius: 10px; padding: 2px 10px; font-size: 12px; font-weight: normal; margin-left: 8px;">{{.DurationDays}} days</span>
{{- end}}
        </p>
        <p style="margin: 4px 0 0; color: #555;">{{.Description}}</p>
      </div>
{{- end}}
    </div>
{{- end}}
{{- else}}
    <div style="background: #fff3cd; padding: 16px; border-radius: 6px; border-left: 4px solid #ffc107; margin-bottom: 16px;">
      <h3 style="margin-top: 0;">No development actions available</h3>
      <p style="margin: 0;">There are no catalog actions registered for the {{.TierLabel}} level yet. Talk to your manager to define development actions for this cycle.</p>
    </div>
{{- end}}
    <div style="background: #fff; padding: 16px; border-radius: 6px;">
      <h3 style="margin-top: 0; color: #333;">Next steps</h3>
      <ul style="margin: 0; padding-left: 20px;">
        <li>Review this plan with your manager.</li>
        <li>Agree on priorities and target dates for each action.</li>
        <li>Schedule a follow-up before the next evaluation cycle.</li>
        <li>Record progress as actions are completed.</li>
      </ul>
    </div>
  </div>
</body>
</html>
`))

// Render produces the plan document HTML. Deterministic for a given
// Document value.
func Render(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := planTmpl.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
