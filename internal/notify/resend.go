package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendMailer delivers plan notifications through the Resend REST
// API. Two messages per plan: one to the evaluated person, one to the
// evaluator.
type ResendMailer struct {
	HTTP    *http.Client
	APIKey  string
	From    string // e.g. "EvalTrack <noreply@evaltrack.example>"
	AppURL  string // frontend base URL for the "view plan" link
	BaseURL string // override for tests
}

func NewResendMailer(apiKey, from, appURL string) *ResendMailer {
	return &ResendMailer{
		HTTP:   &http.Client{Timeout: 15 * time.Second},
		APIKey: apiKey,
		From:   from,
		AppURL: appURL,
	}
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *ResendMailer) SendPlanGenerated(ctx context.Context, pe PlanEmail) error {
	personBody, err := renderEmail(personTmpl, m.AppURL, pe)
	if err != nil {
		return err
	}
	if err := m.send(ctx, resendEmail{
		From:    m.From,
		To:      []string{pe.PersonEmail},
		Subject: "Your development plan is ready - " + pe.PersonName,
		HTML:    personBody,
	}); err != nil {
		return fmt.Errorf("notify person: %w", err)
	}

	evaluatorBody, err := renderEmail(evaluatorTmpl, m.AppURL, pe)
	if err != nil {
		return err
	}
	if err := m.send(ctx, resendEmail{
		From:    m.From,
		To:      []string{pe.EvaluatorEmail},
		Subject: "Development plan generated - " + pe.PersonName,
		HTML:    evaluatorBody,
	}); err != nil {
		return fmt.Errorf("notify evaluator: %w", err)
	}
	return nil
}

func (m *ResendMailer) send(ctx context.Context, e resendEmail) error {
	base := m.BaseURL
	if base == "" {
		base = defaultResendBaseURL
	}
	body, _ := json.Marshal(e)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend: %s: %s", resp.Status, string(snippet))
	}
	return nil
}

type emailData struct {
	PlanEmail
	PlanURL string
}

func renderEmail(t *template.Template, appURL string, pe PlanEmail) (string, error) {
	var buf bytes.Buffer
	err := t.Execute(&buf, emailData{PlanEmail: pe, PlanURL: appURL + "/plans/" + pe.PlanID})
	return buf.String(), err
}

var personTmpl = template.Must(template.New("person").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #667eea; color: #fff; padding: 24px; text-align: center; border-radius: 8px 8px 0 0;">
    <h1 style="margin: 0;">Your development plan is ready</h1>
  </div>
  <div style="background: #f8f9fa; padding: 24px; border-radius: 0 0 8px 8px;">
    <div style="background: #fff; padding: 16px; border-radius: 6px; border-left: 4px solid #667eea;">
      <p><strong>Collaborator:</strong> {{.PersonName}}</p>
      <p><strong>Seniority level:</strong> {{.TierLabel}}</p>
      <p><strong>Score:</strong> {{printf "%.2f" .Score}}/100</p>
      <p><strong>Date:</strong> {{.GeneratedAt.Format "02 Jan 2006"}}</p>
{{- if .Note}}
      <p><strong>Notes:</strong> {{.Note}}</p>
{{- end}}
    </div>
    <p>Your plan lists development actions for your current level. Open it on the platform to review and get started.</p>
    <p><a href="{{.PlanURL}}" style="display: inline-block; background: #667eea; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 5px;">View full plan</a></p>
    <p style="color: #666; font-size: 13px; border-top: 1px solid #ddd; padding-top: 12px;">Questions? Contact your manager: {{.EvaluatorName}} ({{.EvaluatorEmail}})</p>
  </div>
</body>
</html>
`))

var evaluatorTmpl = template.Must(template.New("evaluator").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #28a745; color: #fff; padding: 24px; text-align: center; border-radius: 8px 8px 0 0;">
    <h1 style="margin: 0;">Development plan generated</h1>
  </div>
  <div style="background: #f8f9fa; padding: 24px; border-radius: 0 0 8px 8px;">
    <div style="background: #fff; padding: 16px; border-radius: 6px; border-left: 4px solid #28a745;">
      <p><strong>Collaborator:</strong> {{.PersonName}}</p>
      <p><strong>Seniority level:</strong> {{.TierLabel}}</p>
      <p><strong>Score:</strong> {{printf "%.2f" .Score}}/100</p>
      <p><strong>Date:</strong> {{.GeneratedAt.Format "02 Jan 2006"}}</p>
    </div>
    <p>The plan was sent to {{.PersonName}} and is available on the platform.</p>
    <p><a href="{{.PlanURL}}" style="display: inline-block; background: #28a745; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 5px;">View plan</a></p>
  </div>
</body>
</html>
`))
