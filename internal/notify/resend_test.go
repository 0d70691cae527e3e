package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evaltrack/evaltrack/internal/notify"
)

func testEmail() notify.PlanEmail {
	return notify.PlanEmail{
		PlanID:         "plan-1",
		PersonName:     "Ana Souza",
		PersonEmail:    "ana@example.com",
		EvaluatorName:  "Rui Costa",
		EvaluatorEmail: "rui@example.com",
		TierLabel:      "Intermediate",
		Score:          55.5,
		GeneratedAt:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestResendMailerSendsBothRecipients(t *testing.T) {
	var got []struct {
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-123" {
			t.Errorf("bad auth header %q", auth)
		}
		var body struct {
			To      []string `json:"to"`
			Subject string   `json:"subject"`
			HTML    string   `json:"html"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		got = append(got, body)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg"})
	}))
	defer srv.Close()

	m := notify.NewResendMailer("key-123", "EvalTrack <noreply@evaltrack.example>", "https://app.example.com")
	m.BaseURL = srv.URL
	if err := m.SendPlanGenerated(context.Background(), testEmail()); err != nil {
		t.Fatalf("SendPlanGenerated: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("sent %d emails, want 2", len(got))
	}
	if got[0].To[0] != "ana@example.com" || got[1].To[0] != "rui@example.com" {
		t.Fatalf("recipients = %v, %v", got[0].To, got[1].To)
	}
	if !strings.Contains(got[0].HTML, "https://app.example.com/plans/plan-1") {
		t.Error("person email missing plan link")
	}
	if !strings.Contains(got[0].HTML, "55.50/100") {
		t.Error("person email missing score")
	}
	if !strings.Contains(got[1].HTML, "Ana Souza") {
		t.Error("evaluator email missing person name")
	}
}

func TestResendMailerSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid from"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	m := notify.NewResendMailer("key", "bad", "")
	m.BaseURL = srv.URL
	err := m.SendPlanGenerated(context.Background(), testEmail())
	if err == nil {
		t.Fatal("expected error from non-2xx response")
	}
	if !strings.Contains(err.Error(), "invalid from") {
		t.Fatalf("error missing API body snippet: %v", err)
	}
}
