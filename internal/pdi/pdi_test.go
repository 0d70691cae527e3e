package pdi_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/evaltrack/evaltrack/internal/pdi"
	"github.com/evaltrack/evaltrack/internal/scoring"
)

func action(cat, title string) pdi.Action {
	return pdi.Action{
		ID:       title,
		Title:    title,
		Category: cat,
		MinTier:  scoring.TierJunior,
		MaxTier:  scoring.TierSenior,
	}
}

func TestGroupActionsFirstOccurrenceOrder(t *testing.T) {
	in := []pdi.Action{
		action("technical", "a"),
		action("behavior", "b"),
		action("technical", "c"),
		action("process", "d"),
		action("behavior", "e"),
	}
	groups := pdi.GroupActions(in)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	wantOrder := []string{"technical", "behavior", "process"}
	for i, g := range groups {
		if g.Category != wantOrder[i] {
			t.Fatalf("group %d = %q, want %q", i, g.Category, wantOrder[i])
		}
	}
	if len(groups[0].Actions) != 2 || groups[0].Actions[1].Title != "c" {
		t.Fatalf("technical group lost insertion order: %+v", groups[0].Actions)
	}
}

func TestGroupActionsCapsAtFive(t *testing.T) {
	var in []pdi.Action
	for i := 0; i < 8; i++ {
		in = append(in, action("technical", fmt.Sprintf("t%d", i)))
	}
	in = append(in, action("process", "p0"))
	groups := pdi.GroupActions(in)
	if len(groups[0].Actions) != 5 {
		t.Fatalf("technical kept %d actions, want 5", len(groups[0].Actions))
	}
	// First five encountered win; no ranking.
	for i, a := range groups[0].Actions {
		if want := fmt.Sprintf("t%d", i); a.Title != want {
			t.Fatalf("action %d = %q, want %q", i, a.Title, want)
		}
	}
	if len(groups[1].Actions) != 1 {
		t.Fatalf("process kept %d actions, want 1", len(groups[1].Actions))
	}
}

func TestGroupActionsEmpty(t *testing.T) {
	if groups := pdi.GroupActions(nil); len(groups) != 0 {
		t.Fatalf("got %d groups for empty input", len(groups))
	}
}

func TestRenderWithActions(t *testing.T) {
	doc := pdi.Document{
		PersonName:  "Ana Souza",
		TierLabel:   scoring.TierIntermediate.Label(),
		Score:       55.5,
		Note:        "solid quarter",
		GeneratedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		Groups: []pdi.CategoryGroup{
			{Category: "technical", Actions: []pdi.Action{
				{Title: "Lead a design review", Description: "Run one end-to-end", DurationDays: 30},
				{Title: "Pair on incident response", Description: "Shadow on-call"},
			}},
		},
	}
	html, err := pdi.Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"Ana Souza",
		"Intermediate",
		"55.50/100",
		"10 Mar 2025",
		"Lead a design review",
		"30 days",
		"solid quarter",
		"Next steps",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if strings.Contains(html, "No development actions available") {
		t.Error("placeholder rendered alongside actions")
	}
	// Must render standalone: no external stylesheet references.
	if strings.Contains(html, "<link") {
		t.Error("document references an external stylesheet")
	}
}

func TestRenderNoActionsPlaceholder(t *testing.T) {
	doc := pdi.Document{
		PersonName:  "Bruno Lima",
		TierLabel:   scoring.TierSenior.Label(),
		Score:       88,
		GeneratedAt: time.Now(),
	}
	html, err := pdi.Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(html, "No development actions available") {
		t.Error("empty plan missing placeholder panel")
	}
	if !strings.Contains(html, "Senior") {
		t.Error("summary missing tier label")
	}
}

func TestRenderEscapesUserText(t *testing.T) {
	doc := pdi.Document{
		PersonName:  "<script>alert(1)</script>",
		TierLabel:   "Junior",
		GeneratedAt: time.Now(),
	}
	html, err := pdi.Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("person name not escaped")
	}
}

func TestRenderDurationBadgeOmittedWhenUnset(t *testing.T) {
	doc := pdi.Document{
		PersonName:  "x",
		TierLabel:   "Junior",
		GeneratedAt: time.Now(),
		Groups: []pdi.CategoryGroup{
			{Category: "process", Actions: []pdi.Action{{Title: "Read the runbook", Description: "d"}}},
		},
	}
	html, err := pdi.Render(doc)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(html, " days<") || strings.Contains(html, "0 days") {
		t.Error("duration badge rendered for unset duration")
	}
}
