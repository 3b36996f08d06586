package services

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/wendylandcan/liqingai/models"
)

func TestExtractJSONFromFencedOutput(t *testing.T) {
	raw := "```json\n{\"isToxic\": false, \"score\": 0.1, \"reason\": \"calm\"}\n```"
	payload, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if !strings.HasPrefix(payload, "{") || !strings.HasSuffix(payload, "}") {
		t.Errorf("payload not trimmed to the JSON object: %q", payload)
	}
}

func TestExtractJSONFromProseWrapping(t *testing.T) {
	raw := "Sure, here is the result you asked for:\n{\"points\": [{\"title\": \"x\"}]}\nLet me know if you need anything else."
	payload, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if payload != "{\"points\": [{\"title\": \"x\"}]}" {
		t.Errorf("unexpected payload: %q", payload)
	}
}

func TestExtractJSONArray(t *testing.T) {
	payload, err := ExtractJSON("the list: [1, 2, 3] done")
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if payload != "[1, 2, 3]" {
		t.Errorf("unexpected payload: %q", payload)
	}
}

func TestExtractJSONMalformed(t *testing.T) {
	for _, raw := range []string{"no json here", "{\"unterminated\": ", "{broken}"} {
		if _, err := ExtractJSON(raw); !errors.Is(err, ErrMalformedOutput) {
			t.Errorf("ExtractJSON(%q) = %v, want ErrMalformedOutput", raw, err)
		}
	}
}

func TestNormalizeShares(t *testing.T) {
	tests := []struct {
		name       string
		p, d       any
		wantP      float64
		wantD      float64
	}{
		{"exact", 60.0, 40.0, 60, 40},
		{"renormalized", 70.0, 50.0, 58.3, 41.7},
		{"negative clamped", -20.0, 50.0, 0, 100},
		{"numeric strings", "60", "40", 60, 40},
		{"percent strings", "75%", "25%", 75, 25},
		{"both missing", nil, nil, 50, 50},
		{"both zero", 0.0, 0.0, 50, 50},
		{"garbage strings", "lots", "none", 50, 50},
		{"one side only", 80.0, nil, 100, 0},
		{"NaN string", "NaN", 60.0, 0, 100},
		{"infinite string", "Inf", "-Inf", 50, 50},
		{"NaN number", math.NaN(), 60.0, 0, 100},
	}
	for _, tt := range tests {
		p, d := NormalizeShares(tt.p, tt.d)
		if p != tt.wantP || d != tt.wantD {
			t.Errorf("%s: NormalizeShares(%v, %v) = %v/%v, want %v/%v", tt.name, tt.p, tt.d, p, d, tt.wantP, tt.wantD)
		}
		if p+d != 100 {
			t.Errorf("%s: shares sum to %v, want 100", tt.name, p+d)
		}
		if p < 0 || d < 0 {
			t.Errorf("%s: negative share %v/%v", tt.name, p, d)
		}
	}
}

func TestCoercePenaltyTasksBareString(t *testing.T) {
	tasks := CoercePenaltyTasks([]any{"do the dishes"}, 40, 60)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Assignee != models.SideDefendant {
		t.Errorf("bare task should go to the larger share holder, got %s", tasks[0].Assignee)
	}
	if tasks[0].Content != "do the dishes" {
		t.Errorf("unexpected content %q", tasks[0].Content)
	}
}

func TestCoercePenaltyTasksLooseObject(t *testing.T) {
	tasks := CoercePenaltyTasks([]any{
		map[string]any{"task": "write an apology letter", "who": "plaintiff"},
		map[string]any{"assignee": "defendant", "content": "plan the next date"},
		map[string]any{"text": "the defendant should call their mother"},
	}, 70, 30)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].Assignee != models.SidePlaintiff {
		t.Errorf("loose key assignee not honored: %s", tasks[0].Assignee)
	}
	if tasks[1].Assignee != models.SideDefendant {
		t.Errorf("canonical assignee not honored: %s", tasks[1].Assignee)
	}
	if tasks[2].Assignee != models.SideDefendant {
		t.Errorf("textual cue in content not used: %s", tasks[2].Assignee)
	}
}

func TestCoercePenaltyTasksSkipsEmpty(t *testing.T) {
	tasks := CoercePenaltyTasks([]any{"", map[string]any{"who": "plaintiff"}, 42}, 50, 50)
	if len(tasks) != 0 {
		t.Errorf("expected no tasks from empty entries, got %d", len(tasks))
	}
}

func TestParseDisputePointsAssignsIDs(t *testing.T) {
	payload := `{"points": [{"title": "Dishes", "description": "Did the plaintiff do their share of the dishes?"}, {"description": "Was the tone acceptable?"}]}`
	points, err := ParseDisputePoints(payload)
	if err != nil {
		t.Fatalf("ParseDisputePoints failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	for i, p := range points {
		if p.ID == "" {
			t.Errorf("point %d has no id", i)
		}
		if p.Question == "" {
			t.Errorf("point %d has no question", i)
		}
	}
	if points[1].Title != "Point 2" {
		t.Errorf("missing title not defaulted: %q", points[1].Title)
	}
}

func TestParseDisputePointsBareArray(t *testing.T) {
	points, err := ParseDisputePoints(`[{"title": "Money", "question": "Who paid more?"}]`)
	if err != nil {
		t.Fatalf("ParseDisputePoints failed: %v", err)
	}
	if len(points) != 1 || points[0].Question != "Who paid more?" {
		t.Errorf("unexpected points: %+v", points)
	}
}

func TestParseDisputePointsEmpty(t *testing.T) {
	if _, err := ParseDisputePoints(`{"points": []}`); !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("empty point set should be malformed, got %v", err)
	}
}

func TestParseVerdictCoercion(t *testing.T) {
	points := []models.DisputePoint{{ID: "p1", Title: "Dishes"}}
	payload := `{
		"facts": ["Both parties agreed to split chores."],
		"plaintiffShare": "30",
		"defendantShare": 90,
		"judgment": "The defendant carries the greater responsibility.",
		"penaltyTasks": ["do the dishes", {"task": "apologize", "who": "plaintiff"}],
		"pointRulings": [{"analysis": "The chore log supports the plaintiff."}]
	}`
	v, err := ParseVerdict(payload, points)
	if err != nil {
		t.Fatalf("ParseVerdict failed: %v", err)
	}
	if v.PlaintiffShare+v.DefendantShare != 100 {
		t.Errorf("shares sum to %v, want 100", v.PlaintiffShare+v.DefendantShare)
	}
	if v.DefendantShare <= v.PlaintiffShare {
		t.Errorf("renormalization flipped the split: %v/%v", v.PlaintiffShare, v.DefendantShare)
	}
	if len(v.PenaltyTasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(v.PenaltyTasks))
	}
	if v.PenaltyTasks[0].Assignee != models.SideDefendant {
		t.Errorf("bare task should default to the larger share holder")
	}
	if len(v.PointRulings) != 1 || v.PointRulings[0].PointID != "p1" {
		t.Errorf("ruling not matched back to the dispute point: %+v", v.PointRulings)
	}
}

func TestParseVerdictNestedSplit(t *testing.T) {
	payload := `{"responsibility": {"plaintiff": 20, "defendant": 80}, "judgment": "ruling"}`
	v, err := ParseVerdict(payload, nil)
	if err != nil {
		t.Fatalf("ParseVerdict failed: %v", err)
	}
	if v.PlaintiffShare != 20 || v.DefendantShare != 80 {
		t.Errorf("nested split not read: %v/%v", v.PlaintiffShare, v.DefendantShare)
	}
}

func TestParseVerdictMissingJudgment(t *testing.T) {
	if _, err := ParseVerdict(`{"plaintiffShare": 50, "defendantShare": 50}`, nil); !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("verdict without judgment should be malformed, got %v", err)
	}
}
