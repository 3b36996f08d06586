package services

import (
	"context"
	"strings"
	"testing"

	"github.com/wendylandcan/liqingai/models"
)

// downInferencer fails every call, exercising the degraded paths.
type downInferencer struct{}

func (downInferencer) Infer(context.Context, InferRequest) (string, error) {
	return "", ErrBackendUnavailable
}

func TestTranscribeDegradesToPlaceholder(t *testing.T) {
	ai := NewAIService(downInferencer{})
	got := ai.Transcribe(context.Background(), []byte{1, 2, 3}, "audio/ogg")
	if got != TranscriptionPlaceholder {
		t.Errorf("got %q, want the placeholder", got)
	}
}

func TestSummarizeDegradesToTruncation(t *testing.T) {
	ai := NewAIService(downInferencer{})
	text := "one two three four five six seven eight"
	got := ai.Summarize(context.Background(), text, 3)
	if got != "one two three" {
		t.Errorf("got %q, want the first three words", got)
	}
	// Short input passes through whole.
	if got := ai.Summarize(context.Background(), "just fine", 10); got != "just fine" {
		t.Errorf("short input mangled: %q", got)
	}
}

func TestPolishDegradesToOriginal(t *testing.T) {
	ai := NewAIService(downInferencer{})
	text := "i AINT doing them dishes"
	if got := ai.Polish(context.Background(), text); got != text {
		t.Errorf("degraded polish changed the text: %q", got)
	}
	if got := ai.FixGrammar(context.Background(), text); got != text {
		t.Errorf("degraded grammar fix changed the text: %q", got)
	}
}

func TestCheckToxicityFailsOpen(t *testing.T) {
	ai := NewAIService(downInferencer{})
	report := ai.CheckToxicity(context.Background(), "any text")
	if report.IsToxic {
		t.Errorf("infra failure must not block a submission")
	}
}

func TestDisputeFingerprintSensitivity(t *testing.T) {
	c := &models.Case{
		PlaintiffStatement: "statement",
		PlaintiffDemand:    "demand",
		DefendantDefense:   "defense",
		PlaintiffEvidence:  []models.EvidenceItem{{ID: "e1", Kind: models.EvidenceText, Description: "log", Side: models.SidePlaintiff}},
	}
	base := DisputeFingerprint(c)
	if base != DisputeFingerprint(c.Clone()) {
		t.Errorf("identical material must fingerprint identically")
	}

	changed := c.Clone()
	changed.DefendantRebuttal = "a rebuttal"
	if DisputeFingerprint(changed) == base {
		t.Errorf("rebuttal change not reflected in the fingerprint")
	}

	contested := c.Clone()
	contested.PlaintiffEvidence[0].Contested = true
	if DisputeFingerprint(contested) == base {
		t.Errorf("contest toggle not reflected in the fingerprint")
	}

	// Raw evidence bytes are not prompt material; only the description is.
	blob := c.Clone()
	blob.PlaintiffEvidence[0].Content = "different bytes"
	if DisputeFingerprint(blob) != base {
		t.Errorf("evidence content should not affect the fingerprint")
	}
}

func TestPersonaInstructions(t *testing.T) {
	for _, persona := range []string{"stern", "gentle", "humorous", "", "unknown"} {
		if personaInstructions(persona) == "" {
			t.Errorf("persona %q produced no instructions", persona)
		}
	}
	if personaInstructions("Stern") != personaInstructions("stern") {
		t.Errorf("persona lookup should be case-insensitive")
	}
}

func TestExtractDisputePointsSurfacesFailure(t *testing.T) {
	ai := NewAIService(downInferencer{})
	if _, err := ai.ExtractDisputePoints(context.Background(), &models.Case{}); err == nil {
		t.Fatal("extraction failure must surface")
	}
}

func TestGenerateVerdictPromptCarriesDemands(t *testing.T) {
	var captured InferRequest
	capture := inferFunc(func(ctx context.Context, req InferRequest) (string, error) {
		captured = req
		return `{"judgment": "ruling", "plaintiffShare": 50, "defendantShare": 50}`, nil
	})
	ai := NewAIService(capture)

	c := &models.Case{
		PlaintiffDemand: "an apology",
		DefendantDemand: "a quiet evening",
		JudgePersona:    "gentle",
	}
	if _, err := ai.GenerateVerdict(context.Background(), c); err != nil {
		t.Fatalf("GenerateVerdict failed: %v", err)
	}
	if !strings.Contains(captured.Prompt, "an apology") || !strings.Contains(captured.Prompt, "a quiet evening") {
		t.Errorf("demands missing from the prompt")
	}
	if captured.Hint != ModelCapable {
		t.Errorf("verdicts should ask for the capable model")
	}
	if !captured.JSONMode {
		t.Errorf("verdicts must request JSON mode")
	}
}

type inferFunc func(ctx context.Context, req InferRequest) (string, error)

func (f inferFunc) Infer(ctx context.Context, req InferRequest) (string, error) { return f(ctx, req) }
