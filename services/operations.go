package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/wendylandcan/liqingai/models"
)

// Inferencer is what the operations need from the gateway. Tests swap in
// a fake to count calls and script responses.
type Inferencer interface {
	Infer(ctx context.Context, req InferRequest) (string, error)
}

// AIService implements the specific operations built on the gateway
// contract, each with the degradation behavior the workflow relies on.
type AIService struct {
	gw Inferencer
}

func NewAIService(gw Inferencer) *AIService {
	return &AIService{gw: gw}
}

// TranscriptionPlaceholder is returned when audio transcription fails.
// Transcription never raises: the participant can still type.
const TranscriptionPlaceholder = "[transcription unavailable]"

// Transcribe converts an audio payload into plain text.
func (a *AIService) Transcribe(ctx context.Context, audio []byte, mime string) string {
	text, err := a.gw.Infer(ctx, InferRequest{
		System:      "You transcribe spoken statements for a dispute record.",
		Prompt:      "Transcribe this audio verbatim. Return only the spoken words, no commentary.",
		Attachments: []Attachment{{MIME: mime, Data: audio}},
	})
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("transcription failed, returning placeholder: %v", err)
		return TranscriptionPlaceholder
	}
	return strings.TrimSpace(text)
}

// truncateWords is the degraded fallback for the text-enrichment ops.
func truncateWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[:maxWords], " ")
}

func (a *AIService) freeText(ctx context.Context, system, prompt, fallback string) string {
	text, err := a.gw.Infer(ctx, InferRequest{System: system, Prompt: prompt, Temperature: 0.4})
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("text operation degraded to fallback: %v", err)
		return fallback
	}
	return strings.TrimSpace(text)
}

// Summarize shortens a statement; on failure it degrades to a truncation
// of the original input.
func (a *AIService) Summarize(ctx context.Context, text string, maxWords int) string {
	prompt := fmt.Sprintf("Summarize the following statement in at most %d words, keeping the writer's perspective:\n\n%s", maxWords, text)
	return a.freeText(ctx, "You condense dispute statements without taking sides.", prompt, truncateWords(text, maxWords))
}

// GenerateTitle produces a short neutral case title from the filing.
func (a *AIService) GenerateTitle(ctx context.Context, statement string) string {
	prompt := fmt.Sprintf("Write a short neutral title (at most 8 words) for a dispute whose complaint reads:\n\n%s\n\nReturn only the title.", statement)
	return a.freeText(ctx, "You name dispute cases.", prompt, truncateWords(statement, 8))
}

// Polish rewrites a statement to be clearer and calmer without changing
// its meaning.
func (a *AIService) Polish(ctx context.Context, text string) string {
	prompt := fmt.Sprintf("Rewrite the following statement so it is clear and calm while keeping every factual claim unchanged:\n\n%s\n\nReturn only the rewritten statement.", text)
	return a.freeText(ctx, "You polish dispute statements.", prompt, text)
}

// FixGrammar corrects grammar and spelling only.
func (a *AIService) FixGrammar(ctx context.Context, text string) string {
	prompt := fmt.Sprintf("Fix grammar and spelling in the following text. Change nothing else:\n\n%s\n\nReturn only the corrected text.", text)
	return a.freeText(ctx, "You proofread dispute statements.", prompt, text)
}

// ToxicityReport is the sentiment/toxicity check result.
type ToxicityReport struct {
	IsToxic bool    `json:"isToxic"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
}

// CheckToxicity classifies a submission. It fails open: an infra failure
// never blocks the workflow, so the zero (not toxic) report is returned.
func (a *AIService) CheckToxicity(ctx context.Context, text string) ToxicityReport {
	prompt := fmt.Sprintf(`Classify the following submission for abusive or threatening content.

Submission:
%s

Required Output Format (JSON):
{"isToxic": true|false, "score": 0.0-1.0, "reason": "text"}

Provide ONLY the JSON output without additional text or markdown formatting.`, text)

	payload, err := a.gw.Infer(ctx, InferRequest{
		System:   "You are a content moderator for a dispute mediation service.",
		Prompt:   prompt,
		JSONMode: true,
	})
	if err != nil {
		log.Printf("toxicity check failed open: %v", err)
		return ToxicityReport{}
	}
	var report ToxicityReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		log.Printf("toxicity payload unreadable, failing open: %v", err)
		return ToxicityReport{}
	}
	return report
}

// disputeMaterial assembles every field dispute-point generation reads.
// DisputeFingerprint hashes exactly this string, so a new field added to
// the prompt material must be added here and nowhere else.
func disputeMaterial(c *models.Case) string {
	var sb strings.Builder
	sb.WriteString("complaint: " + c.PlaintiffStatement + "\n")
	sb.WriteString("demand: " + c.PlaintiffDemand + "\n")
	sb.WriteString("defense: " + c.DefendantDefense + "\n")
	sb.WriteString("counter-demand: " + c.DefendantDemand + "\n")
	sb.WriteString("plaintiff rebuttal: " + c.PlaintiffRebuttal + "\n")
	sb.WriteString("defendant rebuttal: " + c.DefendantRebuttal + "\n")
	for _, side := range []models.Side{models.SidePlaintiff, models.SideDefendant} {
		for _, ev := range c.Evidence(side) {
			sb.WriteString(fmt.Sprintf("evidence[%s/%s] %s: %s (contested=%t)\n",
				side, ev.ID, ev.Kind, ev.Description, ev.Contested))
		}
	}
	return sb.String()
}

// DisputeFingerprint identifies the material dispute-point generation
// consumes, so regeneration is skipped when nothing changed.
func DisputeFingerprint(c *models.Case) string {
	sum := sha256.Sum256([]byte(disputeMaterial(c)))
	return hex.EncodeToString(sum[:])
}

// ExtractDisputePoints derives the debatable points of contention from
// the case record. Failure is surfaced to the caller as a retryable
// error: the points are load-bearing for the debate stage.
func (a *AIService) ExtractDisputePoints(ctx context.Context, c *models.Case) ([]models.DisputePoint, error) {
	prompt := fmt.Sprintf(`Both sides of a dispute have made their statements. Identify 2 to 4 core points of contention that the parties genuinely disagree on. Frame each as a yes/no question both sides can argue.

Case material:
%s

Required Output Format (JSON):
{
  "points": [
    {"title": "short title", "description": "yes/no-framed question"},
    ...
  ]
}

Provide ONLY the JSON output without additional text or markdown formatting.`, disputeMaterial(c))

	payload, err := a.gw.Infer(ctx, InferRequest{
		System:      "You are a mediation clerk who identifies the points of contention in a dispute.",
		Prompt:      prompt,
		JSONMode:    true,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("dispute point extraction failed: %w", err)
	}
	return ParseDisputePoints(payload)
}

// personaInstructions flavors the judge's voice. The selected persona
// only tunes tone; the output contract is identical for all of them.
func personaInstructions(persona string) string {
	switch strings.ToLower(persona) {
	case "stern":
		return "Your tone is stern and formal. You hold both parties to a high standard and do not soften your findings."
	case "gentle":
		return "Your tone is warm and de-escalating. You acknowledge both parties' feelings before ruling."
	case "humorous":
		return "Your tone is lightly humorous, never at the expense of fairness. Defuse tension where you can."
	default:
		return "Your tone is measured and impartial."
	}
}

// GenerateVerdict produces the final ruling. Failure is fatal to the
// adjudication attempt and retryable: the caller leaves the case in the
// adjudicating stage.
func (a *AIService) GenerateVerdict(ctx context.Context, c *models.Case) (*models.Verdict, error) {
	defaulted := c.DefendantDefense == models.DefaultedDefense

	var sb strings.Builder
	sb.WriteString("You are the presiding judge of a two-party dispute. ")
	sb.WriteString(personaInstructions(c.JudgePersona))
	if defaulted {
		sb.WriteString(" The defendant did not participate. Evaluate primarily on the plaintiff's unopposed claims, noting where a claim is uncorroborated.")
	}
	system := sb.String()

	var args strings.Builder
	for _, p := range c.DisputePoints {
		args.WriteString(fmt.Sprintf("point %s (%s): %s\n  plaintiff: %s\n  defendant: %s\n",
			p.ID, p.Title, p.Question, p.PlaintiffArgument, p.DefendantArgument))
	}

	prompt := fmt.Sprintf(`Rule on this dispute.

Case material:
%s
Final arguments:
%s
Address the plaintiff's demand (%q) and the defendant's demand (%q) in the judgment text.

Required Output Format (JSON):
{
  "facts": ["established fact", ...],
  "plaintiffShare": number,
  "defendantShare": number,
  "judgment": "prose ruling addressing each demand",
  "penaltyTasks": [{"assignee": "plaintiff"|"defendant", "content": "restorative task"}, ...],
  "pointRulings": [{"pointId": "id", "analysis": "text"}, ...]
}

plaintiffShare and defendantShare are responsibility percentages and must sum to 100.
Provide ONLY the JSON output without additional text or markdown formatting.`,
		disputeMaterial(c), args.String(), c.PlaintiffDemand, c.DefendantDemand)

	payload, err := a.gw.Infer(ctx, InferRequest{
		System:      system,
		Prompt:      prompt,
		JSONMode:    true,
		Temperature: 0.2,
		Hint:        ModelCapable,
	})
	if err != nil {
		return nil, fmt.Errorf("verdict generation failed: %w", err)
	}
	return ParseVerdict(payload, c.DisputePoints)
}
