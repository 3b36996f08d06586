package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wendylandcan/liqingai/models"
)

// ExtractJSON locates the outermost JSON object or array in free-form
// model output: first opening brace/bracket to the last matching closing
// one, discarding markdown fences or prose wrapping. A payload that still
// fails to parse is ErrMalformedOutput.
func ExtractJSON(raw string) (string, error) {
	raw = cleanModelOutput(raw)

	objStart := strings.IndexByte(raw, '{')
	arrStart := strings.IndexByte(raw, '[')
	start := objStart
	closer := byte('}')
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start = arrStart
		closer = ']'
	}
	if start < 0 {
		return "", fmt.Errorf("%w: no opening brace in %q", ErrMalformedOutput, truncate(raw, 120))
	}

	end := strings.LastIndexByte(raw, closer)
	if end <= start {
		return "", fmt.Errorf("%w: no closing brace in %q", ErrMalformedOutput, truncate(raw, 120))
	}

	candidate := raw[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", fmt.Errorf("%w: %q", ErrMalformedOutput, truncate(candidate, 120))
	}
	return candidate, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// toNumber coerces the shapes models actually emit for numeric fields:
// JSON numbers, numeric strings ("60", "60%"), and nothing else.
// ParseFloat accepts "NaN" and "Inf", which would poison the share
// arithmetic, so non-finite values are rejected here.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, isFinite(n)
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && isFinite(f)
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil && isFinite(f)
	}
	return 0, false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

const shareTolerance = 0.5

// NormalizeShares coerces the responsibility split to two non-negative
// numbers summing to exactly 100. Negative or unparseable values become
// zero; a deviating sum is renormalized proportionally; if both sides end
// up zero the split defaults to 50/50.
func NormalizeShares(rawPlaintiff, rawDefendant any) (float64, float64) {
	p, okP := toNumber(rawPlaintiff)
	d, okD := toNumber(rawDefendant)
	if !okP {
		p = 0
	}
	if !okD {
		d = 0
	}
	p = math.Max(0, p)
	d = math.Max(0, d)

	sum := p + d
	if sum == 0 {
		return 50, 50
	}
	if math.Abs(sum-100) > shareTolerance {
		p = p / sum * 100
	}
	p = math.Round(p*10) / 10
	return p, 100 - p
}

// assigneeFromText looks for textual cues naming a side.
func assigneeFromText(s string) (models.Side, bool) {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "plaintiff"), strings.Contains(lower, "initiator"):
		return models.SidePlaintiff, true
	case strings.Contains(lower, "defendant"), strings.Contains(lower, "respondent"):
		return models.SideDefendant, true
	}
	return "", false
}

// pick returns the first present key from the map.
func pick(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func pickString(m map[string]any, keys ...string) string {
	if v, ok := pick(m, keys...); ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// CoercePenaltyTasks repairs the penalty list, which models return as bare
// strings, loosely-keyed objects, or canonical {assignee, content}
// objects. When no assignee signal exists, the task goes to the side
// holding the larger responsibility share.
func CoercePenaltyTasks(raw []any, plaintiffShare, defendantShare float64) []models.PenaltyTask {
	defaultSide := models.SidePlaintiff
	if defendantShare > plaintiffShare {
		defaultSide = models.SideDefendant
	}

	var tasks []models.PenaltyTask
	for _, entry := range raw {
		switch v := entry.(type) {
		case string:
			content := strings.TrimSpace(v)
			if content == "" {
				continue
			}
			side, ok := assigneeFromText(content)
			if !ok {
				side = defaultSide
			}
			tasks = append(tasks, models.PenaltyTask{Assignee: side, Content: content})
		case map[string]any:
			content := pickString(v, "content", "task", "text", "description", "penalty")
			if content == "" {
				continue
			}
			side, ok := assigneeFromText(pickString(v, "assignee", "side", "who", "party", "target", "for"))
			if !ok {
				side, ok = assigneeFromText(content)
			}
			if !ok {
				side = defaultSide
			}
			tasks = append(tasks, models.PenaltyTask{Assignee: side, Content: content})
		}
	}
	return tasks
}

// ParseDisputePoints parses the extraction payload {points:[{title,
// description}]} and assigns a stable synthetic id to any point the model
// left without one.
func ParseDisputePoints(jsonText string) ([]models.DisputePoint, error) {
	var payload struct {
		Points []map[string]any `json:"points"`
	}
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		// Some models emit a bare array instead of the wrapper object.
		if err2 := json.Unmarshal([]byte(jsonText), &payload.Points); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
	}
	if len(payload.Points) == 0 {
		return nil, fmt.Errorf("%w: no dispute points in payload", ErrMalformedOutput)
	}

	points := make([]models.DisputePoint, 0, len(payload.Points))
	for i, p := range payload.Points {
		point := models.DisputePoint{
			ID:       pickString(p, "id"),
			Title:    pickString(p, "title", "name"),
			Question: pickString(p, "description", "question"),
		}
		if point.ID == "" {
			point.ID = uuid.NewString()
		}
		if point.Title == "" {
			point.Title = fmt.Sprintf("Point %d", i+1)
		}
		if point.Question == "" {
			point.Question = point.Title
		}
		points = append(points, point)
	}
	return points, nil
}

// ParseVerdict coerces a verdict payload into the canonical schema:
// shares renormalized, penalty tasks repaired, point rulings matched back
// to the case's dispute points by index when ids are missing.
func ParseVerdict(jsonText string, points []models.DisputePoint) (*models.Verdict, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	v := &models.Verdict{GeneratedAt: time.Now()}

	if facts, ok := pick(payload, "facts", "factList", "fact_list"); ok {
		if list, ok := facts.([]any); ok {
			for _, f := range list {
				if s, ok := f.(string); ok && strings.TrimSpace(s) != "" {
					v.Facts = append(v.Facts, strings.TrimSpace(s))
				}
			}
		}
	}

	rawP, _ := pick(payload, "plaintiffShare", "plaintiff_share", "plaintiff")
	rawD, _ := pick(payload, "defendantShare", "defendant_share", "defendant")
	if split, ok := pick(payload, "responsibility", "responsibilitySplit", "split"); ok {
		if m, ok := split.(map[string]any); ok {
			if rp, ok := pick(m, "plaintiff", "plaintiffShare"); ok {
				rawP = rp
			}
			if rd, ok := pick(m, "defendant", "defendantShare"); ok {
				rawD = rd
			}
		}
	}
	v.PlaintiffShare, v.DefendantShare = NormalizeShares(rawP, rawD)

	v.Judgment = pickString(payload, "judgment", "judgement", "verdict", "ruling")
	if v.Judgment == "" {
		return nil, fmt.Errorf("%w: verdict payload has no judgment text", ErrMalformedOutput)
	}

	if raw, ok := pick(payload, "penaltyTasks", "penalty_tasks", "tasks", "penalties"); ok {
		if list, ok := raw.([]any); ok {
			v.PenaltyTasks = CoercePenaltyTasks(list, v.PlaintiffShare, v.DefendantShare)
		}
	}

	if raw, ok := pick(payload, "pointRulings", "point_rulings", "pointAnalyses", "points"); ok {
		if list, ok := raw.([]any); ok {
			for i, entry := range list {
				m, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				ruling := models.PointRuling{
					PointID:  pickString(m, "pointId", "point_id", "id"),
					Analysis: pickString(m, "analysis", "ruling", "text", "description"),
				}
				if ruling.Analysis == "" {
					continue
				}
				if ruling.PointID == "" && i < len(points) {
					ruling.PointID = points[i].ID
				}
				v.PointRulings = append(v.PointRulings, ruling)
			}
		}
	}

	return v, nil
}
