package models

import "time"

// Stage is the case's position in the fixed workflow sequence.
type Stage string

const (
	StageDrafting     Stage = "drafting"
	StageEvidence     Stage = "evidence_submission"
	StageResponse     Stage = "response_pending"
	StageCrossExam    Stage = "cross_examination"
	StageDebate       Stage = "debate"
	StageAdjudicating Stage = "adjudicating"
	StageClosed       Stage = "closed"
	StageCancelled    Stage = "cancelled"
)

var stageRank = map[Stage]int{
	StageDrafting:     0,
	StageEvidence:     1,
	StageResponse:     2,
	StageCrossExam:    3,
	StageDebate:       4,
	StageAdjudicating: 5,
	StageClosed:       6,
	StageCancelled:    7,
}

// Rank returns the stage's position in the forward order. Cancelled ranks
// last so a cancelled snapshot is never treated as stale.
func (s Stage) Rank() int {
	r, ok := stageRank[s]
	if !ok {
		return -1
	}
	return r
}

// Side identifies which participant a record belongs to.
type Side string

const (
	SidePlaintiff Side = "plaintiff"
	SideDefendant Side = "defendant"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SidePlaintiff {
		return SideDefendant
	}
	return SidePlaintiff
}

// EvidenceKind distinguishes how an evidence payload should be read.
type EvidenceKind string

const (
	EvidenceText            EvidenceKind = "text"
	EvidenceImage           EvidenceKind = "image"
	EvidenceAudioTranscript EvidenceKind = "audio_transcript"
)

// DefaultedDefense is written into the defense fields when the plaintiff
// requests default judgment. Verdict generation treats it as "evaluate
// primarily on the plaintiff's unopposed claims".
const DefaultedDefense = "[no defense: the defendant did not participate]"

// EvidenceItem is an atomic unit of proof submitted by one side. Only the
// opposing side may toggle Contested.
type EvidenceItem struct {
	ID          string       `bson:"id" json:"id"`
	Kind        EvidenceKind `bson:"kind" json:"kind"`
	Content     string       `bson:"content" json:"content"`
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
	Contested   bool         `bson:"contested" json:"contested"`
	Side        Side         `bson:"side" json:"side"`
}

// DisputePoint is a machine-identified point of contention. Arguments are
// filled in independently by each side during the debate stage.
type DisputePoint struct {
	ID                string `bson:"id" json:"id"`
	Title             string `bson:"title" json:"title"`
	Question          string `bson:"question" json:"question"`
	PlaintiffArgument string `bson:"plaintiff_argument,omitempty" json:"plaintiffArgument,omitempty"`
	DefendantArgument string `bson:"defendant_argument,omitempty" json:"defendantArgument,omitempty"`
}

// PenaltyTask is a restorative task assigned to exactly one side.
type PenaltyTask struct {
	Assignee Side   `bson:"assignee" json:"assignee"`
	Content  string `bson:"content" json:"content"`
}

// PointRuling is the verdict's analysis of a single dispute point.
type PointRuling struct {
	PointID  string `bson:"point_id" json:"pointId"`
	Analysis string `bson:"analysis" json:"analysis"`
}

// Verdict is the terminal artifact of a case. Shares always sum to 100
// after validator normalization.
type Verdict struct {
	Facts          []string      `bson:"facts" json:"facts"`
	PlaintiffShare float64       `bson:"plaintiff_share" json:"plaintiffShare"`
	DefendantShare float64       `bson:"defendant_share" json:"defendantShare"`
	Judgment       string        `bson:"judgment" json:"judgment"`
	PenaltyTasks   []PenaltyTask `bson:"penalty_tasks" json:"penaltyTasks"`
	PointRulings   []PointRuling `bson:"point_rulings,omitempty" json:"pointRulings,omitempty"`
	GeneratedAt    time.Time     `bson:"generated_at" json:"generatedAt"`
}

// Case is the full record of one dispute from filing to verdict.
// PlaintiffID is immutable after creation; DefendantID is bound once on
// join and never reassigned.
type Case struct {
	ID                 string         `bson:"_id" json:"id"`
	JoinCode           string         `bson:"join_code" json:"joinCode"`
	Title              string         `bson:"title,omitempty" json:"title,omitempty"`
	Stage              Stage          `bson:"stage" json:"stage"`
	PlaintiffID        string         `bson:"plaintiff_id" json:"plaintiffId"`
	DefendantID        string         `bson:"defendant_id,omitempty" json:"defendantId,omitempty"`
	PlaintiffStatement string         `bson:"plaintiff_statement,omitempty" json:"plaintiffStatement,omitempty"`
	PlaintiffDemand    string         `bson:"plaintiff_demand,omitempty" json:"plaintiffDemand,omitempty"`
	DefendantDefense   string         `bson:"defendant_defense,omitempty" json:"defendantDefense,omitempty"`
	DefendantDemand    string         `bson:"defendant_demand,omitempty" json:"defendantDemand,omitempty"`
	PlaintiffRebuttal  string         `bson:"plaintiff_rebuttal,omitempty" json:"plaintiffRebuttal,omitempty"`
	DefendantRebuttal  string         `bson:"defendant_rebuttal,omitempty" json:"defendantRebuttal,omitempty"`
	PlaintiffEvidence  []EvidenceItem `bson:"plaintiff_evidence,omitempty" json:"plaintiffEvidence,omitempty"`
	DefendantEvidence  []EvidenceItem `bson:"defendant_evidence,omitempty" json:"defendantEvidence,omitempty"`
	DisputePoints      []DisputePoint `bson:"dispute_points,omitempty" json:"disputePoints,omitempty"`
	Fingerprint        string         `bson:"fingerprint,omitempty" json:"fingerprint,omitempty"`
	JudgePersona       string         `bson:"judge_persona,omitempty" json:"judgePersona,omitempty"`
	Verdict            *Verdict       `bson:"verdict,omitempty" json:"verdict,omitempty"`
	DefaultJudged      bool           `bson:"default_judged" json:"defaultJudged"`
	CreatedAt          time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time      `bson:"updated_at" json:"updatedAt"`
}

// SideOf reports which side the given participant is on.
func (c *Case) SideOf(userID string) (Side, bool) {
	switch userID {
	case "":
		return "", false
	case c.PlaintiffID:
		return SidePlaintiff, true
	case c.DefendantID:
		return SideDefendant, true
	}
	return "", false
}

// Evidence returns the evidence collection for one side.
func (c *Case) Evidence(side Side) []EvidenceItem {
	if side == SidePlaintiff {
		return c.PlaintiffEvidence
	}
	return c.DefendantEvidence
}

// Clone returns a deep copy so optimistic local views never alias store
// state.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	cp := *c
	cp.PlaintiffEvidence = append([]EvidenceItem(nil), c.PlaintiffEvidence...)
	cp.DefendantEvidence = append([]EvidenceItem(nil), c.DefendantEvidence...)
	cp.DisputePoints = append([]DisputePoint(nil), c.DisputePoints...)
	if c.Verdict != nil {
		v := *c.Verdict
		v.Facts = append([]string(nil), c.Verdict.Facts...)
		v.PenaltyTasks = append([]PenaltyTask(nil), c.Verdict.PenaltyTasks...)
		v.PointRulings = append([]PointRuling(nil), c.Verdict.PointRulings...)
		cp.Verdict = &v
	}
	return &cp
}
