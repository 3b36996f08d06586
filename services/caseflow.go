package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wendylandcan/liqingai/db"
	"github.com/wendylandcan/liqingai/internal/caselock"
	"github.com/wendylandcan/liqingai/models"
	"github.com/wendylandcan/liqingai/utils"
)

// actor names who may submit the advancing action for a stage. Everyone
// else gets a read-only waiting view.
type actor int

const (
	actorPlaintiff actor = iota
	actorDefendant
	actorEither
	actorNeither
)

var stageActor = map[models.Stage]actor{
	models.StageDrafting:     actorPlaintiff,
	models.StageEvidence:     actorPlaintiff,
	models.StageResponse:     actorDefendant,
	models.StageCrossExam:    actorEither,
	models.StageDebate:       actorEither,
	models.StageAdjudicating: actorEither,
	models.StageClosed:       actorNeither,
	models.StageCancelled:    actorNeither,
}

// stepBackTarget is the fixed inverse mapping for "step back" operations.
var stepBackTarget = map[models.Stage]models.Stage{
	models.StageEvidence:     models.StageDrafting,
	models.StageResponse:     models.StageEvidence,
	models.StageCrossExam:    models.StageResponse,
	models.StageDebate:       models.StageCrossExam,
	models.StageAdjudicating: models.StageDebate,
}

func sideMatchesActor(side models.Side, a actor) bool {
	switch a {
	case actorPlaintiff:
		return side == models.SidePlaintiff
	case actorDefendant:
		return side == models.SideDefendant
	case actorEither:
		return true
	}
	return false
}

// CaseService is the authoritative state machine. Every mutation loads
// the case, checks role and stage before touching anything, and writes
// content plus next stage in one atomic patch.
type CaseService struct {
	store db.CaseStore
	ai    *AIService
	locks *caselock.Locker
}

func NewCaseService(store db.CaseStore, ai *AIService, locks *caselock.Locker) *CaseService {
	return &CaseService{store: store, ai: ai, locks: locks}
}

func (s *CaseService) load(ctx context.Context, caseID string) (*models.Case, error) {
	return s.store.FetchByID(ctx, caseID)
}

// requireActor rejects with a permission error before any patch is
// applied when the caller is not the stage's designated actor.
func requireActor(c *models.Case, userID string) (models.Side, error) {
	side, ok := c.SideOf(userID)
	if !ok {
		return "", ErrPermissionDenied
	}
	if !sideMatchesActor(side, stageActor[c.Stage]) {
		return side, ErrPermissionDenied
	}
	return side, nil
}

func requireStage(c *models.Case, want models.Stage) error {
	if c.Stage != want {
		return fmt.Errorf("%w: case is in %s, expected %s", ErrInvalidStage, c.Stage, want)
	}
	return nil
}

// apply persists the patch and returns the updated case view.
func (s *CaseService) apply(ctx context.Context, c *models.Case, patch *models.CasePatch) (*models.Case, error) {
	if err := s.store.Update(ctx, c.ID, patch); err != nil {
		return nil, err
	}
	updated := c.Clone()
	patch.Apply(updated)
	return updated, nil
}

// CreateCase opens a new dispute with the caller as plaintiff.
func (s *CaseService) CreateCase(ctx context.Context, userID, title, persona string) (*models.Case, error) {
	if userID == "" {
		return nil, ErrPermissionDenied
	}
	now := time.Now()
	c := &models.Case{
		ID:           uuid.NewString(),
		JoinCode:     utils.NewJoinCode(),
		Title:        strings.TrimSpace(title),
		Stage:        models.StageDrafting,
		PlaintiffID:  userID,
		JudgePersona: persona,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// GetCase returns the case to a participant; this is the polling read.
func (s *CaseService) GetCase(ctx context.Context, userID, caseID string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if _, ok := c.SideOf(userID); !ok {
		return nil, ErrPermissionDenied
	}
	return c, nil
}

// ListCases returns every case the user participates in, either side.
func (s *CaseService) ListCases(ctx context.Context, userID string) ([]*models.Case, error) {
	return s.store.FetchByParticipant(ctx, userID)
}

// JoinCase binds the caller as respondent via the human-entered join
// code. A bound respondent identity is never reassigned.
func (s *CaseService) JoinCase(ctx context.Context, userID, joinCode string) (*models.Case, error) {
	c, err := s.store.FetchByJoinCode(ctx, strings.ToUpper(strings.TrimSpace(joinCode)))
	if err != nil {
		return nil, err
	}
	if userID == c.PlaintiffID || userID == c.DefendantID {
		return c, nil // rejoining participant
	}
	if c.DefendantID != "" {
		return nil, ErrRespondentBound
	}
	if c.Stage == models.StageClosed || c.Stage == models.StageCancelled {
		return nil, fmt.Errorf("%w: case no longer accepts a respondent", ErrInvalidStage)
	}
	return s.apply(ctx, c, &models.CasePatch{DefendantID: &userID})
}

// SubmitFiling records the plaintiff's statement and demand and advances
// to evidence submission. A missing title is filled in by the degraded
// title operation.
func (s *CaseService) SubmitFiling(ctx context.Context, userID, caseID, statement, demand string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireStage(c, models.StageDrafting); err != nil {
		return nil, err
	}
	if _, err := requireActor(c, userID); err != nil {
		return nil, err
	}
	if report := s.ai.CheckToxicity(ctx, statement+"\n"+demand); report.IsToxic {
		return nil, fmt.Errorf("%w: %s", ErrToxicContent, report.Reason)
	}

	patch := &models.CasePatch{
		Stage:              stageOf(models.StageEvidence),
		PlaintiffStatement: &statement,
		PlaintiffDemand:    &demand,
	}
	if c.Title == "" {
		title := s.ai.GenerateTitle(ctx, statement)
		patch.Title = &title
	}
	return s.apply(ctx, c, patch)
}

func canAddEvidence(side models.Side, stage models.Stage) bool {
	switch side {
	case models.SidePlaintiff:
		return stage == models.StageEvidence || stage == models.StageCrossExam
	case models.SideDefendant:
		return stage == models.StageResponse || stage == models.StageCrossExam
	}
	return false
}

// AddEvidence appends an evidence item for the caller's side during their
// evidence-submission or cross-examination stage.
func (s *CaseService) AddEvidence(ctx context.Context, userID, caseID string, kind models.EvidenceKind, content, description string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	side, ok := c.SideOf(userID)
	if !ok {
		return nil, ErrPermissionDenied
	}
	if !canAddEvidence(side, c.Stage) {
		return nil, fmt.Errorf("%w: evidence cannot be added during %s", ErrInvalidStage, c.Stage)
	}

	item := models.EvidenceItem{
		ID:          uuid.NewString(),
		Kind:        kind,
		Content:     content,
		Description: description,
		Side:        side,
	}
	items := append(append([]models.EvidenceItem(nil), c.Evidence(side)...), item)
	return s.apply(ctx, c, evidencePatch(side, items))
}

// RemoveEvidence lets the submitter withdraw an item while the case has
// not advanced past their submission stage.
func (s *CaseService) RemoveEvidence(ctx context.Context, userID, caseID, evidenceID string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	side, ok := c.SideOf(userID)
	if !ok {
		return nil, ErrPermissionDenied
	}
	if !canAddEvidence(side, c.Stage) {
		return nil, fmt.Errorf("%w: evidence can no longer be removed", ErrInvalidStage)
	}

	items := c.Evidence(side)
	kept := make([]models.EvidenceItem, 0, len(items))
	found := false
	for _, item := range items {
		if item.ID == evidenceID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return nil, fmt.Errorf("evidence %s not found for %s", evidenceID, side)
	}
	return s.apply(ctx, c, evidencePatch(side, kept))
}

// ContestEvidence toggles the contested flag. Only the side that did NOT
// submit the item may do this, during cross-examination.
func (s *CaseService) ContestEvidence(ctx context.Context, userID, caseID, evidenceID string, contested bool) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	side, ok := c.SideOf(userID)
	if !ok {
		return nil, ErrPermissionDenied
	}
	if err := requireStage(c, models.StageCrossExam); err != nil {
		return nil, err
	}

	owner := side.Opposite()
	items := append([]models.EvidenceItem(nil), c.Evidence(owner)...)
	found := false
	for i := range items {
		if items[i].ID == evidenceID {
			items[i].Contested = contested
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: item was not submitted by the opposing side", ErrPermissionDenied)
	}
	return s.apply(ctx, c, evidencePatch(owner, items))
}

// CloseEvidence ends the plaintiff's evidence stage and hands the case to
// the respondent.
func (s *CaseService) CloseEvidence(ctx context.Context, userID, caseID string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireStage(c, models.StageEvidence); err != nil {
		return nil, err
	}
	if _, err := requireActor(c, userID); err != nil {
		return nil, err
	}
	return s.apply(ctx, c, models.NewStagePatch(models.StageResponse))
}

// SubmitDefense records the respondent's answer and moves the case into
// cross-examination.
func (s *CaseService) SubmitDefense(ctx context.Context, userID, caseID, defense, demand string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireStage(c, models.StageResponse); err != nil {
		return nil, err
	}
	if _, err := requireActor(c, userID); err != nil {
		return nil, err
	}
	if report := s.ai.CheckToxicity(ctx, defense+"\n"+demand); report.IsToxic {
		return nil, fmt.Errorf("%w: %s", ErrToxicContent, report.Reason)
	}
	return s.apply(ctx, c, &models.CasePatch{
		Stage:            stageOf(models.StageCrossExam),
		DefendantDefense: &defense,
		DefendantDemand:  &demand,
	})
}

// SubmitRebuttal writes the caller's own rebuttal field. The two rebuttal
// fields are disjoint, so concurrent edits from both sides merge cleanly.
func (s *CaseService) SubmitRebuttal(ctx context.Context, userID, caseID, text string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireStage(c, models.StageCrossExam); err != nil {
		return nil, err
	}
	side, err := requireActor(c, userID)
	if err != nil {
		return nil, err
	}

	patch := &models.CasePatch{}
	if side == models.SidePlaintiff {
		patch.PlaintiffRebuttal = &text
	} else {
		patch.DefendantRebuttal = &text
	}
	return s.apply(ctx, c, patch)
}

// AdvanceToDebate moves the case into the debate stage, generating
// dispute points unless the material is unchanged since the last
// generation, in which case the stored set (and any in-progress
// arguments) is reused.
func (s *CaseService) AdvanceToDebate(ctx context.Context, userID, caseID string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireStage(c, models.StageCrossExam); err != nil {
		return nil, err
	}
	if _, err := requireActor(c, userID); err != nil {
		return nil, err
	}

	fp := DisputeFingerprint(c)
	if fp == c.Fingerprint && len(c.DisputePoints) > 0 {
		return s.apply(ctx, c, models.NewStagePatch(models.StageDebate))
	}

	points, err := s.ai.ExtractDisputePoints(ctx, c)
	if err != nil {
		// Load-bearing failure: surfaced, stage unchanged, caller retries.
		return nil, err
	}
	return s.apply(ctx, c, &models.CasePatch{
		Stage:         stageOf(models.StageDebate),
		DisputePoints: &points,
		Fingerprint:   &fp,
	})
}

// SubmitArgument fills in the caller's final argument on one dispute
// point. Either side may write independently.
func (s *CaseService) SubmitArgument(ctx context.Context, userID, caseID, pointID, text string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireStage(c, models.StageDebate); err != nil {
		return nil, err
	}
	side, err := requireActor(c, userID)
	if err != nil {
		return nil, err
	}

	points := append([]models.DisputePoint(nil), c.DisputePoints...)
	found := false
	for i := range points {
		if points[i].ID != pointID {
			continue
		}
		if side == models.SidePlaintiff {
			points[i].PlaintiffArgument = text
		} else {
			points[i].DefendantArgument = text
		}
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("dispute point %s not found", pointID)
	}
	return s.apply(ctx, c, &models.CasePatch{DisputePoints: &points})
}

// EnterAdjudication closes the debate. Verdict generation itself is a
// separate, retryable step.
func (s *CaseService) EnterAdjudication(ctx context.Context, userID, caseID string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireStage(c, models.StageDebate); err != nil {
		return nil, err
	}
	if _, err := requireActor(c, userID); err != nil {
		return nil, err
	}
	return s.apply(ctx, c, models.NewStagePatch(models.StageAdjudicating))
}

// Adjudicate generates the verdict and closes the case. There is no skip
// path: every adjudication attempt, including re-adjudication after an
// appeal, produces a fresh verdict. On failure the case stays in the
// adjudicating stage so the user can retry without data loss.
func (s *CaseService) Adjudicate(ctx context.Context, userID, caseID string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireStage(c, models.StageAdjudicating); err != nil {
		return nil, err
	}
	if _, err := requireActor(c, userID); err != nil {
		return nil, err
	}

	release, acquired, err := s.locks.Acquire(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrAdjudicationInFlight
	}
	defer release()

	verdict, err := s.ai.GenerateVerdict(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, c, &models.CasePatch{
		Stage:   stageOf(models.StageClosed),
		Verdict: verdict,
	})
}

// StepBack reverses one forward transition using the fixed inverse
// mapping. Stepping back from a default-judgment adjudication also resets
// the sentinel defense fields.
func (s *CaseService) StepBack(ctx context.Context, userID, caseID string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	side, ok := c.SideOf(userID)
	if !ok {
		return nil, ErrPermissionDenied
	}

	if c.Stage == models.StageAdjudicating && c.DefaultJudged {
		if side != models.SidePlaintiff {
			return nil, ErrPermissionDenied
		}
		empty := ""
		return s.apply(ctx, c, &models.CasePatch{
			Stage:            stageOf(models.StageResponse),
			DefendantDefense: &empty,
			DefendantDemand:  &empty,
			DefaultJudged:    falsePtr(),
		})
	}

	target, ok := stepBackTarget[c.Stage]
	if !ok {
		return nil, fmt.Errorf("%w: cannot step back from %s", ErrInvalidStage, c.Stage)
	}
	// Stepping back returns editing rights to the target stage's actor;
	// only someone who would hold those rights may request it.
	if !sideMatchesActor(side, stageActor[target]) {
		return nil, ErrPermissionDenied
	}
	return s.apply(ctx, c, models.NewStagePatch(target))
}

// DefaultJudgment lets the plaintiff force adjudication when the
// respondent never joined or never answered. The sentinel defense tells
// verdict generation to rule on the unopposed claims.
func (s *CaseService) DefaultJudgment(ctx context.Context, userID, caseID string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireStage(c, models.StageResponse); err != nil {
		return nil, err
	}
	side, ok := c.SideOf(userID)
	if !ok || side != models.SidePlaintiff {
		return nil, ErrPermissionDenied
	}
	if c.DefendantDefense != "" {
		return nil, fmt.Errorf("%w: the defendant has answered", ErrInvalidStage)
	}

	sentinel := models.DefaultedDefense
	empty := ""
	return s.apply(ctx, c, &models.CasePatch{
		Stage:            stageOf(models.StageAdjudicating),
		DefendantDefense: &sentinel,
		DefendantDemand:  &empty,
		DefaultJudged:    truePtr(),
	})
}

// Appeal reopens a closed case, discarding the verdict. A normal case
// returns to debate; a default-judgment case returns to response_pending
// with the sentinel defense cleared.
func (s *CaseService) Appeal(ctx context.Context, userID, caseID string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireStage(c, models.StageClosed); err != nil {
		return nil, err
	}
	if _, ok := c.SideOf(userID); !ok {
		return nil, ErrPermissionDenied
	}

	patch := &models.CasePatch{ClearVerdict: true}
	if c.DefaultJudged {
		empty := ""
		patch.Stage = stageOf(models.StageResponse)
		patch.DefendantDefense = &empty
		patch.DefendantDemand = &empty
		patch.DefaultJudged = falsePtr()
	} else {
		patch.Stage = stageOf(models.StageDebate)
	}
	return s.apply(ctx, c, patch)
}

// DeleteCase is the initiator's terminal, unrecoverable cancellation.
func (s *CaseService) DeleteCase(ctx context.Context, userID, caseID string) error {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return err
	}
	if userID != c.PlaintiffID {
		return ErrPermissionDenied
	}
	if c.Stage == models.StageClosed {
		return fmt.Errorf("%w: a closed case cannot be cancelled", ErrInvalidStage)
	}
	return s.store.Delete(ctx, c.ID)
}

func evidencePatch(side models.Side, items []models.EvidenceItem) *models.CasePatch {
	if side == models.SidePlaintiff {
		return &models.CasePatch{PlaintiffEvidence: &items}
	}
	return &models.CasePatch{DefendantEvidence: &items}
}

func stageOf(s models.Stage) *models.Stage { return &s }
func truePtr() *bool                       { b := true; return &b }
func falsePtr() *bool                      { b := false; return &b }
