package models

import "time"

// CasePatch is a field-wise partial update to a case. Only non-nil fields
// are applied, so two sessions editing disjoint fields never clobber each
// other's writes.
type CasePatch struct {
	Stage              *Stage
	Title              *string
	DefendantID        *string
	PlaintiffStatement *string
	PlaintiffDemand    *string
	DefendantDefense   *string
	DefendantDemand    *string
	PlaintiffRebuttal  *string
	DefendantRebuttal  *string
	PlaintiffEvidence  *[]EvidenceItem
	DefendantEvidence  *[]EvidenceItem
	DisputePoints      *[]DisputePoint
	Fingerprint        *string
	JudgePersona       *string
	Verdict            *Verdict
	ClearVerdict       bool
	DefaultJudged      *bool
}

// Apply folds the patch into the case in place and bumps UpdatedAt.
func (p *CasePatch) Apply(c *Case) {
	if p.Stage != nil {
		c.Stage = *p.Stage
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.DefendantID != nil {
		c.DefendantID = *p.DefendantID
	}
	if p.PlaintiffStatement != nil {
		c.PlaintiffStatement = *p.PlaintiffStatement
	}
	if p.PlaintiffDemand != nil {
		c.PlaintiffDemand = *p.PlaintiffDemand
	}
	if p.DefendantDefense != nil {
		c.DefendantDefense = *p.DefendantDefense
	}
	if p.DefendantDemand != nil {
		c.DefendantDemand = *p.DefendantDemand
	}
	if p.PlaintiffRebuttal != nil {
		c.PlaintiffRebuttal = *p.PlaintiffRebuttal
	}
	if p.DefendantRebuttal != nil {
		c.DefendantRebuttal = *p.DefendantRebuttal
	}
	if p.PlaintiffEvidence != nil {
		c.PlaintiffEvidence = append([]EvidenceItem(nil), (*p.PlaintiffEvidence)...)
	}
	if p.DefendantEvidence != nil {
		c.DefendantEvidence = append([]EvidenceItem(nil), (*p.DefendantEvidence)...)
	}
	if p.DisputePoints != nil {
		c.DisputePoints = append([]DisputePoint(nil), (*p.DisputePoints)...)
	}
	if p.Fingerprint != nil {
		c.Fingerprint = *p.Fingerprint
	}
	if p.JudgePersona != nil {
		c.JudgePersona = *p.JudgePersona
	}
	if p.Verdict != nil {
		v := *p.Verdict
		c.Verdict = &v
	}
	if p.ClearVerdict {
		c.Verdict = nil
	}
	if p.DefaultJudged != nil {
		c.DefaultJudged = *p.DefaultJudged
	}
	c.UpdatedAt = time.Now()
}

// NewStagePatch returns a patch that only advances the stage.
func NewStagePatch(s Stage) *CasePatch {
	return &CasePatch{Stage: &s}
}
