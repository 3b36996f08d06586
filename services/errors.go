package services

import "errors"

var (
	// ErrPermissionDenied rejects an advancing action from anyone other
	// than the stage's designated actor, before any patch is applied.
	ErrPermissionDenied = errors.New("actor is not permitted to act at this stage")

	// ErrInvalidStage rejects an operation the current stage does not allow.
	ErrInvalidStage = errors.New("operation not valid for current stage")

	// ErrRespondentBound rejects binding a second identity as respondent.
	ErrRespondentBound = errors.New("respondent already bound to this case")

	// ErrToxicContent rejects a submission the toxicity check flagged.
	ErrToxicContent = errors.New("submission rejected by content check")

	// ErrAdjudicationInFlight means another session holds the per-case
	// verdict generation token.
	ErrAdjudicationInFlight = errors.New("adjudication already in progress")

	// ErrMalformedOutput is the gateway-level validation error: the model
	// answered, but not with parseable JSON. Distinct from transport
	// failure so callers can decide between retrying and re-prompting.
	ErrMalformedOutput = errors.New("model output did not contain valid JSON")

	// ErrBackendUnavailable means every backend in the fallback chain
	// failed after its retry budget.
	ErrBackendUnavailable = errors.New("all inference backends failed")
)
