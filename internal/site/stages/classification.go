package stages

import (
	"context"
	stderrors "errors"

	"git.home.luguber.info/inful/sitekicker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekicker/internal/site/models"
)

// StageOutcome is the normalized result of one handler run.
type StageOutcome struct {
	Error  *models.StageError
	Result models.StageResult
	Abort  bool
}

// resultFromStageErrorKind maps a StageErrorKind to a StageResult.
func resultFromStageErrorKind(k models.StageErrorKind) models.StageResult {
	switch k {
	case models.StageErrorWarning:
		return models.StageResultWarning
	case models.StageErrorCanceled:
		return models.StageResultCanceled
	default:
		return models.StageResultFatal
	}
}

// ClassifyStageResult converts a raw handler error into a StageOutcome.
// Errors that are not a *StageError are fatal, except context errors which
// count as cancellation and classified errors of warning severity.
func ClassifyStageResult(stage models.SiteStage, handler string, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Result: models.StageResultSuccess}
	}

	var se *models.StageError
	if !stderrors.As(err, &se) {
		switch {
		case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
			se = models.NewCanceledStageError(stage, handler, err)
		case errors.HasSeverity(err, errors.SeverityWarning):
			se = models.NewWarnStageError(stage, handler, err)
		default:
			se = models.NewFatalStageError(stage, handler, err)
		}
	}
	return StageOutcome{
		Error:  se,
		Result: resultFromStageErrorKind(se.Kind),
		Abort:  se.Kind != models.StageErrorWarning,
	}
}

// worse returns the more severe of two stage results.
func worse(a, b models.StageResult) models.StageResult {
	rank := map[models.StageResult]int{
		models.StageResultSuccess:  0,
		models.StageResultWarning:  1,
		models.StageResultFatal:    2,
		models.StageResultCanceled: 3,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
