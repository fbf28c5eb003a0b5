// Package stages runs the site pipeline and provides its default handlers.
package stages

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitekicker/internal/logfields"
	"git.home.luguber.info/inful/sitekicker/internal/site/models"
)

// RunSite executes the registered site handlers stage by stage, in
// registration order within a stage. It records per-stage timing and
// results in the site's report, notifies the observer and stops on the
// first fatal or canceled handler. Warnings are recorded and the run goes on.
func RunSite(ctx context.Context, s *models.Site) error {
	obs := s.Observer
	if obs == nil {
		obs = models.NoopObserver{}
	}
	for _, stage := range s.Hooks.Stages() {
		handlers := s.Hooks.Handlers(stage)
		if len(handlers) == 0 {
			continue
		}
		obs.OnStageStart(stage)

		t0 := time.Now()
		result := models.StageResultSuccess
		var abort *models.StageError
		for _, h := range handlers {
			var err error
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = models.NewCanceledStageError(stage, h.Name, ctxErr)
			} else {
				slog.Debug("Running site handler", logfields.Stage(stage.String()), logfields.Handler(h.Name))
				err = h.Fn(ctx, s)
			}

			out := ClassifyStageResult(stage, h.Name, err)
			result = worse(result, out.Result)
			if out.Error == nil {
				continue
			}
			s.Report.StageErrorKinds[stage.String()] = out.Error.Kind
			if out.Abort {
				s.Report.AddError(out.Error)
				abort = out.Error
				break
			}
			s.Report.AddWarning(out.Error)
			slog.Warn("Site handler reported a warning",
				logfields.Stage(stage.String()), logfields.Handler(h.Name), logfields.Error(out.Error))
		}
		dur := time.Since(t0)

		s.Report.StageDurations[stage.String()] = dur
		s.Report.RecordStageResult(stage.String(), result, s.Recorder)
		obs.OnStageComplete(stage, dur, result)

		if abort != nil {
			return abort
		}
	}
	return nil
}
