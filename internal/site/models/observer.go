package models

import (
	"time"

	"git.home.luguber.info/inful/sitekicker/internal/metrics"
)

// BuildObserver receives callbacks around stage execution and build lifecycle.
type BuildObserver interface {
	OnStageStart(stage SiteStage)
	OnStageComplete(stage SiteStage, duration time.Duration, result StageResult)
	OnBuildComplete(report *BuildReport)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(SiteStage)                                 {}
func (NoopObserver) OnStageComplete(SiteStage, time.Duration, StageResult) {}
func (NoopObserver) OnBuildComplete(*BuildReport)                          {}

// RecorderObserver adapts metrics.Recorder into a BuildObserver.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnStageStart(SiteStage) {}

func (r RecorderObserver) OnStageComplete(stage SiteStage, d time.Duration, _ StageResult) {
	if r.Recorder != nil {
		r.Recorder.ObserveStageDuration(stage.String(), d)
	}
}

func (r RecorderObserver) OnBuildComplete(report *BuildReport) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.ObserveBuildDuration(report.Duration())
	r.Recorder.IncBuildOutcome(string(report.Outcome))
	r.Recorder.SetEntries(report.Entries, report.DegradedEntries)
}
