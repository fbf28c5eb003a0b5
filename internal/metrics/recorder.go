package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// CacheLabel enumerates derivative cache lookup results.
type CacheLabel string

const (
	CacheHit  CacheLabel = "hit"
	CacheMiss CacheLabel = "miss"
)

// Recorder defines observability hooks for build, stage and derivative metrics.
// Implementations must be safe for concurrent use: cache lookups are reported
// from worker goroutines.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed|canceled
	IncCacheLookup(result CacheLabel)
	ObserveDerivativeDuration(d time.Duration)
	SetWorkerPoolSize(n int)
	SetEntries(total, degraded int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) IncCacheLookup(CacheLabel)                  {}
func (NoopRecorder) ObserveDerivativeDuration(time.Duration)    {}
func (NoopRecorder) SetWorkerPoolSize(int)                      {}
func (NoopRecorder) SetEntries(int, int)                        {}
