package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitekicker/internal/metrics"
	"git.home.luguber.info/inful/sitekicker/internal/version"
)

// ReportFileName is the JSON report written next to the snapshot.
const ReportFileName = ".build-report.json"

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// StageCount aggregates counts of outcomes for a stage.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// BuildReport captures high-level facts about one build.
type BuildReport struct {
	ID              string
	Start           time.Time
	End             time.Time
	Errors          []error // fatal errors causing build abortion
	Warnings        []error // non-fatal issues such as missing references
	StageDurations  map[string]time.Duration
	StageErrorKinds map[string]StageErrorKind
	StageCounts     map[string]StageCount
	Entries         int
	DegradedEntries int
	Drafts          int
	Derivatives     int
	CacheHits       int64
	CacheMisses     int64
	Outcome         BuildOutcome
	Version         string

	mu sync.Mutex
}

// NewBuildReport constructs a report stamped with a fresh build id.
func NewBuildReport() *BuildReport {
	return &BuildReport{
		ID:              uuid.NewString(),
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[string]StageErrorKind),
		StageCounts:     make(map[string]StageCount),
		Version:         version.Version,
	}
}

// AddWarning records a non-fatal issue.
func (r *BuildReport) AddWarning(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, err)
}

// AddError records a fatal issue.
func (r *BuildReport) AddError(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, err)
}

// Finish sets the end time of the report.
func (r *BuildReport) Finish() { r.End = time.Now() }

// Duration returns the elapsed build time, or the time so far when unfinished.
func (r *BuildReport) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// RecordStageResult updates the per-stage counters and emits metrics when
// recorder is non-nil.
func (r *BuildReport) RecordStageResult(stage string, res StageResult, recorder metrics.Recorder) {
	sc := r.StageCounts[stage]
	var label metrics.ResultLabel
	switch res {
	case StageResultSuccess:
		sc.Success++
		label = metrics.ResultSuccess
	case StageResultWarning:
		sc.Warning++
		label = metrics.ResultWarning
	case StageResultFatal:
		sc.Fatal++
		label = metrics.ResultFatal
	case StageResultCanceled:
		sc.Canceled++
		label = metrics.ResultCanceled
	}
	r.StageCounts[stage] = sc
	if recorder != nil && label != "" {
		recorder.IncStageResult(stage, label)
	}
}

// DeriveOutcome sets Outcome based on recorded errors and warnings.
func (r *BuildReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 || r.DegradedEntries > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("entries=%d degraded=%d drafts=%d derivatives=%d cache_hits=%d cache_misses=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Entries, r.DegradedEntries, r.Drafts, r.Derivatives, r.CacheHits, r.CacheMisses,
		r.Duration().Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), string(r.Outcome))
}

// Persist writes the report atomically into dir.
func (r *BuildReport) Persist(dir string) error {
	if r.End.IsZero() {
		r.Finish()
		r.DeriveOutcome()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	path := filepath.Join(dir, ReportFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jb, 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	return nil
}

// SanitizedCopy returns a copy with errors converted to strings for JSON.
func (r *BuildReport) SanitizedCopy() *BuildReportSerializable {
	s := &BuildReportSerializable{
		ID:              r.ID,
		Start:           r.Start,
		End:             r.End,
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		StageDurations:  make(map[string]int64, len(r.StageDurations)),
		StageErrorKinds: make(map[string]string, len(r.StageErrorKinds)),
		StageCounts:     r.StageCounts,
		Entries:         r.Entries,
		DegradedEntries: r.DegradedEntries,
		Drafts:          r.Drafts,
		Derivatives:     r.Derivatives,
		CacheHits:       r.CacheHits,
		CacheMisses:     r.CacheMisses,
		Outcome:         string(r.Outcome),
		Version:         r.Version,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	for k, v := range r.StageDurations {
		s.StageDurations[k] = v.Milliseconds()
	}
	for k, v := range r.StageErrorKinds {
		s.StageErrorKinds[k] = string(v)
	}
	return s
}

// BuildReportSerializable mirrors BuildReport with string errors for JSON output.
type BuildReportSerializable struct {
	ID              string                `json:"id"`
	Start           time.Time             `json:"start"`
	End             time.Time             `json:"end"`
	Errors          []string              `json:"errors"`
	Warnings        []string              `json:"warnings"`
	StageDurations  map[string]int64      `json:"stage_durations_ms"`
	StageErrorKinds map[string]string     `json:"stage_error_kinds"`
	StageCounts     map[string]StageCount `json:"stage_counts"`
	Entries         int                   `json:"entries"`
	DegradedEntries int                   `json:"degraded_entries"`
	Drafts          int                   `json:"drafts"`
	Derivatives     int                   `json:"derivatives"`
	CacheHits       int64                 `json:"cache_hits"`
	CacheMisses     int64                 `json:"cache_misses"`
	Outcome         string                `json:"outcome"`
	Version         string                `json:"version,omitempty"`
}
