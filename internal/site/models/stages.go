package models

import (
	"context"
	"fmt"
)

// SiteStage is one point in the fixed site build sequence.
type SiteStage int

// Site stages in execution order.
const (
	StagePreScan SiteStage = iota
	StageScan
	StagePostScan
	StagePreMark
	StageMark
	StagePostMark
	StagePreBuild
	StageBuild
	StagePostBuild
	StagePreSummary
	StageSummary
	StagePostSummary
	siteStageCount
)

var siteStageNames = [siteStageCount]string{
	"pre-scan", "scan", "post-scan",
	"pre-mark", "mark", "post-mark",
	"pre-build", "build", "post-build",
	"pre-summary", "summary", "post-summary",
}

func (s SiteStage) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SiteStage(%d)", int(s))
	}
	return siteStageNames[s]
}

// Valid reports whether s is one of the declared stages.
func (s SiteStage) Valid() bool { return s >= 0 && s < siteStageCount }

// SiteStages returns every site stage in execution order.
func SiteStages() []SiteStage {
	out := make([]SiteStage, siteStageCount)
	for i := range out {
		out[i] = SiteStage(i)
	}
	return out
}

// ParseSiteStage maps a textual stage name to its SiteStage.
func ParseSiteStage(name string) (SiteStage, error) {
	for i, n := range siteStageNames {
		if n == name {
			return SiteStage(i), nil
		}
	}
	return 0, fmt.Errorf("%w: site stage %q", ErrInvalidStage, name)
}

// EntryStage is one point in the fixed per-entry build sequence.
type EntryStage int

// Entry stages in execution order.
const (
	StagePreCompile EntryStage = iota
	StageCompile
	StagePostCompile
	StagePreLink
	StageLink
	StagePostLink
	entryStageCount
)

var entryStageNames = [entryStageCount]string{
	"pre-compile", "compile", "post-compile",
	"pre-link", "link", "post-link",
}

func (s EntryStage) String() string {
	if !s.Valid() {
		return fmt.Sprintf("EntryStage(%d)", int(s))
	}
	return entryStageNames[s]
}

// Valid reports whether s is one of the declared stages.
func (s EntryStage) Valid() bool { return s >= 0 && s < entryStageCount }

// EntryStages returns every entry stage in execution order.
func EntryStages() []EntryStage {
	out := make([]EntryStage, entryStageCount)
	for i := range out {
		out[i] = EntryStage(i)
	}
	return out
}

// ParseEntryStage maps a textual stage name to its EntryStage.
func ParseEntryStage(name string) (EntryStage, error) {
	for i, n := range entryStageNames {
		if n == name {
			return EntryStage(i), nil
		}
	}
	return 0, fmt.Errorf("%w: entry stage %q", ErrInvalidStage, name)
}

// SiteHandler mutates the build context at a site stage. A returned error
// aborts the build unless it is a warning-kind *StageError.
type SiteHandler func(ctx context.Context, s *Site) error

// EntryHandler mutates one entry at an entry stage. A returned error fails
// the entry and with it the build.
type EntryHandler func(ctx context.Context, e *Entry) error

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the failing stage and handler.
type StageError struct {
	Kind    StageErrorKind
	Stage   string
	Handler string
	Err     error
}

func (e *StageError) Error() string {
	if e.Handler != "" {
		return fmt.Sprintf("%s stage %s (%s): %v", e.Kind, e.Stage, e.Handler, e.Err)
	}
	return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage fmt.Stringer, handler string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage.String(), Handler: handler, Err: err}
}

// NewWarnStageError creates a stage error that is recorded without aborting.
func NewWarnStageError(stage fmt.Stringer, handler string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage.String(), Handler: handler, Err: err}
}

// NewCanceledStageError creates a stage error for context cancellation.
func NewCanceledStageError(stage fmt.Stringer, handler string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage.String(), Handler: handler, Err: err}
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)
