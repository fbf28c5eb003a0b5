package models

import "errors"

// Standard sentinels for site build stages.
var (
	ErrInvalidStage  = errors.New("sitekicker: invalid stage")                // ErrInvalidStage indicates registration at an undeclared stage.
	ErrDuplicateID   = errors.New("sitekicker: duplicate entry id")           // ErrDuplicateID indicates two entries declare the same id.
	ErrMissingFile   = errors.New("sitekicker: referenced file missing")      // ErrMissingFile indicates a linked or included file does not exist.
	ErrMissingImage  = errors.New("sitekicker: referenced image missing")     // ErrMissingImage indicates a local image does not exist.
	ErrOutputEscapes = errors.New("sitekicker: output path escapes output root") // ErrOutputEscapes indicates output_path leaves the output directory.
)
