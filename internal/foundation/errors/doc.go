// Package errors provides the classified errors used across sitekicker.
//
// A ClassifiedError carries a category (config, validation, template, image,
// ...), a severity (fatal, error, warning) and context details. The stage
// runner turns warning-severity errors into warnings, and the CLI maps
// categories to exit codes.
//
//	err := errors.ValidationError("duplicate entry id").
//		WithCause(models.ErrDuplicateID).
//		WithContext("id", id).
//		Build()
package errors
