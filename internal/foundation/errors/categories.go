package errors

// ErrorCategory says which part of a build an error came from. The CLI maps
// it to an exit code.
type ErrorCategory string

const (
	// Problems with the site options or the command line.
	CategoryConfig ErrorCategory = "config"
	// Conflicting or malformed content, such as a duplicate entry id.
	CategoryValidation ErrorCategory = "validation"
	// A reference in an entry that does not resolve to a file.
	CategoryNotFound ErrorCategory = "not_found"

	CategoryBuild      ErrorCategory = "build"
	CategoryTemplate   ErrorCategory = "template"
	CategoryMarkdown   ErrorCategory = "markdown"
	CategoryImage      ErrorCategory = "image"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryGit        ErrorCategory = "git"
)

// ErrorSeverity says how far a failure reaches.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // aborts the build
	SeverityError   ErrorSeverity = "error"   // fails the operation at hand
	SeverityWarning ErrorSeverity = "warning" // output is written, degraded
)

// ErrorContext holds key/value details rendered after the message.
type ErrorContext map[string]any

// Set adds or replaces a value, allocating the map when needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// GetString returns the value of key when it is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}
