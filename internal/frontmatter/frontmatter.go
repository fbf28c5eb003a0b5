// Package frontmatter separates the `---` delimited YAML header of a content
// file from its Markdown body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"git.home.luguber.info/inful/sitekicker/internal/options"
)

const delimiter = "---"

// ErrMissingClosingDelimiter indicates the document started with a front-matter
// delimiter but no later line closes the block.
var ErrMissingClosingDelimiter = errors.New("front-matter start delimiter found but closing delimiter is missing")

// ErrNotMapping indicates the front-matter block is valid YAML but not a mapping.
var ErrNotMapping = errors.New("front-matter is not a mapping")

// Document is a content file split into its header and body.
type Document struct {
	Front    *options.Map
	RawFront []byte
	Body     []byte
	Had      bool
}

// Split separates front-matter from the body.
//
// The first line must be exactly `---` (a trailing CR is tolerated). The block
// ends at the next line that is exactly `---`; the body is everything after
// that line. A document that does not open with a delimiter returns had=false
// and the whole input as body.
func Split(content []byte) (front []byte, body []byte, had bool, err error) {
	first, rest, _ := cutLine(content)
	if !isDelimiter(first) {
		return nil, content, false, nil
	}

	start := len(content) - len(rest)
	offset := start
	for len(rest) > 0 {
		line, next, _ := cutLine(rest)
		if isDelimiter(line) {
			return content[start:offset], next, true, nil
		}
		offset += len(rest) - len(next)
		rest = next
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// ParseYAML parses raw front-matter (without delimiters) into an ordered map.
func ParseYAML(front []byte) (*options.Map, error) {
	if len(bytes.TrimSpace(front)) == 0 {
		return options.New(), nil
	}
	m, err := options.Parse(front)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMapping, err)
	}
	return m, nil
}

// Parse splits content and decodes its front-matter.
func Parse(content []byte) (*Document, error) {
	front, body, had, err := Split(content)
	if err != nil {
		return nil, err
	}
	doc := &Document{RawFront: front, Body: body, Had: had}
	if !had {
		doc.Front = options.New()
		return doc, nil
	}
	doc.Front, err = ParseYAML(front)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ReadFile reads and parses the content file at path.
func ReadFile(path string) (*Document, error) {
	// #nosec G304 -- content files come from the scanned site tree
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// cutLine returns the first line of b without its terminator and the
// remainder after it. ok is false when b holds no newline.
func cutLine(b []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	return b[:i], b[i+1:], true
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimSuffix(line, []byte("\r"))) == delimiter
}
