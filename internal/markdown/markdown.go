// Package markdown compiles entry bodies from Markdown to HTML.
package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrCompile indicates Markdown conversion failed.
var ErrCompile = errors.New("markdown conversion failed")

// Compiler converts Markdown to an HTML fragment with goldmark.
type Compiler struct {
	md goldmark.Markdown
}

// Options tune the compiler.
type Options struct {
	// HighlightStyle is the chroma style name used for fenced code blocks.
	// Empty selects CSS classes instead of inline styles.
	HighlightStyle string
}

// New returns a Compiler with GFM, footnotes, heading ids and fenced-code
// highlighting. Raw HTML in the source is passed through, since site authors
// own their content.
func New(opts Options) *Compiler {
	formatOpts := []chromahtml.Option{chromahtml.WithClasses(opts.HighlightStyle == "")}
	hl := []highlighting.Option{highlighting.WithFormatOptions(formatOpts...)}
	if opts.HighlightStyle != "" {
		hl = append(hl, highlighting.WithStyle(opts.HighlightStyle))
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			highlighting.NewHighlighting(hl...),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)
	return &Compiler{md: md}
}

// Compile converts src to HTML. Goldmark has no context support, so
// conversion runs in a goroutine and cancellation returns early.
func (c *Compiler) Compile(ctx context.Context, src string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(src), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %w", ErrCompile, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
