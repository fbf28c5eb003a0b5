package markup

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SrcSetEntry is one candidate in a srcset: a derivative URL and its width.
type SrcSetEntry struct {
	URL   string
	Width int
}

// Responsive describes the lazy-loading markup for one local image.
type Responsive struct {
	Width       int
	Height      int
	Placeholder string
	Default     string
	SrcSet      []SrcSetEntry
	Classes     []string
	Alt         string
}

// HTML renders the lazy-loading <img> tag.
func (r Responsive) HTML() string {
	set := make([]string, len(r.SrcSet))
	for i, e := range r.SrcSet {
		set[i] = e.URL + " " + strconv.Itoa(e.Width) + "w"
	}
	return fmt.Sprintf(`<img style="max-width: %dpx; max-height: %dpx;" src="%s" data-src="%s" data-sizes="auto" data-srcset="%s" class="lazyload lqip-blur %s" alt="%s"/>`,
		r.Width, r.Height,
		html.EscapeString(r.Placeholder),
		html.EscapeString(r.Default),
		html.EscapeString(strings.Join(set, ",")),
		html.EscapeString(strings.Join(r.Classes, " ")),
		html.EscapeString(r.Alt))
}

// LazyExternal renders the lazy-loading tag for an image the site does not own.
func LazyExternal(src string) string {
	return `<img data-src="` + html.EscapeString(src) + `" class="lazyload" />`
}

// Meta tag names used by templates to load optional assets.
const (
	MetaMath            = "math"
	MetaImage           = "image"
	MetaResponsiveImage = "responsive-image"
	MetaLazyloadImage   = "lazyload-image"
	MetaCode            = "code"
)

var (
	mathPattern = regexp.MustCompile(`\\\(.*\\\)|\\\[.*\\\]`)
	codePattern = regexp.MustCompile(`<code[^>]*>|<pre[^>]*>`)
)

// MetaTags inspects compiled HTML and returns the sorted meta tags that
// apply. Math delimiters are also looked for in source, since Markdown
// compilation consumes the backslash escapes. hasImages reports whether the
// entry references any image; the image related tags are only set when it
// does.
func MetaTags(doc, source string, hasImages bool) []string {
	var tags []string
	if mathPattern.MatchString(doc) || mathPattern.MatchString(source) {
		tags = append(tags, MetaMath)
	}
	if hasImages {
		tags = append(tags, MetaImage)
		if strings.Contains(doc, "srcset") {
			tags = append(tags, MetaResponsiveImage)
		}
		if strings.Contains(doc, "lazyload") {
			tags = append(tags, MetaLazyloadImage)
		}
	}
	if codePattern.MatchString(doc) {
		tags = append(tags, MetaCode)
	}
	sort.Strings(tags)
	return tags
}
