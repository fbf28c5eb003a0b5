// Package markup extracts image and link references from compiled HTML and
// rewrites <img> tags. Callers depend only on Extract and RewriteImages, so
// the scanning strategy can change without touching them.
package markup

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Anchor is an <a> element with an href.
type Anchor struct {
	Href string
	Text string
}

// Image is an <img> element. Src is taken from src, falling back to data-src.
type Image struct {
	Src     string
	Alt     string
	Classes []string
}

// Refs are the references found in one document, in document order.
type Refs struct {
	Anchors []Anchor
	Images  []Image
}

// Extract scans doc for anchors and images.
func Extract(doc string) (Refs, error) {
	var refs Refs
	z := html.NewTokenizer(strings.NewReader(doc))

	var current *Anchor
	var text strings.Builder
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return refs, err
			}
			if current != nil {
				current.Text = strings.TrimSpace(text.String())
				refs.Anchors = append(refs.Anchors, *current)
			}
			return refs, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "img":
				if img, ok := imageFrom(tok); ok {
					refs.Images = append(refs.Images, img)
				}
			case "a":
				href, ok := attr(tok, "href")
				if !ok || tt == html.SelfClosingTagToken {
					continue
				}
				if current != nil {
					current.Text = strings.TrimSpace(text.String())
					refs.Anchors = append(refs.Anchors, *current)
				}
				current = &Anchor{Href: href}
				text.Reset()
			}
		case html.TextToken:
			if current != nil {
				text.Write(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if current != nil && string(name) == "a" {
				current.Text = strings.TrimSpace(text.String())
				refs.Anchors = append(refs.Anchors, *current)
				current = nil
			}
		}
	}
}

// RewriteImages calls fn for every <img> tag in doc. When fn returns
// ok=true the tag is replaced by the returned markup; everything else is
// copied through byte for byte.
func RewriteImages(doc string, fn func(Image) (string, bool)) (string, error) {
	var out strings.Builder
	out.Grow(len(doc))
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			return out.String(), nil
		}
		raw := string(z.Raw())
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			// Raw must be copied before Token reuses the buffer.
			if tok := z.Token(); tok.Data == "img" {
				if img, ok := imageFrom(tok); ok {
					if repl, replace := fn(img); replace {
						out.WriteString(repl)
						continue
					}
				}
			}
		}
		out.WriteString(raw)
	}
}

func imageFrom(tok html.Token) (Image, bool) {
	src, _ := attr(tok, "src")
	if src == "" {
		src, _ = attr(tok, "data-src")
	}
	if src == "" {
		return Image{}, false
	}
	alt, _ := attr(tok, "alt")
	img := Image{Src: src, Alt: alt}
	if class, _ := attr(tok, "class"); class != "" {
		img.Classes = strings.Fields(class)
	}
	return img, true
}

func attr(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// IsExternal reports whether ref points outside the site: an http(s) URL or
// a protocol-relative reference.
func IsExternal(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "//")
}

// IsLocalFile reports whether href names a file relative to the entry
// directory that should be copied with it.
func IsLocalFile(href string) bool {
	if href == "" || IsExternal(href) {
		return false
	}
	switch {
	case strings.HasPrefix(href, "#"),
		strings.HasPrefix(href, "/"),
		strings.HasPrefix(href, "?"),
		strings.Contains(href, ":"):
		// Fragments, root-absolute links and schemes like mailto: or tel:.
		return false
	}
	return true
}
