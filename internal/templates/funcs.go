package templates

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitekicker/internal/site/models"
)

const (
	rfc822Layout  = "Mon, 02 Jan 2006 15:04:05 -0700"
	iso8601Layout = "2006-01-02T15:04:05-0700"
)

// Funcs returns the helpers available to every layout.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"date_to_rfc822":  DateToRFC822,
		"date_to_iso8601": DateToISO8601,
		"xml_escape":      XMLEscape,
		"escape_quote":    EscapeQuote,
	}
}

// toTime accepts times, date strings and Unix seconds.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case float64:
		return time.Unix(int64(t), 0).UTC(), nil
	case string:
		if parsed := models.ParseDate(t); !parsed.IsZero() {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown date value %v (%T)", v, v)
}

// DateToRFC822 formats v as used by RSS feeds.
func DateToRFC822(v any) (string, error) {
	t, err := toTime(v)
	if err != nil {
		return "", err
	}
	return t.Format(rfc822Layout), nil
}

// DateToISO8601 formats v as used by Atom feeds and sitemaps.
func DateToISO8601(v any) (string, error) {
	t, err := toTime(v)
	if err != nil {
		return "", err
	}
	return t.Format(iso8601Layout), nil
}

var xmlReplacer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
	"&", "&amp;",
)

// XMLEscape escapes the five XML special characters. Nil and empty values
// render as the empty string.
func XMLEscape(v any) string {
	if v == nil {
		return ""
	}
	return xmlReplacer.Replace(fmt.Sprint(v))
}

// EscapeQuote backslash-escapes double quotes.
func EscapeQuote(v any) string {
	if v == nil {
		return ""
	}
	return strings.ReplaceAll(fmt.Sprint(v), `"`, `\"`)
}
