package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyHandler    = "handler"
	KeyEntry      = "entry"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyLayout     = "layout"
	KeyWidth      = "width"
	KeyQuality    = "quality"
	KeyCount      = "count"
	KeyWorkers    = "workers"
	KeyDurationMS = "duration_ms"
	KeyAddr       = "addr"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Handler(name string) slog.Attr   { return slog.String(KeyHandler, name) }
func Entry(id string) slog.Attr       { return slog.String(KeyEntry, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Layout(l string) slog.Attr       { return slog.String(KeyLayout, l) }
func Width(w int) slog.Attr           { return slog.Int(KeyWidth, w) }
func Quality(q int) slog.Attr         { return slog.Int(KeyQuality, q) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Workers(n int) slog.Attr         { return slog.Int(KeyWorkers, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
