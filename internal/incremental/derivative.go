package incremental

import (
	"context"
	"fmt"
	"os"
	"time"
)

// ResizeFunc writes a derivative of src at dest with the given width and quality.
type ResizeFunc func(src, dest string, width, quality int) error

// Task describes one derivative to ensure.
type Task struct {
	Source  string
	Dest    string
	Width   int
	Quality int
}

// OptionsString serializes the generation options of a derivative.
func OptionsString(width, quality int) string {
	return fmt.Sprintf("w=%d,q=%d", width, quality)
}

// Key returns the cache key of the task.
func (t Task) Key() Key {
	return Key{Source: t.Source, Dest: t.Dest, Options: OptionsString(t.Width, t.Quality)}
}

// EnsureDerivative regenerates the derivative described by task unless the
// store holds a valid record for it. A record is valid when full is false,
// the source mtime is unchanged, the destination exists with an unchanged
// mtime, and the options match. It reports whether resize was invoked.
//
// Each key is independent, so callers may run many tasks concurrently
// against one store.
func EnsureDerivative(ctx context.Context, task Task, store *Store, resize ResizeFunc, full bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key := task.Key()

	srcInfo, err := os.Stat(task.Source)
	if err != nil {
		return false, fmt.Errorf("stat derivative source: %w", err)
	}

	if !full && valid(store, key, srcInfo.ModTime()) {
		store.countHit()
		return false, nil
	}
	store.countMiss()

	if err := resize(task.Source, task.Dest, task.Width, task.Quality); err != nil {
		return true, fmt.Errorf("generate %s: %w", task.Dest, err)
	}
	destInfo, err := os.Stat(task.Dest)
	if err != nil {
		return true, fmt.Errorf("stat generated derivative: %w", err)
	}
	store.Put(key, Record{
		SourceMTime: srcInfo.ModTime().UnixNano(),
		DestMTime:   destInfo.ModTime().UnixNano(),
		Options:     key.Options,
	})
	return true, nil
}

func valid(store *Store, key Key, srcMTime time.Time) bool {
	rec, ok := store.Lookup(key)
	if !ok {
		return false
	}
	if rec.SourceMTime != srcMTime.UnixNano() || rec.Options != key.Options {
		return false
	}
	destInfo, err := os.Stat(key.Dest)
	if err != nil {
		return false
	}
	return rec.DestMTime == destInfo.ModTime().UnixNano()
}
