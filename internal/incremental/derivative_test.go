package incremental

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingResize copies the source and counts invocations.
type countingResize struct {
	calls atomic.Int32
}

func (c *countingResize) resize(src, dest string, width, quality int) error {
	c.calls.Add(1)
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, append(data, []byte(fmt.Sprintf("|%d|%d", width, quality))...), 0o600)
}

func newSource(t *testing.T) (dir, src string) {
	t.Helper()
	dir = t.TempDir()
	src = filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(src, []byte("pixels"), 0o600))
	return dir, src
}

func TestEnsureDerivative_SecondCallIsHit(t *testing.T) {
	dir, src := newSource(t)
	store := NewStore()
	r := &countingResize{}
	task := Task{Source: src, Dest: filepath.Join(dir, "photo-500px.jpg"), Width: 500, Quality: 80}

	regenerated, err := EnsureDerivative(context.Background(), task, store, r.resize, false)
	require.NoError(t, err)
	assert.True(t, regenerated)

	regenerated, err = EnsureDerivative(context.Background(), task, store, r.resize, false)
	require.NoError(t, err)
	assert.False(t, regenerated)

	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, int64(1), store.Hits())
	assert.Equal(t, int64(1), store.Misses())
}

func TestEnsureDerivative_QualityChangeIsMiss(t *testing.T) {
	dir, src := newSource(t)
	store := NewStore()
	r := &countingResize{}
	dest := filepath.Join(dir, "photo-500px.jpg")

	_, err := EnsureDerivative(context.Background(), Task{Source: src, Dest: dest, Width: 500, Quality: 80}, store, r.resize, false)
	require.NoError(t, err)
	_, err = EnsureDerivative(context.Background(), Task{Source: src, Dest: dest, Width: 500, Quality: 60}, store, r.resize, false)
	require.NoError(t, err)

	assert.Equal(t, int32(2), r.calls.Load())
}

func TestEnsureDerivative_FullBuildForcesMiss(t *testing.T) {
	dir, src := newSource(t)
	store := NewStore()
	r := &countingResize{}
	task := Task{Source: src, Dest: filepath.Join(dir, "d.jpg"), Width: 500, Quality: 80}

	for i := 0; i < 2; i++ {
		_, err := EnsureDerivative(context.Background(), task, store, r.resize, true)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestEnsureDerivative_InvalidatedByFileChanges(t *testing.T) {
	cases := map[string]func(t *testing.T, task Task){
		"source touched": func(t *testing.T, task Task) {
			later := time.Now().Add(time.Hour)
			require.NoError(t, os.Chtimes(task.Source, later, later))
		},
		"destination removed": func(t *testing.T, task Task) {
			require.NoError(t, os.Remove(task.Dest))
		},
		"destination touched": func(t *testing.T, task Task) {
			later := time.Now().Add(time.Hour)
			require.NoError(t, os.Chtimes(task.Dest, later, later))
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			dir, src := newSource(t)
			store := NewStore()
			r := &countingResize{}
			task := Task{Source: src, Dest: filepath.Join(dir, "d.jpg"), Width: 500, Quality: 80}

			_, err := EnsureDerivative(context.Background(), task, store, r.resize, false)
			require.NoError(t, err)
			mutate(t, task)
			regenerated, err := EnsureDerivative(context.Background(), task, store, r.resize, false)
			require.NoError(t, err)

			assert.True(t, regenerated)
			assert.Equal(t, int32(2), r.calls.Load())
		})
	}
}

func TestEnsureDerivative_ResizeErrorLeavesNoRecord(t *testing.T) {
	dir, src := newSource(t)
	store := NewStore()
	task := Task{Source: src, Dest: filepath.Join(dir, "d.jpg"), Width: 500, Quality: 80}

	_, err := EnsureDerivative(context.Background(), task, store, func(string, string, int, int) error {
		return fmt.Errorf("decoder exploded")
	}, false)
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestEnsureDerivative_CanceledContext(t *testing.T) {
	dir, src := newSource(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &countingResize{}

	_, err := EnsureDerivative(ctx, Task{Source: src, Dest: filepath.Join(dir, "d.jpg"), Width: 1, Quality: 1}, NewStore(), r.resize, false)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), r.calls.Load())
}

func TestEnsureDerivative_ConcurrentWorkersShareStore(t *testing.T) {
	dir, src := newSource(t)
	store := NewStore()
	r := &countingResize{}
	widths := []int{48, 500, 1000, 1500}

	run := func() {
		var wg sync.WaitGroup
		for _, w := range widths {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				task := Task{Source: src, Dest: filepath.Join(dir, fmt.Sprintf("photo-%dpx.jpg", w)), Width: w, Quality: 80}
				_, err := EnsureDerivative(context.Background(), task, store, r.resize, false)
				assert.NoError(t, err)
			}(w)
		}
		wg.Wait()
	}

	run()
	run()

	assert.Equal(t, int32(len(widths)), r.calls.Load())
	assert.Equal(t, len(widths), store.Len())
}

func TestStore_SaveLoadRoundTripWithSortedKeys(t *testing.T) {
	dir, src := newSource(t)
	store := NewStore()
	r := &countingResize{}
	for _, w := range []int{1000, 500} {
		task := Task{Source: src, Dest: filepath.Join(dir, fmt.Sprintf("photo-%dpx.jpg", w)), Width: w, Quality: 80}
		_, err := EnsureDerivative(context.Background(), task, store, r.resize, false)
		require.NoError(t, err)
	}

	path := filepath.Join(dir, "out", SnapshotName)
	require.NoError(t, store.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	first := strings.Index(string(data), "photo-1000px.jpg")
	second := strings.Index(string(data), "photo-500px.jpg")
	require.True(t, first > 0 && second > 0)
	assert.Less(t, first, second)
	assert.Contains(t, string(data), `"options": "w=500,q=80"`)

	loaded := Load(path)
	assert.Equal(t, 2, loaded.Len())

	// A reloaded store still produces hits.
	task := Task{Source: src, Dest: filepath.Join(dir, "photo-500px.jpg"), Width: 500, Quality: 80}
	regenerated, err := EnsureDerivative(context.Background(), task, loaded, r.resize, false)
	require.NoError(t, err)
	assert.False(t, regenerated)
}

func TestLoad_MissingOrMalformedSnapshotIsEmpty(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, 0, Load(filepath.Join(dir, "missing")).Len())

	bad := filepath.Join(dir, SnapshotName)
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	assert.Equal(t, 0, Load(bad).Len())
}

func TestKeyString(t *testing.T) {
	k := Task{Source: "/a.png", Dest: "/out/a-500px.png", Width: 500, Quality: 15}.Key()
	assert.Equal(t, "/a.png|/out/a-500px.png|w=500,q=15", k.String())
}
