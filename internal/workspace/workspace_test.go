package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManager_PrepareCreatesMissingDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", ".dist")
	mgr := NewManager(out)

	if err := mgr.Prepare(); err != nil {
		t.Fatalf("Prepare() failed: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil || !info.IsDir() {
		t.Fatalf("output directory not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, probeName)); !os.IsNotExist(err) {
		t.Errorf("write probe left behind")
	}
}

func TestManager_PrepareRejectsFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(out, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := NewManager(out).Prepare(); err == nil {
		t.Fatal("expected error for a file output path")
	}
}

func TestManager_Contains(t *testing.T) {
	mgr := NewManager("/site/.dist")
	cases := map[string]bool{
		"/site/.dist":             true,
		"/site/.dist/a/index.html": true,
		"/site/.dist/../x":        false,
		"/site/.distant/x":        false,
		"/etc/passwd":             false,
	}
	for path, want := range cases {
		if got := mgr.Contains(path); got != want {
			t.Errorf("Contains(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestManager_CopyFileRefusesOutsideDestination(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "a.txt")
	if err := os.WriteFile(src, []byte("a"), 0o600); err != nil {
		t.Fatal(err)
	}
	mgr := NewManager(filepath.Join(base, "out"))
	if err := mgr.CopyFile(src, filepath.Join(base, "elsewhere.txt")); err == nil {
		t.Fatal("expected ErrOutsideOutput")
	}
	if err := mgr.CopyFile(src, filepath.Join(base, "out", "sub", "a.txt")); err != nil {
		t.Fatalf("CopyFile() failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(base, "out", "sub", "a.txt"))
	if err != nil || string(data) != "a" {
		t.Fatalf("copied content = %q, %v", data, err)
	}
}

func TestManager_CopyTreeSkipsHidden(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "assets")
	for name, content := range map[string]string{
		"css/site.css":   "body{}",
		"js/app.js":      "x()",
		".hidden/secret": "nope",
		".DS_Store":      "nope",
	} {
		path := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	out := filepath.Join(base, "out")
	n, err := NewManager(out).CopyTree(src, filepath.Join(out, "assets"))
	if err != nil {
		t.Fatalf("CopyTree() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("copied %d files, want 2", n)
	}
	if _, err := os.Stat(filepath.Join(out, "assets", "css", "site.css")); err != nil {
		t.Errorf("css not copied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "assets", ".hidden")); !os.IsNotExist(err) {
		t.Errorf("hidden directory copied")
	}
}
