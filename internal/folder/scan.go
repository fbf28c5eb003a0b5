package folder

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitekicker/internal/frontmatter"
	"git.home.luguber.info/inful/sitekicker/internal/logfields"
	"git.home.luguber.info/inful/sitekicker/internal/options"
)

// Rules control classification during a scan.
type Rules struct {
	// AssetDirs and TemplateDir are slash-separated paths relative to the root.
	AssetDirs   []string
	TemplateDir string
	// IgnorePatterns are regular expressions searched in the absolute path.
	// A pattern that does not compile is matched as a plain substring.
	IgnorePatterns []string
	// Exclude lists absolute paths never scanned, such as the output directory.
	Exclude     []string
	ContentGlob string
	OptionsFile string
	// Site is the root's combined options.
	Site *options.Map
}

// DefaultRules returns the rules used when nothing is configured.
func DefaultRules() Rules {
	return Rules{
		AssetDirs:   []string{"assets"},
		TemplateDir: "templates",
		ContentGlob: "*.md",
		OptionsFile: "folder.yml",
	}
}

type matcher func(path string) bool

func compileIgnores(patterns []string) []matcher {
	out := make([]matcher, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re.MatchString)
			continue
		}
		literal := p
		out = append(out, func(path string) bool { return strings.Contains(path, literal) })
	}
	return out
}

// Scan walks root and classifies every directory beneath it.
//
// Entries are visited in lexical order. Names starting with a dot and paths
// matched by an ignore pattern are skipped. Per directory the first matching
// kind wins: asset, template, entry (holds a qualifying content file), else
// enclosure, which is recursed into. Unreadable or malformed content files
// never fail the scan; they just do not qualify.
func Scan(root string, rules Rules) (*Tree, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", absRoot)
	}
	if rules.ContentGlob == "" {
		rules.ContentGlob = "*.md"
	}
	if rules.OptionsFile == "" {
		rules.OptionsFile = "folder.yml"
	}

	s := &scanner{
		root:     absRoot,
		rules:    rules,
		ignores:  compileIgnores(rules.IgnorePatterns),
		excluded: map[string]struct{}{},
		assets:   map[string]struct{}{},
	}
	for _, p := range rules.Exclude {
		if abs, err := filepath.Abs(p); err == nil {
			s.excluded[abs] = struct{}{}
		}
	}
	for _, a := range rules.AssetDirs {
		s.assets[cleanRel(a)] = struct{}{}
	}
	s.tree = newTree(absRoot, rules.Site, rules)

	if err := s.walk(absRoot); err != nil {
		return nil, err
	}
	return s.tree, nil
}

type scanner struct {
	root     string
	rules    Rules
	ignores  []matcher
	excluded map[string]struct{}
	assets   map[string]struct{}
	tree     *Tree
}

func (s *scanner) ignored(path string) bool {
	for _, m := range s.ignores {
		if m(path) {
			return true
		}
	}
	return false
}

func (s *scanner) walk(dir string) error {
	items, err := os.ReadDir(dir)
	if err != nil {
		if dir == s.root {
			return fmt.Errorf("read scan root: %w", err)
		}
		slog.Warn("Unreadable folder skipped", logfields.Path(dir), logfields.Error(err))
		return nil
	}
	for _, item := range items {
		if !item.IsDir() || strings.HasPrefix(item.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, item.Name())
		if _, skip := s.excluded[path]; skip {
			continue
		}
		if s.ignored(path) {
			slog.Info("User ignored folder", logfields.Path(path))
			continue
		}
		if err := s.classify(path); err != nil {
			return err
		}
	}
	return nil
}

func (s *scanner) classify(path string) error {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return fmt.Errorf("relative path for %s: %w", path, err)
	}
	rel = filepath.ToSlash(rel)

	if _, ok := s.assets[rel]; ok {
		s.tree.add(&AssetFolder{path: path, Rel: rel})
		slog.Debug("Found asset folder", logfields.Path(path))
		return nil
	}
	if rel == cleanRel(s.rules.TemplateDir) {
		s.tree.add(&TemplateFolder{path: path})
		slog.Debug("Found template folder", logfields.Path(path))
		return nil
	}
	if main, ok := s.findEntryFile(path); ok {
		s.tree.add(&EntryFolder{path: path, MainFile: main, optionSet: optionSet{tree: s.tree, dir: path}})
		slog.Debug("Found entry folder", logfields.Path(path), logfields.File(filepath.Base(main)))
		return nil
	}
	s.tree.add(&EnclosureFolder{path: path, optionSet: optionSet{tree: s.tree, dir: path}})
	slog.Debug("Found enclosure folder", logfields.Path(path))
	return s.walk(path)
}

func (s *scanner) findEntryFile(dir string) (string, bool) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, item := range items {
		if item.IsDir() || strings.HasPrefix(item.Name(), ".") {
			continue
		}
		if ok, _ := filepath.Match(s.rules.ContentGlob, item.Name()); !ok {
			continue
		}
		path := filepath.Join(dir, item.Name())
		if IsEntryFile(path) {
			return path, true
		}
	}
	return "", false
}

// IsEntryFile reports whether path holds a closed front-matter block that
// parses as a mapping with non-empty id and title.
func IsEntryFile(path string) bool {
	doc, err := frontmatter.ReadFile(path)
	if err != nil || !doc.Had {
		return false
	}
	return strings.TrimSpace(doc.Front.String("id")) != "" &&
		strings.TrimSpace(doc.Front.String("title")) != ""
}

func cleanRel(p string) string {
	return strings.Trim(filepath.ToSlash(filepath.Clean(p)), "/")
}
