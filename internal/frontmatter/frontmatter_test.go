package frontmatter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\nkey: value\n# Title\n")

	_, _, had, err := Split(input)
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\n# Title\r\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock_SplitsAsHadWithEmptyFrontmatter(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nid: a\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("id: a\n"), fm)
	require.Empty(t, body)
}

func TestSplit_DelimiterMustBeWholeLine(t *testing.T) {
	_, _, _, err := Split([]byte("---\nid: a\n----\nbody --- here\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)

	_, body, had, err := Split([]byte("--- \nid: a\n---\n"))
	require.NoError(t, err)
	require.False(t, had)
	require.NotEmpty(t, body)
}

func TestSplit_BodyKeepsLaterDelimiters(t *testing.T) {
	_, body, _, err := Split([]byte("---\nid: a\n---\nintro\n---\nmore\n"))
	require.NoError(t, err)
	require.Equal(t, "intro\n---\nmore\n", string(body))
}

func TestParseYAML_ValidYAML_ReturnsOrderedMap(t *testing.T) {
	fields, err := ParseYAML([]byte("uid: abc\ntags:\n  - one\n"))
	require.NoError(t, err)
	require.Equal(t, "abc", fields.String("uid"))
	require.Equal(t, []string{"one"}, fields.Strings("tags"))
	require.Equal(t, []string{"uid", "tags"}, fields.Keys())
}

func TestParseYAML_Empty_ReturnsEmptyMap(t *testing.T) {
	fields, err := ParseYAML(nil)
	require.NoError(t, err)
	require.Equal(t, 0, fields.Len())
}

func TestParseYAML_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := ParseYAML([]byte("key: [unclosed\n"))
	require.Error(t, err)
}

func TestParseYAML_ScalarIsNotMapping(t *testing.T) {
	_, err := ParseYAML([]byte("just a sentence\n"))
	require.ErrorIs(t, err, ErrNotMapping)
}

func TestReadFile_ParsesHeaderAndBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.md")
	require.NoError(t, os.WriteFile(path, []byte("---\nid: hello\ntitle: Hi\n---\n# Hello\n"), 0o600))

	doc, err := ReadFile(path)
	require.NoError(t, err)
	require.True(t, doc.Had)
	require.Equal(t, "hello", doc.Front.String("id"))
	require.Equal(t, "# Hello\n", string(doc.Body))
}
