package search

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeMenuTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestPrepareMarkdownInMemory_MissingFile(t *testing.T) {
	_, err := PrepareMarkdownInMemory(filepath.Join(t.TempDir(), "nope.md"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestPrepareMarkdownInMemory_NoTransformReturnsOriginal(t *testing.T) {
	// Only blanks and a lone "text" line: nothing is emitted and no table
	// was seen, so the original bytes come back verbatim.
	dir := t.TempDir()
	orig := "\n   \n  text  \n\n"
	p := writeMenuTemp(t, dir, "a.md", orig)

	got, err := PrepareMarkdownInMemory(p)
	if err != nil {
		t.Fatalf("PrepareMarkdownInMemory error: %v", err)
	}
	if string(got) != orig {
		t.Fatalf("expected original bytes, got %q", string(got))
	}
}

func TestPrepareMarkdownInMemory_ProseLinesFlattened(t *testing.T) {
	dir := t.TempDir()
	in := "  Our espresso is pulled to order.  \n\n   Oat milk is free.   \n"
	// Each prose line becomes one fact followed by a blank separator.
	want := "Our espresso is pulled to order.\n\nOat milk is free.\n\n"
	p := writeMenuTemp(t, dir, "b.md", in)

	got, err := PrepareMarkdownInMemory(p)
	if err != nil {
		t.Fatalf("PrepareMarkdownInMemory error: %v", err)
	}
	if string(got) != want {
		t.Fatalf("flatten mismatch:\nwant:\n%q\ngot:\n%q", want, string(got))
	}
}

func TestPrepareMarkdownInMemory_TableFlattening(t *testing.T) {
	dir := t.TempDir()
	in := `
| text | price |
| --- | --- |
| Latte | 4.50 |
| text |
| Cortado |
| Mocha |  | 5.25 |
Seasonal drinks rotate monthly.
`
	// The separator row is skipped, a single-cell "text" row is dropped,
	// empty cells vanish, and the prose line survives as its own fact.
	want := strings.Join([]string{
		"text price",
		"",
		"Latte 4.50",
		"",
		"Cortado",
		"",
		"Mocha 5.25",
		"",
		"Seasonal drinks rotate monthly.",
		"",
	}, "\n")

	p := writeMenuTemp(t, dir, "c.md", in)

	got, err := PrepareMarkdownInMemory(p)
	if err != nil {
		t.Fatalf("PrepareMarkdownInMemory error: %v", err)
	}
	if string(got) != want {
		t.Fatalf("table flattening mismatch:\nwant:\n%q\ngot:\n%q", want, string(got))
	}
}

func TestPrepareMarkdownInMemory_ScannerErrTooLong(t *testing.T) {
	// The scanner caps tokens at 4 MiB; one longer line must surface an error.
	dir := t.TempDir()
	huge := strings.Repeat("a", 4*1024*1024+10)
	p := writeMenuTemp(t, dir, "huge.md", huge)

	if _, err := PrepareMarkdownInMemory(p); err == nil {
		t.Fatalf("expected scanner error for overly long line")
	}
}
