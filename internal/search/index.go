// Package search provides the in-memory paragraph index behind the menu
// assistant. The index is built once at startup from the café's Markdown
// menu/knowledge file and is immutable afterwards, so it is safe for
// concurrent request handlers without locking. It is intentionally small
// and dependency-free:
//
//   - No logging in the library (callers decide how/what to log)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Deterministic scoring and sorting (stable order for ties)
//   - Sensible defaults (paragraph filtering, result caps)
//   - Narrow Index interface (TopK(query, k int) []Result)
//
// Scoring uses Jaccard similarity between the query token set and each
// paragraph's token set: score = |Q ∩ P| / |Q ∪ P|.
package search

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Result is a ranked snippet with its similarity score.
type Result struct {
	Snippet string
	Score   float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// defaultTopK is used when TopK is called with a non-positive k.
const defaultTopK = 3

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minParagraphRunes int
	stopwords         map[string]struct{}
	maxDocs           int
}

func defaultConfig() config {
	return config{
		minParagraphRunes: 40,
		stopwords:         nil,
		maxDocs:           0,
	}
}

// WithMinParagraphRunes drops paragraphs shorter than n runes. Negative
// values are ignored; 0 disables the filter.
func WithMinParagraphRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minParagraphRunes = n
		}
	}
}

// WithStopwords removes the given words from both paragraphs and queries
// before scoring. Words are trimmed and lowercased; an empty list is a no-op.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps how many paragraphs are indexed. Non-positive values are
// ignored (no cap).
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type passage struct {
	text   string
	tokens map[string]struct{}
	nTok   int
}

type index struct {
	cfg      config
	passages []passage
}

// NewIndexFromMarkdown builds an Index by reading the Markdown at path and
// delegating to NewIndexFromReader.
func NewIndexFromMarkdown(path string, opts ...Option) (Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return &index{cfg: defaultConfig()}, err
	}
	return NewIndexFromReader(bytes.NewReader(b), opts...)
}

// NewIndexFromReader builds an Index from UTF-8 text provided by r. The
// reader is fully consumed; paragraphs are split on blank lines.
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	all, err := io.ReadAll(r)
	if err != nil {
		return &index{cfg: cfg}, err
	}
	return buildIndex(splitParagraphs(all), cfg), nil
}

// NewIndexFromStrings builds an Index directly from a slice of paragraphs.
func NewIndexFromStrings(paragraphs []string, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return buildIndex(paragraphs, cfg)
}

func buildIndex(paragraphs []string, cfg config) *index {
	ps := make([]passage, 0, len(paragraphs))
	for _, raw := range paragraphs {
		t := strings.TrimSpace(normalizeWhitespace(raw))
		if t == "" {
			continue
		}
		if cfg.minParagraphRunes > 0 && utf8.RuneCountInString(t) < cfg.minParagraphRunes {
			continue
		}
		toks := tokenize(t, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		ps = append(ps, passage{text: t, tokens: toks, nTok: len(toks)})
		if cfg.maxDocs > 0 && len(ps) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, passages: ps}
}

// TopK returns up to k best-matching paragraphs by Jaccard similarity.
func (i *index) TopK(q string, k int) []Result {
	if len(i.passages) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = defaultTopK
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type candidate struct {
		snippet  string
		score    float64
		lenRunes int
	}

	cands := make([]candidate, 0, min(k*4, len(i.passages)))
	for _, p := range i.passages {
		over := overlap(qTokens, p.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + p.nTok - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= 0 {
			continue
		}
		cands = append(cands, candidate{
			snippet:  p.text,
			score:    score,
			lenRunes: utf8.RuneCountInString(p.text),
		})
	}
	if len(cands) == 0 {
		return nil
	}

	// Ties prefer the shorter snippet, then lexicographic order, so results
	// are stable run to run.
	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].score != cands[b].score {
			return cands[a].score > cands[b].score
		}
		if cands[a].lenRunes != cands[b].lenRunes {
			return cands[a].lenRunes < cands[b].lenRunes
		}
		return cands[a].snippet < cands[b].snippet
	})

	if k > len(cands) {
		k = len(cands)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = Result{Snippet: cands[n].snippet, Score: cands[n].score}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

var paraSplitRE = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(all []byte) []string {
	chunks := paraSplitRE.Split(string(all), -1)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
