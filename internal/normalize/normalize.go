// Package normalize turns free-text company names into comparable token sets
// and alphanumeric fingerprints.
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name is the normalized form of a raw company name.
type Name struct {
	// Tokens are unique, lowercase, stop-word free and stemmed, in
	// first-occurrence order.
	Tokens []string `json:"tokens"`
	// Fingerprint is the lowercase alphanumeric-only form of the raw name.
	Fingerprint string `json:"fingerprint"`
}

// Empty reports whether the name produced neither tokens nor a fingerprint.
func (n Name) Empty() bool {
	return len(n.Tokens) == 0 && n.Fingerprint == ""
}

// Normalizer applies a fixed Vocabulary. It is immutable after construction
// and safe for concurrent use.
type Normalizer struct {
	stop  map[string]struct{}
	stems map[string]string
}

// New builds a Normalizer from v. The vocabulary is copied.
func New(v Vocabulary) *Normalizer {
	n := &Normalizer{
		stop:  make(map[string]struct{}, len(v.StopWords)),
		stems: make(map[string]string, len(v.Stems)),
	}
	for _, w := range v.StopWords {
		n.stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	for k, s := range v.Stems {
		n.stems[strings.ToLower(k)] = strings.ToLower(s)
	}
	return n
}

// Default returns a Normalizer over DefaultVocabulary.
func Default() *Normalizer {
	return New(DefaultVocabulary())
}

// Normalize returns the token sequence and fingerprint for raw.
// Empty or punctuation-only input yields an empty Name.
func (n *Normalizer) Normalize(raw string) Name {
	folded := fold(raw)

	words := strings.FieldsFunc(folded, func(r rune) bool { return !isASCIIAlnum(r) })
	seen := make(map[string]struct{}, len(words))
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := n.stop[w]; stop {
			continue
		}
		if s, ok := n.stems[w]; ok {
			w = s
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}

	return Name{Tokens: tokens, Fingerprint: fingerprintOf(folded)}
}

// Fingerprint returns only the alphanumeric fingerprint of raw.
func Fingerprint(raw string) string {
	return fingerprintOf(fold(raw))
}

func fingerprintOf(folded string) string {
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if isASCIIAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fold strips diacritics and lowercases.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// Cache memoizes Normalize results per raw string.
type Cache struct {
	n  *Normalizer
	mu sync.RWMutex
	m  map[string]Name
}

// NewCache wraps n with a memo table.
func NewCache(n *Normalizer) *Cache {
	return &Cache{n: n, m: make(map[string]Name)}
}

// Normalize returns the cached Name for raw, computing it on first use.
func (c *Cache) Normalize(raw string) Name {
	c.mu.RLock()
	name, ok := c.m[raw]
	c.mu.RUnlock()
	if ok {
		return name
	}

	name = c.n.Normalize(raw)
	c.mu.Lock()
	c.m[raw] = name
	c.mu.Unlock()
	return name
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
