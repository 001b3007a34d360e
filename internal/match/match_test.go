package match

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reconcile-cli/internal/normalize"
)

func newMatcher() *Matcher {
	return New(normalize.Default(), Options{})
}

func candidates(names ...string) []Candidate {
	return NewCandidates(normalize.Default(), names, nil)
}

// words returns n distinct four-plus character tokens.
func words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%03dx", i)
	}
	return out
}

func reversed(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

func TestMatch_Exact(t *testing.T) {
	res := newMatcher().Match("Urban Chestnut Brewing Co.", candidates("Civil Life", "urban-chestnut brewing co"))
	require.True(t, res.Matched())
	assert.Equal(t, TierExact, res.Tier)
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, "urban-chestnut brewing co", res.Candidate.DisplayName)
}

func TestMatch_ExactIgnoresDistinctiveGuard(t *testing.T) {
	res := newMatcher().Match("ABC Co", candidates("abc co."))
	assert.Equal(t, TierExact, res.Tier)
}

func TestMatch_ExactTerminatesScan(t *testing.T) {
	cs := candidates("Side Project Brewing", "Side Project Brewing")
	res := newMatcher().Match("Side Project Brewing", cs)
	assert.Same(t, &cs[0], res.Candidate)
}

func TestMatch_Contains(t *testing.T) {
	res := newMatcher().Match("Perennial Artisan Ales", candidates("Perennial Artisan Ales Taproom"))
	assert.Equal(t, TierContains, res.Tier)
	assert.Equal(t, 0.95, res.Score)
}

func TestMatch_ContainsEitherDirection(t *testing.T) {
	res := newMatcher().Match("Perennial Artisan Ales Taproom", candidates("Perennial Artisan Ales"))
	assert.Equal(t, TierContains, res.Tier)
}

func TestMatch_ContainsLengthGuard(t *testing.T) {
	// "haus" sits inside "hausco" but the longer fingerprint is under 8.
	res := newMatcher().Match("Haus", candidates("Haus Co"))
	assert.Equal(t, TierHighCoverage, res.Tier)

	loose := New(normalize.Default(), Options{MinContainsLen: 4})
	res = loose.Match("Haus", candidates("Haus Co"))
	assert.Equal(t, TierContains, res.Tier)
}

func TestMatch_ContainsNeedsDistinctiveOverlap(t *testing.T) {
	// "abcde" is inside the candidate fingerprint but shares no token.
	res := newMatcher().Match("ABC DE", candidates("XYZ ABCDE Holdings"))
	assert.Equal(t, TierNone, res.Tier)
}

func TestMatch_HighCoverageEndToEnd(t *testing.T) {
	cs := candidates("The Saint Louis Brewery dba Schlafly", "Schlafly Tap Room")
	res := newMatcher().Match("Schlafly Beer", cs)

	require.True(t, res.Matched())
	assert.Equal(t, TierHighCoverage, res.Tier)
	assert.Equal(t, 1.0, res.Score)
	assert.Same(t, &cs[0], res.Candidate, "scan stops at the first high-coverage candidate")
}

func TestMatch_HighCoverageBoundary(t *testing.T) {
	w := words(10)
	q := strings.Join(w, " ")
	c := strings.Join(reversed(w[:9]), " ") // 9 of 10 shared

	cs := candidates(c, strings.Join(reversed(w), " "))
	res := newMatcher().Match(q, cs)
	assert.Equal(t, TierHighCoverage, res.Tier)
	assert.Equal(t, 0.9, res.Score)
	assert.Same(t, &cs[0], res.Candidate)
}

func TestMatch_BestEffortBoundary(t *testing.T) {
	w := words(4)
	res := newMatcher().Match(strings.Join(w, " "), candidates(strings.Join(reversed(w[:3]), " ")))
	assert.Equal(t, TierBestEffort, res.Tier)
	assert.Equal(t, 0.75, res.Score)
}

func TestMatch_BelowBestEffort(t *testing.T) {
	w := words(100)
	q := strings.Join(w, " ")
	c := strings.Join(reversed(w[:74]), " ") // 0.74
	res := newMatcher().Match(q, candidates(c))
	assert.Equal(t, TierNone, res.Tier)
	assert.Zero(t, res.Score)
	assert.Nil(t, res.Candidate)
}

func TestMatch_BestEffortKeepsMaxAndContinues(t *testing.T) {
	w := words(10)
	q := strings.Join(w, " ")
	cs := candidates(
		strings.Join(reversed(w[:8]), " "), // 0.8
		strings.Join(reversed(w[2:]), " "), // 0.8, tie keeps the first
		"Unrelated Holdings",
		strings.Join(reversed(w[1:]), " "), // 0.9, high coverage ends the scan
	)
	res := newMatcher().Match(q, cs)
	assert.Equal(t, TierHighCoverage, res.Tier)
	assert.Same(t, &cs[3], res.Candidate)

	res = newMatcher().Match(q, cs[:3])
	assert.Equal(t, TierBestEffort, res.Tier)
	assert.Equal(t, 0.8, res.Score)
	assert.Same(t, &cs[0], res.Candidate)
}

func TestMatch_BestEffortPrefersHigherLater(t *testing.T) {
	w := words(20)
	q := strings.Join(w, " ")
	cs := candidates(
		strings.Join(reversed(w[:15]), " "), // 0.75
		strings.Join(reversed(w[:17]), " "), // 0.85
	)
	res := newMatcher().Match(q, cs)
	assert.Equal(t, TierBestEffort, res.Tier)
	assert.Equal(t, 0.85, res.Score)
	assert.Same(t, &cs[1], res.Candidate)
}

func TestMatch_ShortTokensNeverMatch(t *testing.T) {
	// Full coverage, but every shared token is shorter than four characters.
	res := newMatcher().Match("MO KC Tap", candidates("Tap KC MO Yard"))
	assert.Equal(t, TierNone, res.Tier)
	assert.Zero(t, res.Score)
}

func TestMatch_TierPrecedence(t *testing.T) {
	// This pair satisfies exact, contains and high-coverage; exact wins.
	res := newMatcher().Match("Earthbound Beer", candidates("EARTHBOUND BEER"))
	assert.Equal(t, TierExact, res.Tier)
	assert.Equal(t, 1.0, res.Score)

	// Contains and high-coverage both hold; contains wins.
	res = newMatcher().Match("Earthbound Beer", candidates("Earthbound Beer Company"))
	assert.Equal(t, TierContains, res.Tier)
	assert.Equal(t, 0.95, res.Score)
}

func TestMatch_NoMatch(t *testing.T) {
	res := newMatcher().Match("Riverside Taproom", candidates("Schlafly Beer", "4 Hands Brewing Co.", "Civil Life"))
	assert.Equal(t, TierNone, res.Tier)
	assert.Zero(t, res.Score)
	assert.False(t, res.Matched())
}

func TestMatch_EmptyQueryTokens(t *testing.T) {
	// All stop-words: coverage is 0, only fingerprints can match.
	res := newMatcher().Match("The Brewing Company", candidates("Brewing Company Works"))
	assert.Equal(t, TierNone, res.Tier)

	res = newMatcher().Match("The Brewing Company", candidates("the brewing company"))
	assert.Equal(t, TierExact, res.Tier)
}

func TestMatch_EmptyInputs(t *testing.T) {
	assert.Equal(t, TierNone, newMatcher().Match("", candidates("", "Civil Life")).Tier)
	assert.Equal(t, TierNone, newMatcher().Match("Civil Life", nil).Tier)
}

func TestMatch_PayloadCarried(t *testing.T) {
	cs := NewCandidates(normalize.Default(), []string{"Civil Life Brewing", "Side Project"}, []any{3, 7})
	res := newMatcher().Match("Side Project", cs)
	require.True(t, res.Matched())
	assert.Equal(t, 7, res.Candidate.Payload)

	cs = NewCandidates(normalize.Default(), []string{"A Place", "B Place"}, []any{1})
	assert.Nil(t, cs[1].Payload)
}

func TestMatch_CustomRules(t *testing.T) {
	rules := []Rule{{Tier: TierExact, Terminal: true, Score: exact}}
	m := NewWithRules(normalize.Default(), Options{}, rules)
	res := m.Match("Earthbound Beer", candidates("Earthbound Beer Company"))
	assert.Equal(t, TierNone, res.Tier)
}

func TestMatch_Concurrent(t *testing.T) {
	m := newMatcher()
	cs := candidates("The Saint Louis Brewery dba Schlafly", "Civil Life", "Perennial Artisan Ales Taproom")
	queries := map[string]Tier{
		"Schlafly Beer":           TierHighCoverage,
		"Civil Life":              TierExact,
		"Perennial Artisan Ales":  TierContains,
		"Riverside Taproom Co-op": TierNone,
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for q, want := range queries {
			wg.Add(1)
			go func(q string, want Tier) {
				defer wg.Done()
				assert.Equal(t, want, m.Match(q, cs).Tier, q)
			}(q, want)
		}
	}
	wg.Wait()
}

func TestOptions_Defaults(t *testing.T) {
	m := New(normalize.Default(), Options{BestEffort: 0.5})
	o := m.Options()
	assert.Equal(t, 0.5, o.BestEffort)
	assert.Equal(t, 0.9, o.HighCoverage)
	assert.Equal(t, 8, o.MinContainsLen)
	assert.Equal(t, 4, o.MinDistinctiveLen)
}

func TestResult_Rounded(t *testing.T) {
	assert.Equal(t, 0.83, Result{Score: 5.0 / 6.0}.Rounded())
	assert.Equal(t, 0.0, Result{}.Rounded())
}

func TestTier_Text(t *testing.T) {
	b, err := json.Marshal(map[string]Tier{"tier": TierHighCoverage})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"high-coverage"}`, string(b))

	var got struct{ Tier Tier }
	require.NoError(t, json.Unmarshal([]byte(`{"Tier":"best-effort"}`), &got))
	assert.Equal(t, TierBestEffort, got.Tier)

	assert.Error(t, json.Unmarshal([]byte(`{"Tier":"fuzzy"}`), &got))
	assert.Equal(t, "unknown", Tier(42).String())
	_, err = Tier(42).MarshalText()
	assert.Error(t, err)
}
