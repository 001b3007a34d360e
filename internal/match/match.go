// Package match finds the best candidate record for a company name using a
// tiered policy over normalized tokens and fingerprints.
package match

import (
	"math"
	"strings"

	"github.com/sells-group/reconcile-cli/internal/normalize"
)

// Candidate is a record that a query can match against. Build candidates
// once per run; they are read-only afterwards.
type Candidate struct {
	DisplayName string
	Name        normalize.Name
	Payload     any
}

// NewCandidate normalizes display with n.
func NewCandidate(n *normalize.Normalizer, display string, payload any) Candidate {
	return Candidate{DisplayName: display, Name: n.Normalize(display), Payload: payload}
}

// NewCandidates builds one candidate per name. payloads may be nil or
// shorter than names; missing payloads are nil.
func NewCandidates(n *normalize.Normalizer, names []string, payloads []any) []Candidate {
	out := make([]Candidate, len(names))
	for i, name := range names {
		var p any
		if i < len(payloads) {
			p = payloads[i]
		}
		out[i] = NewCandidate(n, name, p)
	}
	return out
}

// Result is the outcome of one Match call. Candidate is nil exactly when
// Tier is TierNone, in which case Score is 0.
type Result struct {
	Candidate *Candidate
	Score     float64
	Tier      Tier
}

// Matched reports whether a candidate was selected.
func (r Result) Matched() bool {
	return r.Candidate != nil
}

// Rounded returns Score rounded to two decimals for reports.
func (r Result) Rounded() float64 {
	return math.Round(r.Score*100) / 100
}

// Options holds the matcher thresholds.
type Options struct {
	// HighCoverage is the coverage at which a match is accepted outright.
	HighCoverage float64 `mapstructure:"high_coverage"`
	// BestEffort is the lowest coverage that can match at all.
	BestEffort float64 `mapstructure:"best_effort"`
	// MinContainsLen is the minimum length of the longer fingerprint for a
	// substring match.
	MinContainsLen int `mapstructure:"min_contains_len"`
	// MinDistinctiveLen is the shortest shared token that counts as
	// distinctive overlap.
	MinDistinctiveLen int `mapstructure:"min_distinctive_len"`
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		HighCoverage:      0.9,
		BestEffort:        0.75,
		MinContainsLen:    8,
		MinDistinctiveLen: 4,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HighCoverage <= 0 {
		o.HighCoverage = d.HighCoverage
	}
	if o.BestEffort <= 0 {
		o.BestEffort = d.BestEffort
	}
	if o.MinContainsLen <= 0 {
		o.MinContainsLen = d.MinContainsLen
	}
	if o.MinDistinctiveLen <= 0 {
		o.MinDistinctiveLen = d.MinDistinctiveLen
	}
	return o
}

// Pair is a query/candidate comparison with its shared measures computed.
type Pair struct {
	Query     normalize.Name
	Candidate normalize.Name
	// Coverage is |query ∩ candidate| / |query| over distinct tokens, 0 when
	// the query has no tokens.
	Coverage float64
	// Distinctive is true when a shared token is at least MinDistinctiveLen long.
	Distinctive bool
}

func newPair(q, c normalize.Name, o Options) Pair {
	p := Pair{Query: q, Candidate: c}
	if len(q.Tokens) == 0 {
		return p
	}
	set := make(map[string]struct{}, len(c.Tokens))
	for _, t := range c.Tokens {
		set[t] = struct{}{}
	}
	shared := 0
	for _, t := range q.Tokens {
		if _, ok := set[t]; !ok {
			continue
		}
		shared++
		if len(t) >= o.MinDistinctiveLen {
			p.Distinctive = true
		}
	}
	p.Coverage = float64(shared) / float64(len(q.Tokens))
	return p
}

// Rule is one tier of the policy. Score reports whether the pair satisfies
// the tier and with what score. A satisfied Terminal rule ends the scan;
// otherwise the best score seen so far is kept and scanning continues.
type Rule struct {
	Tier     Tier
	Terminal bool
	Score    func(p Pair, o Options) (float64, bool)
}

// DefaultRules returns the policy in precedence order.
func DefaultRules() []Rule {
	return []Rule{
		{Tier: TierExact, Terminal: true, Score: exact},
		{Tier: TierContains, Terminal: true, Score: contains},
		{Tier: TierHighCoverage, Terminal: true, Score: highCoverage},
		{Tier: TierBestEffort, Terminal: false, Score: bestEffort},
	}
}

func exact(p Pair, _ Options) (float64, bool) {
	fq, fc := p.Query.Fingerprint, p.Candidate.Fingerprint
	return 1.0, fq != "" && fq == fc
}

func contains(p Pair, o Options) (float64, bool) {
	fq, fc := p.Query.Fingerprint, p.Candidate.Fingerprint
	if fq == "" || fc == "" || !p.Distinctive {
		return 0, false
	}
	longer, shorter := fq, fc
	if len(fc) > len(fq) {
		longer, shorter = fc, fq
	}
	if len(longer) < o.MinContainsLen {
		return 0, false
	}
	return 0.95, strings.Contains(longer, shorter)
}

func highCoverage(p Pair, o Options) (float64, bool) {
	return p.Coverage, p.Distinctive && p.Coverage >= o.HighCoverage
}

func bestEffort(p Pair, o Options) (float64, bool) {
	return p.Coverage, p.Distinctive && p.Coverage >= o.BestEffort
}

// Matcher evaluates rules against candidates in order. It is safe for
// concurrent use.
type Matcher struct {
	names *normalize.Cache
	opts  Options
	rules []Rule
}

// New returns a Matcher using DefaultRules. Zero option fields take defaults.
func New(n *normalize.Normalizer, opts Options) *Matcher {
	return NewWithRules(n, opts, DefaultRules())
}

// NewWithRules returns a Matcher with a custom policy.
func NewWithRules(n *normalize.Normalizer, opts Options, rules []Rule) *Matcher {
	return &Matcher{
		names: normalize.NewCache(n),
		opts:  opts.withDefaults(),
		rules: rules,
	}
}

// Options returns the effective thresholds.
func (m *Matcher) Options() Options {
	return m.opts
}

// Match normalizes query and scans candidates. Per candidate the first
// satisfied rule decides; a terminal rule returns immediately, a
// non-terminal one replaces the running best only with a strictly higher
// score, so ties go to the earlier candidate.
func (m *Matcher) Match(query string, candidates []Candidate) Result {
	return m.MatchName(m.names.Normalize(query), candidates)
}

// MatchName is Match for an already normalized query.
func (m *Matcher) MatchName(q normalize.Name, candidates []Candidate) Result {
	var best Result
	for i := range candidates {
		c := &candidates[i]
		p := newPair(q, c.Name, m.opts)
		for _, r := range m.rules {
			score, ok := r.Score(p, m.opts)
			if !ok {
				continue
			}
			if r.Terminal {
				return Result{Candidate: c, Score: score, Tier: r.Tier}
			}
			if best.Candidate == nil || score > best.Score {
				best = Result{Candidate: c, Score: score, Tier: r.Tier}
			}
			break
		}
	}
	return best
}
