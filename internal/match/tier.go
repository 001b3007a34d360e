package match

import (
	"github.com/rotisserie/eris"
)

// Tier is the confidence class of a match.
type Tier int

// Tiers in precedence order after TierNone.
const (
	TierNone Tier = iota
	TierExact
	TierContains
	TierHighCoverage
	TierBestEffort
)

var tierNames = map[Tier]string{
	TierNone:         "none",
	TierExact:        "exact",
	TierContains:     "contains",
	TierHighCoverage: "high-coverage",
	TierBestEffort:   "best-effort",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	if _, ok := tierNames[t]; !ok {
		return nil, eris.Errorf("match: unknown tier %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	for k, v := range tierNames {
		if v == string(b) {
			*t = k
			return nil
		}
	}
	return eris.Errorf("match: unknown tier %q", string(b))
}
