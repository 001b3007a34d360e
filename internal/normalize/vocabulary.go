package normalize

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Vocabulary is the fixed word data a Normalizer is built from.
type Vocabulary struct {
	StopWords []string          `yaml:"stop_words"`
	Stems     map[string]string `yaml:"stems"`
}

// defaultStopWords covers legal suffixes, connectives, generic brewery terms
// and the geography tokens that produced false positives against the
// St. Louis export.
var defaultStopWords = []string{
	// legal suffixes
	"inc", "llc", "ltd", "limited", "corp", "corporation", "co", "company",
	"sa", "s.a.", "plc", "gmbh",
	// connectives
	"the", "and", "&", "of",
	// generic industry terms
	"brewing", "brewery", "breweries", "brewingco", "brew", "beer", "ale", "ales",
	"works", "beverage", "beverages", "bros", "brothers",
	"co-op", "coop", "cooperative",
	// geography
	"city", "st", "saint", "louis",
}

var defaultStems = map[string]string{
	"coors":     "coors",
	"bier":      "beer",
	"brewers":   "brewer",
	"brewing":   "brew",
	"brewery":   "brew",
	"breweries": "brew",
	"beverages": "beverage",
	"ales":      "ale",
	"bros":      "brothers",
}

// DefaultVocabulary returns a fresh copy of the built-in stop-word and stem tables.
func DefaultVocabulary() Vocabulary {
	stops := make([]string, len(defaultStopWords))
	copy(stops, defaultStopWords)
	stems := make(map[string]string, len(defaultStems))
	for k, v := range defaultStems {
		stems[k] = v
	}
	return Vocabulary{StopWords: stops, Stems: stems}
}

// LoadVocabulary reads a YAML vocabulary file:
//
//	stop_words: [inc, llc, ...]
//	stems:
//	  brewers: brewer
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, eris.Wrapf(err, "normalize: read vocabulary %s", path)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, eris.Wrapf(err, "normalize: parse vocabulary %s", path)
	}
	if len(v.StopWords) == 0 && len(v.Stems) == 0 {
		return Vocabulary{}, eris.Errorf("normalize: vocabulary %s is empty", path)
	}
	return v, nil
}
