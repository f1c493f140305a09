package filter

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed noise.yaml
var defaultNoiseYAML []byte

// Rules lists the structural noise patterns.
type Rules struct {
	Contains          []string `yaml:"contains"`
	Prefixes          []string `yaml:"prefixes"`
	WholeWordPrefixes bool     `yaml:"whole_word_prefixes"`
}

// ParseRules decodes noise rules from YAML.
func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parsing noise rules: %w", err)
	}
	return r, nil
}

// DefaultRules returns the built-in noise rules.
func DefaultRules() Rules {
	r, err := ParseRules(defaultNoiseYAML)
	if err != nil {
		panic(err)
	}
	return r
}

// Noise matches sentences that are structural noise rather than prose.
type Noise struct {
	contains  []string
	prefixes  []string
	wholeWord bool
}

// NewNoise compiles rules. Patterns are lowercased to match the filter output.
func NewNoise(r Rules) *Noise {
	clean := func(list []string) []string {
		return lo.FilterMap(list, func(p string, _ int) (string, bool) {
			p = strings.ToLower(p)
			return p, p != ""
		})
	}
	return &Noise{
		contains:  clean(r.Contains),
		prefixes:  clean(r.Prefixes),
		wholeWord: r.WholeWordPrefixes,
	}
}

// Match reports whether sentence contains a noise substring or starts with a
// noise prefix.
func (n *Noise) Match(sentence string) bool {
	for _, c := range n.contains {
		if strings.Contains(sentence, c) {
			return true
		}
	}
	for _, p := range n.prefixes {
		if n.hasPrefix(sentence, p) {
			return true
		}
	}
	return false
}

func (n *Noise) hasPrefix(s, p string) bool {
	if !strings.HasPrefix(s, p) {
		return false
	}
	if !n.wholeWord || !isWord(p) {
		return true
	}
	return len(s) == len(p) || s[len(p)] == ' '
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
