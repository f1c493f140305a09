// Package normalize repairs encoding damage, folds typographic characters to
// their plain forms and standardizes punctuation and whitespace in candidate
// sentences so that word tokenization is consistent.
//
// Normalization is an ordered list of rules. Every rule is a total function,
// and the composition is idempotent: Apply(Apply(s)) == Apply(s).
package normalize

import (
	"regexp"
	"strings"
)

// Rule is one named normalization step.
type Rule struct {
	Name  string
	Apply func(string) string
}

// Normalizer applies its rules in order.
type Normalizer struct {
	rules []Rule
}

// New returns a Normalizer running DefaultRules.
func New() *Normalizer {
	return &Normalizer{rules: DefaultRules()}
}

// WithRules returns a Normalizer running rules in the given order.
func WithRules(rules ...Rule) *Normalizer {
	return &Normalizer{rules: rules}
}

// Apply normalizes s. It never fails.
func (n *Normalizer) Apply(s string) string {
	for _, r := range n.rules {
		s = r.Apply(s)
	}
	return s
}

// Rules returns the rules in application order.
func (n *Normalizer) Rules() []Rule {
	return append([]Rule(nil), n.rules...)
}

// mojibake maps punctuation that went through a UTF-8 → Windows-1252 → UTF-8
// round trip and was not caught by FixText.
var mojibake = strings.NewReplacer(
	"â€”", "-", // em dash
	"â€“", "-", // en dash
	"â€•", "-", // horizontal bar
	"â€¦", "...", // ellipsis
	"Â´", "'", // acute accent
)

var (
	punctRun      = regexp.MustCompile(`(-+|~+|!+|"+|;+|\?+|\++|,+|\)+|\(+|\\+|/+|\*+|\[+|\]+|\}+|\{+|\|+|_+)`)
	newlineSpaces = regexp.MustCompile(`\s*\n\s*`)
	blankRun      = regexp.MustCompile(`[^\S\n]+`)
	spacedNewline = regexp.MustCompile(` ?\n ?`)
)

// DefaultRules returns the corpus normalization pipeline.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "fix-text", Apply: FixText},
		{Name: "mojibake", Apply: mojibake.Replace},
		{Name: "space-punct", Apply: func(s string) string {
			return punctRun.ReplaceAllString(s, " ${1} ")
		}},
		{Name: "drop-underscore", Apply: func(s string) string {
			return strings.ReplaceAll(s, "_", "")
		}},
		{Name: "collapse-space", Apply: func(s string) string {
			s = newlineSpaces.ReplaceAllString(s, " \n ")
			return blankRun.ReplaceAllString(s, " ")
		}},
		// The spaces collapse-space put around a newline go with it, so a
		// second pass has nothing left to collapse.
		{Name: "newline-to-space", Apply: func(s string) string {
			return spacedNewline.ReplaceAllString(s, " ")
		}},
		{Name: "trim", Apply: strings.TrimSpace},
	}
}
