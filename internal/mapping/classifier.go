package mapping

import (
	"fmt"
	"regexp"
	"strings"
)

// compiledRule holds a detection rule with its patterns compiled.
type compiledRule struct {
	patterns []*regexp.Regexp
	DetectionRule
}

// Classifier assigns column headers to target fields using an ordered rule catalogue.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules []compiledRule
}

type options struct {
	rules    []DetectionRule
	fallback bool
}

// Option configures a Classifier.
type Option func(*options)

// WithRules replaces the default detection catalogue.
func WithRules(rules []DetectionRule) Option {
	return func(o *options) {
		o.rules = rules
	}
}

// WithPositionalFallback enables or disables the generic column-name patterns
// ("column 1", "a", "1"). They are enabled by default.
func WithPositionalFallback(enabled bool) Option {
	return func(o *options) {
		o.fallback = enabled
	}
}

// NewClassifier compiles the rule catalogue. Patterns are case-insensitive.
func NewClassifier(opts ...Option) (*Classifier, error) {
	o := options{
		rules:    DefaultRules(),
		fallback: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	compiled := make([]compiledRule, 0, len(o.rules))
	for _, rule := range o.rules {
		sources := rule.Patterns
		if o.fallback {
			sources = append(append([]string{}, rule.Patterns...), rule.Fallback...)
		}

		cr := compiledRule{DetectionRule: rule}
		for _, src := range sources {
			if !strings.HasPrefix(src, "(?i)") {
				src = "(?i)" + src
			}
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, fmt.Errorf("failed to compile pattern %q for %s: %w", src, rule.Field, err)
			}
			cr.patterns = append(cr.patterns, re)
		}
		compiled = append(compiled, cr)
	}

	return &Classifier{rules: compiled}, nil
}

var defaultClassifier = mustClassifier()

func mustClassifier() *Classifier {
	c, err := NewClassifier()
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the classifier built from the default catalogue.
func Default() *Classifier {
	return defaultClassifier
}

// Classify returns the target field of the first rule matching header.
// Both the normalised and the raw header are tested.
func (c *Classifier) Classify(header string) (FieldID, bool) {
	normalized := NormalizeHeader(header)
	if normalized == "" {
		return "", false
	}

	for _, rule := range c.rules {
		for _, re := range rule.patterns {
			if re.MatchString(normalized) || re.MatchString(header) {
				return rule.Field, true
			}
		}
	}

	return "", false
}

// Rules returns the catalogue the classifier was built with.
func (c *Classifier) Rules() []DetectionRule {
	rules := make([]DetectionRule, 0, len(c.rules))
	for _, r := range c.rules {
		rules = append(rules, r.DetectionRule)
	}
	return rules
}

// Classify classifies header with the default classifier.
func Classify(header string) (FieldID, bool) {
	return defaultClassifier.Classify(header)
}

// NormalizeHeader trims a header, collapses inner whitespace and lower-cases it.
func NormalizeHeader(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}
