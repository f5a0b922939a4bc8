package domain

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// internalBlacklist names entities that are never mocked. Replacing them
// breaks the test runner that executes the generated code.
var internalBlacklist = map[string]struct{}{
	"environ":    {},
	"stdin":      {},
	"stdout":     {},
	"stderr":     {},
	"std::cin":   {},
	"std::wcin":  {},
	"std::cout":  {},
	"std::wcout": {},
	"std::cerr":  {},
	"std::wcerr": {},
}

// RuleKind identifies the kind of rule that excluded a name.
type RuleKind int

// Exclusion rule kinds in evaluation order.
const (
	RuleInternal RuleKind = iota + 1
	RuleExact
	RulePattern
)

// Rule is the exclusion rule that decided about a name.
type Rule struct {
	Kind RuleKind
	Text string
}

func (r Rule) String() string {
	switch r.Kind {
	case RuleInternal:
		return "internal blacklist entry"
	case RulePattern:
		return fmt.Sprintf("blacklist entry %q", r.Text)
	default:
		return "blacklist entry"
	}
}

// ExclusionPolicy decides whether a fully qualified name must not be mocked.
// It is built once per run and read-only afterwards.
type ExclusionPolicy struct {
	exact    map[string]struct{}
	patterns []globPattern
}

type globPattern struct {
	text    string
	matcher string
}

// slashStandIn replaces '/' in patterns and names before matching; wildcards
// must span the '/' of operator/ and operator/=. The private use rune never
// appears in a C or C++ name.
const slashStandIn = "\uE000"

func withoutSlash(s string) string {
	return strings.ReplaceAll(s, "/", slashStandIn)
}

// IsPattern reports whether a blacklist entry is a glob rather than a name.
func IsPattern(entry string) bool {
	return strings.ContainsAny(entry, "?*[")
}

// NewExclusionPolicy splits blacklist entries into exact names and glob
// patterns. An invalid pattern is reported as ErrInvalidPattern.
func NewExclusionPolicy(entries []string) (*ExclusionPolicy, error) {
	p := &ExclusionPolicy{exact: make(map[string]struct{}, len(entries))}

	for _, entry := range entries {
		if !IsPattern(entry) {
			p.exact[entry] = struct{}{}
			continue
		}

		matcher := withoutSlash(entry)
		if !doublestar.ValidatePattern(matcher) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, entry)
		}

		p.patterns = append(p.patterns, globPattern{text: entry, matcher: matcher})
	}

	return p, nil
}

// IsInternallyExcluded reports whether name is on the fixed internal list.
func (p *ExclusionPolicy) IsInternallyExcluded(name string) bool {
	_, ok := internalBlacklist[name]
	return ok
}

// Match returns the first rule excluding name. Internal entries are checked
// first, then exact names, then patterns in configuration order.
func (p *ExclusionPolicy) Match(name string) (Rule, bool) {
	if p.IsInternallyExcluded(name) {
		return Rule{Kind: RuleInternal, Text: name}, true
	}

	if p == nil {
		return Rule{}, false
	}

	if _, ok := p.exact[name]; ok {
		return Rule{Kind: RuleExact, Text: name}, true
	}

	subject := withoutSlash(name)

	for _, pattern := range p.patterns {
		// Patterns were validated on construction.
		if ok, _ := doublestar.Match(pattern.matcher, subject); ok {
			return Rule{Kind: RulePattern, Text: pattern.text}, true
		}
	}

	return Rule{}, false
}

// IsExcluded reports whether any rule excludes name.
func (p *ExclusionPolicy) IsExcluded(name string) bool {
	_, ok := p.Match(name)
	return ok
}

// Patterns returns the glob entries in configuration order.
func (p *ExclusionPolicy) Patterns() []string {
	if p == nil {
		return nil
	}

	out := make([]string, 0, len(p.patterns))
	for _, pattern := range p.patterns {
		out = append(out, pattern.text)
	}

	return out
}
