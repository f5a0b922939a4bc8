package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sprintf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func TestIsPattern(t *testing.T) {
	tests := []struct {
		entry string
		want  bool
	}{
		{"open", false},
		{"ns::open", false},
		{"ns::*", true},
		{"fo?", true},
		{"[ab]ar", true},
		{"{a,b}", false},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPattern(tt.entry))
		})
	}
}

func TestNewExclusionPolicy_InvalidPattern(t *testing.T) {
	_, err := NewExclusionPolicy([]string{"ok", "bad[pattern"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Contains(t, err.Error(), "bad[pattern")
}

func TestExclusionPolicy_Match(t *testing.T) {
	policy, err := NewExclusionPolicy([]string{"b", "ns::exact", "io::*", "mem?et", "[xy]alloc"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		excluded bool
		kind     RuleKind
	}{
		{"b", true, RuleExact},
		{"B", false, 0},
		{"bb", false, 0},
		{"ns::exact", true, RuleExact},
		{"ns::exactly", false, 0},
		{"io::read", true, RulePattern},
		{"io::detail::read", true, RulePattern},
		{"memset", true, RulePattern},
		{"memcpy", false, 0},
		{"xalloc", true, RulePattern},
		{"zalloc", false, 0},
		{"stdout", true, RuleInternal},
		{"std::cout", true, RuleInternal},
		{"std::clog", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, excluded := policy.Match(tt.name)
			assert.Equal(t, tt.excluded, excluded)
			assert.Equal(t, tt.kind, rule.Kind)
			assert.Equal(t, tt.excluded, policy.IsExcluded(tt.name))
		})
	}
}

func TestExclusionPolicy_PatternOrderDoesNotMatter(t *testing.T) {
	entries := []string{"a::*", "*::run", "x?"}
	reversed := []string{"x?", "*::run", "a::*"}

	forward, err := NewExclusionPolicy(entries)
	require.NoError(t, err)
	backward, err := NewExclusionPolicy(reversed)
	require.NoError(t, err)

	for _, name := range []string{"a::run", "a::go", "b::run", "xy", "x", "b::walk"} {
		assert.Equal(t, forward.IsExcluded(name), backward.IsExcluded(name), name)
	}
}

func TestExclusionPolicy_InternalEntriesCannotBeReenabled(t *testing.T) {
	policy, err := NewExclusionPolicy(nil)
	require.NoError(t, err)

	for _, name := range []string{"environ", "stdin", "stdout", "stderr", "std::cin", "std::wcin", "std::cout", "std::wcout", "std::cerr", "std::wcerr"} {
		assert.True(t, policy.IsInternallyExcluded(name), name)
		assert.True(t, policy.IsExcluded(name), name)
	}
}

func TestRule_String(t *testing.T) {
	assert.Equal(t, "internal blacklist entry", Rule{Kind: RuleInternal}.String())
	assert.Equal(t, "blacklist entry", Rule{Kind: RuleExact, Text: "b"}.String())
	assert.Equal(t, `blacklist entry "io::*"`, Rule{Kind: RulePattern, Text: "io::*"}.String())
}

func TestExclusionPolicy_OperatorNames(t *testing.T) {
	tests := []struct {
		name     string
		entries  []string
		subject  string
		excluded bool
		rule     string
	}{
		{"division under namespace glob", []string{"ns::*"}, "ns::operator/", true, "ns::*"},
		{"compound division under namespace glob", []string{"ns::*"}, "ns::operator/=", true, "ns::*"},
		{"global division under star", []string{"*"}, "operator/", true, "*"},
		{"namespaced division under star", []string{"*"}, "ns::operator/=", true, "*"},
		{"question mark spans slash", []string{"ns::operator?"}, "ns::operator/", true, "ns::operator?"},
		{"literal slash in pattern", []string{"*operator/="}, "ns::operator/=", true, "*operator/="},
		{"other namespace", []string{"ns::*"}, "io::operator/", false, ""},
		{"call operator", []string{"ns::operator*"}, "ns::operator()", true, "ns::operator*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := NewExclusionPolicy(tt.entries)
			require.NoError(t, err)

			rule, excluded := policy.Match(tt.subject)
			assert.Equal(t, tt.excluded, excluded)
			assert.Equal(t, tt.rule, rule.Text)
		})
	}
}

func TestExclusionPolicy_Patterns(t *testing.T) {
	policy, err := NewExclusionPolicy([]string{"open", "ns::*", "a/b*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ns::*", "a/b*"}, policy.Patterns())

	var none *ExclusionPolicy
	assert.Nil(t, none.Patterns())
	assert.False(t, none.IsExcluded("open"))
	assert.True(t, none.IsExcluded("stdin"))
}
