package comparator

import (
	"strconv"
	"strings"
)

const defaultEpsilon = 1e-9

// Comparator decides actual-vs-expected equality for one test case.
//
// Both sides are normalized (surrounding whitespace trimmed, line endings
// unified) and then compared in three tiers: structural JSON comparison when
// both sides parse as JSON, numeric comparison within epsilon when both sides
// parse as numbers, exact string equality otherwise. Grading correctness is
// entirely a function of this rule, so the tiers must not be reordered.
type Comparator struct {
	epsilon float64
}

func NewComparator() *Comparator {
	return &Comparator{epsilon: defaultEpsilon}
}

// Matches reports whether actual satisfies expected.
func (c *Comparator) Matches(actual, expected string) bool {
	actual = normalize(actual)
	expected = normalize(expected)

	if av, aok := parseJSON(actual); aok {
		if ev, eok := parseJSON(expected); eok {
			return equal(av, ev, c.epsilon)
		}
	}

	if af, aerr := strconv.ParseFloat(actual, 64); aerr == nil {
		if ef, eerr := strconv.ParseFloat(expected, 64); eerr == nil {
			return equal(Value{Kind: Number, Number: af}, Value{Kind: Number, Number: ef}, c.epsilon)
		}
	}

	return actual == expected
}

// normalize trims surrounding whitespace and unifies line endings.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}
