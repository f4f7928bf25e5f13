package scorer_test

import (
	"testing"

	. "github.com/codelab-edu/grader/internal/scorer"
)

func TestScore_Percentages(t *testing.T) {
	cases := []struct {
		passed, total, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{5, 5, 100},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds half-up
		{3, 8, 38}, // 37.5 rounds half-up
	}
	for _, c := range cases {
		if got := Score(c.passed, c.total); got != c.want {
			t.Fatalf("Score(%d, %d) = %d, want %d", c.passed, c.total, got, c.want)
		}
	}
}

func TestScore_NegativeTotal(t *testing.T) {
	if got := Score(0, -1); got != 0 {
		t.Fatalf("expected score 0 for negative total, got %d", got)
	}
}
