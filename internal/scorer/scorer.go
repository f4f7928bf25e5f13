package scorer

import "math"

// Score computes the percentage of passed test cases, rounded half-up.
// A submission with no test cases scores 0.
func Score(passed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(passed) / float64(total) * 100))
}
