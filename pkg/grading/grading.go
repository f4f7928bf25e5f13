package grading

import "github.com/codelab-edu/grader/pkg/languages"

// TestCase is one author-supplied input/expected-output pair. Order within a
// submission is significant: the UI and lesson-progress bookkeeping index
// results positionally.
type TestCase struct {
	Input          string
	ExpectedOutput string
	Description    string
}

// Submission is one student's code plus the test cases it is judged against.
// It lives for the duration of a single grading request and is never persisted.
type Submission struct {
	Code      string
	Language  languages.LanguageType
	TestCases []TestCase
}

// TestResult reports the verdict for exactly one test case, at the same index.
type TestResult struct {
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Error    string `json:"error,omitempty"`
	Input    string `json:"input,omitempty"`
}

// Summary aggregates all test results for a submission.
//
// Invariants: TotalTests == len(testCases), PassedTests == count of passed
// results, Score == round-half-up(PassedTests/TotalTests*100) or 0 when there
// are no test cases, and Results[i] corresponds to testCases[i].
type Summary struct {
	Results     []TestResult `json:"results"`
	Score       int          `json:"score"`
	TotalTests  int          `json:"totalTests"`
	PassedTests int          `json:"passedTests"`
}
