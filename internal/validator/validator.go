package validator

import (
	"fmt"

	"github.com/codelab-edu/grader/pkg/grading"
	"github.com/codelab-edu/grader/pkg/languages"
	"github.com/codelab-edu/grader/pkg/messages"
)

// Validation error codes surfaced to the caller.
const (
	CodeRequired            = "required"
	CodeUnsupportedLanguage = "unsupported_language"
)

// ValidationError identifies the request field that failed validation.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the shape of a grading request and converts it into a
// Submission. No code is executed here; an empty test case list is valid and
// grades to score 0.
func Validate(req *messages.GradeRequest) (*grading.Submission, *ValidationError) {
	if req.Code == "" {
		return nil, &ValidationError{
			Field:   "code",
			Code:    CodeRequired,
			Message: "code must be a non-empty string",
		}
	}

	if req.Language == "" {
		return nil, &ValidationError{
			Field:   "language",
			Code:    CodeRequired,
			Message: "language must be provided",
		}
	}

	langType, err := languages.ParseLanguageType(req.Language)
	if err != nil {
		return nil, &ValidationError{
			Field:   "language",
			Code:    CodeUnsupportedLanguage,
			Message: fmt.Sprintf("language %q is not a supported grading target", req.Language),
		}
	}

	testCases := make([]grading.TestCase, len(req.TestCases))
	for i, tc := range req.TestCases {
		testCases[i] = grading.TestCase{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Description:    tc.Description,
		}
	}

	return &grading.Submission{
		Code:      req.Code,
		Language:  langType,
		TestCases: testCases,
	}, nil
}
