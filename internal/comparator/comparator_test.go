package comparator_test

import (
	"testing"

	. "github.com/codelab-edu/grader/internal/comparator"
)

func TestMatches_ExactStrings(t *testing.T) {
	cmp := NewComparator()
	if !cmp.Matches("hello", "hello") {
		t.Fatalf("expected identical strings to match")
	}
	if cmp.Matches("Hello", "hello") {
		t.Fatalf("expected string comparison to be case sensitive")
	}
	if cmp.Matches("hello", "hello world") {
		t.Fatalf("expected different strings not to match")
	}
}

func TestMatches_WhitespaceNormalization(t *testing.T) {
	cmp := NewComparator()
	if !cmp.Matches("  hello  ", "hello") {
		t.Fatalf("expected surrounding whitespace to be ignored")
	}
	if !cmp.Matches("hello\r\nworld", "hello\nworld") {
		t.Fatalf("expected CRLF and LF line endings to compare equal")
	}
	if cmp.Matches("hello world", "hello  world") {
		t.Fatalf("expected interior whitespace to stay significant")
	}
}

func TestMatches_NumericEpsilon(t *testing.T) {
	cmp := NewComparator()
	if !cmp.Matches("5", "5.0") {
		t.Fatalf("expected 5 and 5.0 to compare equal as numbers")
	}
	if !cmp.Matches("0.30000000000000004", "0.3") {
		t.Fatalf("expected float artifacts within epsilon to compare equal")
	}
	if cmp.Matches("0.31", "0.3") {
		t.Fatalf("expected differences above epsilon to fail")
	}
	if cmp.Matches("5", "five") {
		t.Fatalf("expected number vs non-number to fall back to string comparison")
	}
}

func TestMatches_JSONObjects(t *testing.T) {
	cmp := NewComparator()
	if !cmp.Matches(`{"a":1,"b":2}`, `{"b":2,"a":1}`) {
		t.Fatalf("expected object key order to be irrelevant")
	}
	if cmp.Matches(`{"a":1}`, `{"a":1,"b":2}`) {
		t.Fatalf("expected objects with different key sets not to match")
	}
	if !cmp.Matches(`{"n": 1.0000000001}`, `{"n": 1}`) {
		t.Fatalf("expected nested numbers to compare within epsilon")
	}
}

func TestMatches_JSONArrays(t *testing.T) {
	cmp := NewComparator()
	if !cmp.Matches(`[1, 2, 3]`, `[1,2,3]`) {
		t.Fatalf("expected array formatting differences to be irrelevant")
	}
	if cmp.Matches(`[1,2]`, `[2,1]`) {
		t.Fatalf("expected array element order to be significant")
	}
	if cmp.Matches(`[1,2]`, `[1,2,3]`) {
		t.Fatalf("expected arrays of different length not to match")
	}
	if !cmp.Matches(`[{"x":1},{"x":2}]`, `[{"x": 1}, {"x": 2}]`) {
		t.Fatalf("expected nested structures to compare structurally")
	}
}

func TestMatches_JSONScalars(t *testing.T) {
	cmp := NewComparator()
	if !cmp.Matches("true", "true") {
		t.Fatalf("expected booleans to match")
	}
	if !cmp.Matches("null", "null") {
		t.Fatalf("expected nulls to match")
	}
	if cmp.Matches("true", "false") {
		t.Fatalf("expected different booleans not to match")
	}
	if cmp.Matches(`"5"`, "5") {
		t.Fatalf("expected JSON string and JSON number not to match")
	}
}

func TestMatches_TrailingGarbageIsNotJSON(t *testing.T) {
	cmp := NewComparator()
	// A JSON document followed by junk is an ordinary string, not JSON, so
	// these only match exactly.
	if cmp.Matches(`{"a":1} x`, `{"a": 1} x`) {
		t.Fatalf("expected non-JSON payloads to fall back to exact comparison")
	}
	if !cmp.Matches(`{"a":1} x`, `{"a":1} x`) {
		t.Fatalf("expected identical non-JSON payloads to match exactly")
	}
}
