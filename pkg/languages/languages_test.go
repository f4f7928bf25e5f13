package languages_test

import (
	"errors"
	"testing"

	"github.com/codelab-edu/grader/pkg/constants"
	customErr "github.com/codelab-edu/grader/pkg/errors"
	. "github.com/codelab-edu/grader/pkg/languages"
)

func TestParseLanguageType(t *testing.T) {
	for _, s := range []string{"javascript", "JAVASCRIPT", "JavaScript", "  javascript  "} {
		lt, err := ParseLanguageType(s)
		if err != nil {
			t.Fatalf("expected %q to parse, got error: %v", s, err)
		}
		if lt != JavaScript {
			t.Fatalf("expected %q to parse to JavaScript, got %v", s, lt)
		}
	}
}

func TestParseLanguageType_Unknown(t *testing.T) {
	for _, s := range []string{"python", "typescript", ""} {
		_, err := ParseLanguageType(s)
		if !errors.Is(err, customErr.ErrInvalidLanguageType) {
			t.Fatalf("expected ErrInvalidLanguageType for %q, got %v", s, err)
		}
	}
}

func TestLanguageTypeString(t *testing.T) {
	if JavaScript.String() != "JAVASCRIPT" {
		t.Fatalf("expected JAVASCRIPT, got %q", JavaScript.String())
	}
	if LanguageType(99).String() != "" {
		t.Fatalf("expected empty string for unknown language type")
	}
}

func TestGetDockerImage(t *testing.T) {
	img, err := JavaScript.GetDockerImage()
	if err != nil {
		t.Fatalf("expected docker image for JavaScript, got error: %v", err)
	}
	if img != constants.DefaultRuntimeImage {
		t.Fatalf("expected image %q, got %q", constants.DefaultRuntimeImage, img)
	}
	if _, err := LanguageType(99).GetDockerImage(); !errors.Is(err, customErr.ErrInvalidLanguageType) {
		t.Fatalf("expected ErrInvalidLanguageType for unknown language, got %v", err)
	}
}

func TestGetSupportedLanguages(t *testing.T) {
	langs := GetSupportedLanguages()
	if len(langs) == 0 {
		t.Fatalf("expected at least one supported language")
	}
	found := false
	for _, l := range langs {
		if l == "JAVASCRIPT" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected JAVASCRIPT in supported languages, got %v", langs)
	}
}
