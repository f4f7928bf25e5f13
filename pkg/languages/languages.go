package languages

import (
	"strings"

	"github.com/codelab-edu/grader/pkg/constants"
	"github.com/codelab-edu/grader/pkg/errors"
)

// LanguageType identifies a grading target. The authoring UI exposes more
// languages than the engine can grade; anything that does not parse here is
// rejected before execution instead of being silently misgraded.
type LanguageType int

const (
	JavaScript LanguageType = iota + 1
)

func (lt LanguageType) String() string {
	for key, value := range LanguageTypeMap {
		if value == lt {
			return key
		}
	}
	return ""
}

// GetDockerImage returns the runtime image used by the docker sandbox backend.
func (lt LanguageType) GetDockerImage() (string, error) {
	switch lt {
	case JavaScript:
		return constants.DefaultRuntimeImage, nil
	default:
		return "", errors.ErrInvalidLanguageType
	}
}

var LanguageTypeMap = map[string]LanguageType{
	"JAVASCRIPT": JavaScript,
}

var LanguageExtensionMap = map[LanguageType]string{
	JavaScript: "js",
}

func ParseLanguageType(s string) (LanguageType, error) {
	if lt, ok := LanguageTypeMap[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return lt, nil
	}
	return 0, errors.ErrInvalidLanguageType
}

func GetSupportedLanguages() []string {
	var languages []string
	for lang := range LanguageTypeMap {
		languages = append(languages, lang)
	}
	return languages
}
