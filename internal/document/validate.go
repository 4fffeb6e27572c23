package document

import (
	"strings"

	"github.com/mpernat/vellum/internal/errors"
)

// ValidateName checks a proposed document name against the naming rules.
// Rules are applied in order and the first violation wins:
//
//  1. the name must not be empty
//  2. the name must contain a '.' separating prefix and extension
//  3. the name must not contain more than one '.'
//  4. the extension must be in the allowed set
//
// The returned error message is the exact text shown to the user.
func ValidateName(name string, allowedExts []string) error {
	if name == "" {
		return errors.NewInvalidName("A name is required.")
	}

	switch strings.Count(name, ".") {
	case 0:
		return errors.NewInvalidName("Filename requires an extension.")
	case 1:
		// prefix.extension, checked below
	default:
		// Historical wording; the actual constraint is "at most one dot".
		return errors.NewInvalidName("Filename must not contain a '.'.")
	}

	ext := name[strings.LastIndex(name, ".")+1:]
	for _, allowed := range allowedExts {
		if ext == allowed {
			return nil
		}
	}
	return errors.NewInvalidName("File extension invalid. Please use " + strings.Join(allowedExts, ", "))
}
