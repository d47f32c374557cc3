package util

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// MaxSourceLength bounds the client-supplied view source label
const MaxSourceLength = 32

// ValidateLeadID checks that id is a canonical lead UUID
func ValidateLeadID(id string) error {
	if id == "" {
		return errors.New("lead id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("lead id must be a UUID")
	}
	return nil
}

// NormalizeSource lowercases and trims a view source label and validates it.
// Empty is allowed. Labels are short identifiers such as "cli" or "web".
func NormalizeSource(source string) (string, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		return "", nil
	}
	if len(source) > MaxSourceLength {
		return "", errors.New("source too long (max 32 characters)")
	}
	for _, r := range source {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return "", errors.New("source may only contain letters, digits, '-' and '_'")
		}
	}
	return source, nil
}
