package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateMessageContent validates inbound event text content.
func ValidateMessageContent(content string) error {
	if len(content) > 100000 { // ~100KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateTenantID validates a conversation key's tenant component.
func ValidateTenantID(id string) error {
	if len(id) == 0 {
		return errors.New("tenant ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("tenant ID exceeds maximum length")
	}
	return nil
}
