package api

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxMessageLength bounds user message length in characters.
const DefaultMaxMessageLength = 4000

// threadIDPattern is deliberately permissive: thread identifiers are
// opaque strings minted by the upstream service, so only the shape
// (non-empty, bounded, URL-safe charset) is checked here. Ownership is
// the upstream's concern.
var threadIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,128}$`)

// ValidateThreadID checks whether the given string has the shape of a
// thread identifier. Empty is valid: it requests a new thread.
func ValidateThreadID(id string) bool {
	return id == "" || threadIDPattern.MatchString(id)
}

// ValidateUserMessage checks a user message against the configured
// maximum length. It returns nil for valid input, or an invalid_input
// error that the caller must surface without making any upstream call.
// Length is counted in characters, not bytes.
func ValidateUserMessage(text string, maxLength int) *Error {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}

	if strings.TrimSpace(text) == "" {
		return NewInvalidInputError("message", "message must not be empty")
	}

	if utf8.RuneCountInString(text) > maxLength {
		return NewInvalidInputError("message",
			fmt.Sprintf("message exceeds maximum length of %d characters", maxLength))
	}

	return nil
}

// ValidateChatRequest checks a full chat request: thread ID shape and
// message content.
func ValidateChatRequest(req *ChatRequest, maxLength int) *Error {
	if !ValidateThreadID(req.ThreadID) {
		return NewInvalidInputError("threadId", "malformed thread ID")
	}
	return ValidateUserMessage(req.Message, maxLength)
}
