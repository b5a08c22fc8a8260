package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxSearchQueryLength = 100
	MaxChatMessageLength = 2000
	MaxChatHistory       = 50
)

var (
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrQueryTooLong   = errors.New("search query is too long")
	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = errors.New("message is too long")
	ErrHistoryTooLong = errors.New("too many history turns")
	ErrInvalidWeek    = errors.New("week must be a positive number")
)

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks the shape of an email address. It does not trim or
// lower-case; directory emails are matched exactly.
func ValidateEmail(email string) error {
	if !emailRegexp.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateSearchQuery bounds the learner directory filter.
func ValidateSearchQuery(query string) error {
	if utf8.RuneCountInString(query) > MaxSearchQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// ValidateChatMessage checks a tutor question and its history length.
func ValidateChatMessage(message string, historyTurns int) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxChatMessageLength {
		return ErrMessageTooLong
	}
	if historyTurns > MaxChatHistory {
		return ErrHistoryTooLong
	}
	return nil
}

// ValidateWeek checks a catalog week number.
func ValidateWeek(week int) error {
	if week < 1 {
		return ErrInvalidWeek
	}
	return nil
}
