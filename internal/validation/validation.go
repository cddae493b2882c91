package validation

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

var (
	ErrEmptyText         = errors.New("message text cannot be empty")
	ErrInvalidAttachment = errors.New("all attachment references must be non-empty strings")
)

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}

// MessageText normalizes message text and rejects empty or whitespace-only
// input.
func MessageText(text string) (string, error) {
	text = TrimAndLimit(text, MaxMessageLength())
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

// Attachments normalizes a list of attachment references. A nil list is
// valid and becomes an empty slice; blank entries are rejected.
func Attachments(attachments []string) ([]string, error) {
	if attachments == nil {
		return []string{}, nil
	}
	out := make([]string, 0, len(attachments))
	for _, a := range attachments {
		a = strings.TrimSpace(a)
		if a == "" {
			return nil, ErrInvalidAttachment
		}
		out = append(out, a)
	}
	return out, nil
}

// TruncatePreview shortens message text for use as a notification body.
func TruncatePreview(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
