// Copyright 2026 The Elkhound Authors
// SPDX-License-Identifier: Apache-2.0

package logattr

import (
	"regexp"
	"strings"
)

var (
	cardPattern  = regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b09\d{8}\b`)
)

// Redact masks PII-like substrings in a log body: payment card numbers,
// email addresses, and 09-prefixed mobile numbers.
func Redact(text string) string {
	text = cardPattern.ReplaceAllString(text, "[REDACTED_CARD]")
	text = emailPattern.ReplaceAllString(text, "[REDACTED_EMAIL]")
	text = phonePattern.ReplaceAllString(text, "[REDACTED_PHONE]")
	return text
}

// ContainsForbidden reports whether a log body mentions any forbidden
// keyword. Such bodies are redacted rather than rejected.
func ContainsForbidden(body string) bool {
	lower := strings.ToLower(body)
	for _, kw := range ForbiddenKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
