package smstriage

import (
	"regexp"
	"strings"
)

// linkPattern matches http/https URLs and bare www. hosts, the delivery
// vectors smishing campaigns actually use. Trailing punctuation is part of
// the match; indicator matching strips it when extracting the host.
var linkPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']+`)

// FindLinks returns every hyperlink found in text, in order of appearance.
// The result is nil when text contains no links.
func FindLinks(text string) []string {
	return linkPattern.FindAllString(text, -1)
}

// Retain decides whether a message body is kept as evidence: bodies
// containing a hyperlink are candidate phishing/exploit delivery, and bodies
// that trim to nothing are kept as a truncation signal. Everything else is
// ordinary conversation and is discarded.
func Retain(body string) bool {
	if len(FindLinks(body)) > 0 {
		return true
	}
	return strings.TrimSpace(body) == ""
}
