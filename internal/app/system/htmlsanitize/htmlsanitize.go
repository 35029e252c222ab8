// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize strips dangerous markup from user-submitted text
// before it is stored. Idea titles and descriptions pass through here.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.UGCPolicy()

var strictPolicy = bluemonday.StrictPolicy()

// Sanitize keeps common user-generated-content markup (paragraphs,
// emphasis, safe links) and removes scripts, event handlers, and
// javascript: URLs.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}

// SanitizeStrict strips all markup, leaving plain text. Used for fields
// that render outside HTML contexts, like push notification payloads.
func SanitizeStrict(s string) string {
	return strictPolicy.Sanitize(s)
}
