// Package parser extracts structure from raw model text: <thinking> blocks
// and XML <tool> invocations emitted by models without native function
// calling.
package parser

import (
	"regexp"
	"strings"
)

var thinkingRegex = regexp.MustCompile(`(?s)<thinking>(.*?)(?:</thinking>|$)`)

// SplitThinking separates <thinking> blocks from the rest of a response. An
// unterminated block runs to the end of the text.
func SplitThinking(text string) (thinking, message string) {
	var parts []string
	for _, m := range thinkingRegex.FindAllStringSubmatch(text, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			parts = append(parts, s)
		}
	}
	message = strings.TrimSpace(thinkingRegex.ReplaceAllString(text, ""))
	return strings.Join(parts, "\n"), message
}
