package tts

import (
	"regexp"
	"strings"
)

// Subtitle presentation artifacts that should never reach the synthesizer.
var (
	markupTags    = regexp.MustCompile(`<[^>]*>`)
	assOverrides  = regexp.MustCompile(`\{\\[^}]*\}`)
	soundEffects  = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	speakerPrefix = regexp.MustCompile(`(?m)^\s*-\s*`)
	musicNotes    = regexp.MustCompile(`[♪♫]+`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// CleanText strips subtitle markup and collapses whitespace so only speakable
// text is handed to the engine. Returns "" when nothing speakable remains.
func CleanText(text string) string {
	cleaned := markupTags.ReplaceAllString(text, " ")
	cleaned = assOverrides.ReplaceAllString(cleaned, " ")
	cleaned = soundEffects.ReplaceAllString(cleaned, " ")
	cleaned = musicNotes.ReplaceAllString(cleaned, " ")
	cleaned = speakerPrefix.ReplaceAllString(cleaned, "")
	cleaned = whitespace.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
