package tts

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Hello there!", "Hello there!"},
		{"collapse whitespace", "Hello \n  there!", "Hello there!"},
		{"sound effect brackets", "[door slams] Who's there?", "Who's there?"},
		{"sound effect parens", "(sighs) Fine.", "Fine."},
		{"html italics", "<i>Hello</i> there", "Hello there"},
		{"ass override", `{\an8}Up here`, "Up here"},
		{"speaker dashes", "- First speaker\n- Second speaker", "First speaker Second speaker"},
		{"music notes", "♪ La la la ♪", "La la la"},
		{"only markup", "[thunder rumbling]", ""},
		{"mixed", "<b>[shouting]</b> - STOP!", "STOP!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.expected {
				t.Fatalf("CleanText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
