package srt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cue is a single subtitle entry with millisecond-precision timing.
type Cue struct {
	Index int // 1-based position in source order
	Start time.Duration
	End   time.Duration
	Text  string // cue lines joined with "\n"
}

// Duration returns the length of the cue window.
func (c Cue) Duration() time.Duration {
	return c.End - c.Start
}

// ParseError describes a malformed subtitle block.
type ParseError struct {
	Block  int // 1-based block number within the file
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("srt parse: block %d: %s", e.Block, e.Reason)
}

// Warning records a block skipped by lenient parsing.
type Warning struct {
	Block  int
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("block %d skipped: %s", w.Block, w.Reason)
}

// Options controls parser failure behaviour.
type Options struct {
	// Lenient skips malformed blocks and reports them as warnings instead of
	// failing the whole parse.
	Lenient bool
}

// Parse decodes raw SRT bytes into ordered cues.
func Parse(data []byte, opts Options) ([]Cue, []Warning, error) {
	content := strings.TrimPrefix(string(data), "\uFEFF")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var (
		cues     []Cue
		warnings []Warning
	)
	blockNum := 0
	for _, block := range splitBlocks(content) {
		blockNum++
		cue, err := parseBlock(block)
		if err != nil {
			if opts.Lenient {
				warnings = append(warnings, Warning{Block: blockNum, Reason: err.Error()})
				continue
			}
			return nil, nil, &ParseError{Block: blockNum, Reason: err.Error()}
		}
		cue.Index = len(cues) + 1
		cues = append(cues, cue)
	}
	return cues, warnings, nil
}

func splitBlocks(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	raw := strings.Split(trimmed, "\n\n")
	blocks := make([]string, 0, len(raw))
	for _, block := range raw {
		if strings.TrimSpace(block) != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func parseBlock(block string) (Cue, error) {
	lines := strings.Split(strings.TrimSpace(block), "\n")
	pos := 0
	if pos < len(lines) && isNumeric(strings.TrimSpace(lines[pos])) {
		pos++
	}
	if pos >= len(lines) {
		return Cue{}, fmt.Errorf("missing timecode line")
	}
	timecode := strings.TrimSpace(lines[pos])
	if !strings.Contains(timecode, "-->") {
		return Cue{}, fmt.Errorf("missing timecode line")
	}
	parts := strings.SplitN(timecode, "-->", 2)
	start, err := ParseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return Cue{}, fmt.Errorf("start timestamp: %w", err)
	}
	// Trailing cue settings (e.g. position hints) after the end timestamp are ignored.
	endText := strings.TrimSpace(parts[1])
	if idx := strings.IndexByte(endText, ' '); idx >= 0 {
		endText = endText[:idx]
	}
	end, err := ParseTimestamp(endText)
	if err != nil {
		return Cue{}, fmt.Errorf("end timestamp: %w", err)
	}
	if end <= start {
		return Cue{}, fmt.Errorf("end %s not after start %s", FormatTimestamp(end), FormatTimestamp(start))
	}

	text := make([]string, 0, len(lines)-pos-1)
	for _, line := range lines[pos+1:] {
		text = append(text, strings.TrimRight(line, " \t"))
	}
	return Cue{Start: start, End: end, Text: strings.Join(text, "\n")}, nil
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseTimestamp decodes `HH:MM:SS,mmm` (comma or period separator).
func ParseTimestamp(value string) (time.Duration, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), ".", ",")
	clock, millis, ok := strings.Cut(normalized, ",")
	if !ok {
		return 0, fmt.Errorf("timestamp %q missing millisecond separator", value)
	}
	fields := strings.Split(clock, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("timestamp %q is not HH:MM:SS,mmm", value)
	}
	hours, err := strconv.Atoi(fields[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("timestamp %q has invalid hours", value)
	}
	minutes, err := strconv.Atoi(fields[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("timestamp %q has invalid minutes", value)
	}
	seconds, err := strconv.Atoi(fields[2])
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("timestamp %q has invalid seconds", value)
	}
	if len(millis) != 3 {
		return 0, fmt.Errorf("timestamp %q has invalid milliseconds", value)
	}
	ms, err := strconv.Atoi(millis)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("timestamp %q has invalid milliseconds", value)
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(ms)*time.Millisecond
	return total, nil
}

// FormatTimestamp renders a duration in canonical `HH:MM:SS,mmm` form.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1_000
	ms -= seconds * 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}
