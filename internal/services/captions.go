package services

import (
	"fmt"
	"os"
	"strings"
)

// ---------------------------------------------------------------------------
// Placeholder SRT subtitle generator
//
// Used by the caption burn-in pass when the caller supplies no subtitle
// track. Produces a single cue spanning the whole clip. A speech-to-text
// integration would slot in here by writing real cues in the same format.
// ---------------------------------------------------------------------------

const defaultCaptionText = "Generated Video Clip"

// GenerateSimpleSubtitles writes a one-cue SRT file covering [0, duration).
func GenerateSimpleSubtitles(outputPath string, durationSeconds float64, text string) error {
	if text == "" {
		text = defaultCaptionText
	}

	var sb strings.Builder
	sb.WriteString("1\n")
	sb.WriteString(fmt.Sprintf("00:00:00,000 --> %s\n", formatSRTTime(durationSeconds*1000)))
	sb.WriteString(text)
	sb.WriteString("\n\n")

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}

	return nil
}

// formatSRTTime converts milliseconds to the SRT timestamp format HH:MM:SS,mmm.
func formatSRTTime(milliseconds float64) string {
	totalMs := int(milliseconds)
	if totalMs < 0 {
		totalMs = 0
	}

	totalSeconds := totalMs / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	ms := totalMs % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}
