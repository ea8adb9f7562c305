package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dubflow/internal/timecode"
)

// Serialize renders segments in the given format. With useTranslated the
// translated text is preferred per segment, falling back to the source
// text when a segment has no translation yet.
func Serialize(segments []Segment, format Format, useTranslated bool) string {
	var builder strings.Builder

	switch format {
	case FormatLine:
		for _, seg := range segments {
			fmt.Fprintf(&builder, "%d - %d - %s\n",
				seg.StartMS, seg.EndMS, seg.RenderText(useTranslated))
		}
	default:
		for _, seg := range segments {
			fmt.Fprintf(&builder, "%d\n", seg.ID)
			fmt.Fprintf(&builder, "%s --> %s\n",
				timecode.FormatSRTTime(seg.StartMS), timecode.FormatSRTTime(seg.EndMS))
			fmt.Fprintf(&builder, "%s\n\n", seg.RenderText(useTranslated))
		}
	}

	return builder.String()
}

// WriteFile serializes segments to path, creating parent directories.
func WriteFile(path string, segments []Segment, format Format, useTranslated bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Serialize(segments, format, useTranslated)), 0o644); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}
	return nil
}

// FormatForPath picks the serialization format matching a file extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return FormatLine
	}
	return FormatSRT
}
