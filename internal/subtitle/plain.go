package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"dubflow/pkg/log"
)

// ParseLineFormat parses the hand-editable "start_ms - end_ms - text"
// format. Unlike the SRT parser this one is lenient: a line that does
// not fit the shape is logged and skipped. Text may itself contain
// " - " since the split is limited to three parts. IDs are assigned
// sequentially from 1 regardless of any numbering in the input.
func ParseLineFormat(content string) []Segment {
	var segments []Segment
	nextID := 1

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, " - ", 3)
		if len(parts) < 3 {
			log.Warn("skipping malformed subtitle line: %s", line)
			continue
		}

		startMS, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			log.Warn("skipping line with non-numeric start time: %s", line)
			continue
		}
		endMS, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			log.Warn("skipping line with non-numeric end time: %s", line)
			continue
		}
		if endMS < startMS {
			log.Warn("skipping line ending before it starts: %s", line)
			continue
		}

		segments = append(segments, Segment{
			ID:      nextID,
			StartMS: startMS,
			EndMS:   endMS,
			Text:    parts[2],
		})
		nextID++
	}

	return segments
}

// ParseLineFormatFile reads and parses a line-format file.
func ParseLineFormatFile(path string) ([]Segment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}
	return ParseLineFormat(string(content)), nil
}
