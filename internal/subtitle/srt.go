package subtitle

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"dubflow/internal/timecode"
)

// ErrMalformed is wrapped by every structural SRT parse failure. The SRT
// parser is fail-fast: one bad block aborts the whole parse.
var ErrMalformed = errors.New("malformed subtitle")

var timeLinePattern = regexp.MustCompile(
	`^(\d{2}:\d{2}:\d{2}[,.]\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}[,.]\d{3})\s*$`)

// ParseSRT parses SRT content into segments. It tolerates a dot in place
// of the millisecond comma and trailing whitespace on time lines, but a
// malformed index or timestamp aborts the parse.
func ParseSRT(content string) ([]Segment, error) {
	var segments []Segment

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	current := Segment{}
	state := "index"
	var textLines []string

	flush := func() {
		current.Text = strings.Join(textLines, "\n")
		segments = append(segments, current)
		current = Segment{}
		textLines = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid segment index %q", ErrMalformed, line)
			}
			current.ID = index
			state = "time"

		case "time":
			if line == "" {
				return nil, fmt.Errorf("%w: missing time line for segment %d", ErrMalformed, current.ID)
			}
			startMS, endMS, err := parseTimeLine(line)
			if err != nil {
				return nil, err
			}
			if endMS < startMS {
				return nil, fmt.Errorf("%w: segment %d ends before it starts", ErrMalformed, current.ID)
			}
			current.StartMS = startMS
			current.EndMS = endMS
			state = "text"

		case "text":
			if line == "" {
				if len(textLines) > 0 {
					flush()
				}
				state = "index"
			} else {
				textLines = append(textLines, line)
			}
		}
	}

	// last block may end without a trailing blank line
	if state == "text" && len(textLines) > 0 {
		flush()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan subtitle content: %w", err)
	}

	return segments, nil
}

// ParseSRTFile reads and parses an SRT file.
func ParseSRTFile(path string) ([]Segment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}
	return ParseSRT(string(content))
}

func parseTimeLine(line string) (int64, int64, error) {
	match := timeLinePattern.FindStringSubmatch(line)
	if match == nil {
		return 0, 0, fmt.Errorf("%w: invalid time line %q", ErrMalformed, line)
	}

	startMS, err := timecode.ParseSRTTime(match[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	endMS, err := timecode.ParseSRTTime(match[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return startMS, endMS, nil
}
