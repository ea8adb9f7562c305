// Package timecode converts between millisecond integers, MM:SS display
// strings and SRT timestamps, and validates user-entered time ranges.
package timecode

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidFormat is wrapped by every parse failure in this package.
var ErrInvalidFormat = errors.New("invalid time format")

var (
	displayPattern = regexp.MustCompile(`^(\d+):([0-5]?\d)$`)
	srtPattern     = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})$`)
)

// ParseDisplayTime converts a "MM:SS" display string to milliseconds.
// A blank string means zero. Minutes may exceed two digits; seconds
// must be below 60.
func ParseDisplayTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	match := displayPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, fmt.Errorf("%w: expected MM:SS, got %q", ErrInvalidFormat, s)
	}

	minutes, _ := strconv.ParseInt(match[1], 10, 64)
	seconds, _ := strconv.ParseInt(match[2], 10, 64)
	return (minutes*60 + seconds) * 1000, nil
}

// FormatDisplayTime renders milliseconds as "MM:SS", clamping negative
// input to zero.
func FormatDisplayTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}

	totalSeconds := ms / 1000
	return fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60)
}

// ParseSRTTime converts an "HH:MM:SS,mmm" timestamp to milliseconds.
// A dot is accepted in place of the comma.
func ParseSRTTime(s string) (int64, error) {
	match := srtPattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return 0, fmt.Errorf("%w: expected HH:MM:SS,mmm, got %q", ErrInvalidFormat, s)
	}

	hours, _ := strconv.ParseInt(match[1], 10, 64)
	minutes, _ := strconv.ParseInt(match[2], 10, 64)
	seconds, _ := strconv.ParseInt(match[3], 10, 64)
	millis, _ := strconv.ParseInt(match[4], 10, 64)

	return hours*3600*1000 + minutes*60*1000 + seconds*1000 + millis, nil
}

// FormatSRTTime renders milliseconds as "HH:MM:SS,mmm", clamping
// negative input to zero.
func FormatSRTTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}

	hours := ms / (3600 * 1000)
	ms %= 3600 * 1000
	minutes := ms / (60 * 1000)
	ms %= 60 * 1000
	seconds := ms / 1000
	ms %= 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// ValidateRange checks a user-entered trim range given as display times.
// Both blank means no trim was requested and is valid. A blank end is
// treated as open-ended. The start must be strictly before the end.
func ValidateRange(startDisplay, endDisplay string) error {
	startBlank := strings.TrimSpace(startDisplay) == ""
	endBlank := strings.TrimSpace(endDisplay) == ""
	if startBlank && endBlank {
		return nil
	}

	startMS, err := ParseDisplayTime(startDisplay)
	if err != nil {
		return err
	}

	if endBlank {
		return nil
	}

	endMS, err := ParseDisplayTime(endDisplay)
	if err != nil {
		return err
	}

	if startMS >= endMS {
		return fmt.Errorf("end time must be greater than start time")
	}
	return nil
}
