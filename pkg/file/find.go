package file

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FindContaining returns the files directly under dir whose name contains
// the given substring.
func FindContaining(dir, substr string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var matched []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.Contains(entry.Name(), substr) {
			matched = append(matched, filepath.Join(dir, entry.Name()))
		}
	}
	return matched, nil
}

// FindOlderThan returns the files directly under dir whose modification
// time is before the cutoff.
func FindOlderThan(dir string, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, filepath.Join(dir, entry.Name()))
		}
	}
	return stale, nil
}
