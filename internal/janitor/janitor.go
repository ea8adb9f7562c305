// Package janitor sweeps stale intermediate artifacts out of the data
// directories on a cron schedule. Final results are never touched.
package janitor

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"dubflow/pkg/file"
	"dubflow/pkg/log"
)

// Janitor periodically removes temp files older than the configured age
// from the watched directories.
type Janitor struct {
	cron   *cron.Cron
	dirs   []string
	maxAge time.Duration
	now    func() time.Time
}

func New(cronEngine *cron.Cron, dirs []string, maxAge time.Duration) *Janitor {
	return &Janitor{
		cron:   cronEngine,
		dirs:   dirs,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Schedule registers the sweep with the cron engine. The engine itself
// is started and stopped by the caller.
func (j *Janitor) Schedule(cronExpr string) error {
	_, err := j.cron.AddFunc(cronExpr, func() {
		removed := j.Sweep()
		if removed > 0 {
			log.Info("janitor removed %d stale temp files", removed)
		}
	})
	return err
}

// Sweep removes stale temp files once and returns how many went away.
// Files whose name marks them as results survive regardless of age.
func (j *Janitor) Sweep() int {
	cutoff := j.now().Add(-j.maxAge)
	removed := 0

	for _, dir := range j.dirs {
		stale, err := file.FindOlderThan(dir, cutoff)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Warn("janitor failed to scan %s: %v", dir, err)
			}
			continue
		}
		for _, path := range stale {
			if strings.Contains(filepath.Base(path), "result") {
				continue
			}
			if err := os.Remove(path); err != nil {
				log.Warn("janitor failed to remove %s: %v", path, err)
				continue
			}
			log.Debug("janitor removed %s", path)
			removed++
		}
	}
	return removed
}
