package cleanup

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"

	"github.com/YannKr/brandportal/internal/db"
	"github.com/YannKr/brandportal/internal/watermark"
)

// Cleaner reaps branded artifacts left behind by requests that never closed
// them, and layout profiles of deleted schools.
type Cleaner struct {
	DB       *sql.DB
	TempDir  string
	MaxAge   time.Duration
	Schedule string // cron spec, e.g. "@every 15m"

	cron *cron.Cron
}

func (c *Cleaner) Start() error {
	c.cron = cron.New()
	if _, err := c.cron.AddFunc(c.Schedule, func() { c.RunOnce(time.Now()) }); err != nil {
		return fmt.Errorf("cleanup schedule %q: %w", c.Schedule, err)
	}
	c.RunOnce(time.Now())
	c.cron.Start()
	slog.Info("cleanup scheduler started", "schedule", c.Schedule, "max_age", c.MaxAge)
	return nil
}

func (c *Cleaner) Stop() {
	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
	slog.Info("cleanup scheduler stopped")
}

// RunOnce removes temp artifacts older than MaxAge as of now and returns how
// many files were removed.
func (c *Cleaner) RunOnce(now time.Time) int {
	entries, err := os.ReadDir(c.TempDir)
	if err != nil {
		slog.Error("cleanup: read temp dir", "dir", c.TempDir, "error", err)
		return 0
	}

	removed := 0
	var freed uint64
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), watermark.TempPattern) {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < c.MaxAge {
			continue
		}
		p := filepath.Join(c.TempDir, e.Name())
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Warn("cleanup: remove artifact", "path", p, "error", err)
			continue
		}
		removed++
		freed += uint64(info.Size())
	}
	if removed > 0 {
		slog.Info("cleanup: removed orphaned artifacts", "count", removed, "freed", humanize.Bytes(freed))
	}

	if c.DB != nil {
		if n, err := db.PruneOrphanLayouts(c.DB); err != nil {
			slog.Error("cleanup: prune layouts", "error", err)
		} else if n > 0 {
			slog.Info("cleanup: pruned layouts of deleted schools", "count", n)
		}
	}
	return removed
}
