package diskstat

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Stats is a point-in-time snapshot of disk usage.
type Stats struct {
	TotalBytes   uint64
	FreeBytes    uint64
	AppBytes     uint64 // bytes under DATA_DIR
	UploadsBytes uint64
	TempBytes    uint64 // branded artifacts awaiting delivery or cleanup
	CapturedAt   time.Time
}

// PctFree returns the percentage of disk space that is free (0–100).
func (s Stats) PctFree() float64 {
	if s.TotalBytes == 0 {
		return 100
	}
	return float64(s.FreeBytes) / float64(s.TotalBytes) * 100
}

// Fits reports whether need bytes can be written while keeping minFreePct of
// the disk free. Unknown stats always fit.
func (s Stats) Fits(need int64, minFreePct float64) bool {
	if s.TotalBytes == 0 {
		return true
	}
	reserve := uint64(float64(s.TotalBytes) * minFreePct / 100)
	if s.FreeBytes <= reserve {
		return need <= 0
	}
	return need <= 0 || uint64(need) <= s.FreeBytes-reserve
}

// Cache is a goroutine-safe cached disk stats value, refreshed periodically.
type Cache struct {
	mu       sync.RWMutex
	stats    Stats
	dataDir  string
	tempDir  string
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func New(dataDir, tempDir string, ttl time.Duration) *Cache {
	return &Cache{
		dataDir: dataDir,
		tempDir: tempDir,
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
}

// Start refreshes once and then polls in the background.
func (c *Cache) Start() {
	c.refresh()
	go func() {
		t := time.NewTicker(c.ttl)
		defer t.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-t.C:
				c.refresh()
			}
		}
	}()
}

func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Get returns the latest cached stats.
func (c *Cache) Get() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Refresh forces an immediate update.
func (c *Cache) Refresh() {
	c.refresh()
}

func (c *Cache) refresh() {
	total, free, err := statFS(c.tempDir)
	if err != nil {
		// Not fatal; leave previous values in place
		return
	}
	s := Stats{
		TotalBytes: total,
		FreeBytes:  free,
		CapturedAt: time.Now(),
	}
	s.AppBytes, s.UploadsBytes = walkDirSizes(c.dataDir)
	s.TempBytes, _ = walkDirSizes(c.tempDir)
	c.mu.Lock()
	c.stats = s
	c.mu.Unlock()
}

func statFS(path string) (total, free uint64, err error) {
	var stat syscall.Statfs_t
	if err = syscall.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	bsize := uint64(stat.Bsize)
	return bsize * stat.Blocks, bsize * stat.Bavail, nil
}

func walkDirSizes(dir string) (total, uploads uint64) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size := uint64(info.Size())
		total += size
		if rel, err := filepath.Rel(dir, path); err == nil && strings.HasPrefix(filepath.ToSlash(rel), "uploads/") {
			uploads += size
		}
		return nil
	})
	return
}
