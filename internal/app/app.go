package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/YannKr/brandportal"
	"github.com/YannKr/brandportal/internal/cleanup"
	"github.com/YannKr/brandportal/internal/config"
	"github.com/YannKr/brandportal/internal/db"
	"github.com/YannKr/brandportal/internal/diskstat"
	"github.com/YannKr/brandportal/internal/export"
	"github.com/YannKr/brandportal/internal/handler"
	"github.com/YannKr/brandportal/internal/storage"
	"github.com/YannKr/brandportal/internal/watermark"
)

// Open prepares the data directories, the database and the branding engine.
// The caller closes the returned handler's DB.
func Open(cfg *config.Config) (*handler.Handler, error) {
	for _, dir := range []string{
		cfg.DataDir,
		filepath.Join(cfg.DataDir, "uploads", "resources"),
		filepath.Join(cfg.DataDir, "uploads", "school_logos"),
		cfg.TempDir,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database, brandportal.MigrationFS); err != nil {
		database.Close()
		return nil, err
	}
	slog.Info("database ready")

	resolver, err := storage.NewResolver(cfg.DataDir)
	if err != nil {
		database.Close()
		return nil, err
	}
	slog.Info("storage ready", "root", resolver.Root())
	var fontPaths []string
	if cfg.FontPath != "" {
		fontPaths = append(fontPaths, cfg.FontPath)
	}
	fonts := watermark.NewFontSet(fontPaths...)
	slog.Info("font loaded", "font", fonts.Name())

	engine := watermark.NewEngine(resolver, watermark.Options{
		TempDir:     cfg.TempDir,
		JPEGQuality: cfg.JPEGQuality,
		Fonts:       fonts,
	})
	return handler.New(database, cfg, engine, export.New(engine, cfg.ExportWorkers, cfg.TempDir)), nil
}

func Run(ctx context.Context, cfg *config.Config) error {
	h, err := Open(cfg)
	if err != nil {
		return err
	}
	defer h.DB.Close()

	if cfg.AdminKeyHash == "" {
		slog.Warn("ADMIN_KEY_HASH is not set; admin routes are open")
	}

	cleaner := &cleanup.Cleaner{
		DB:       h.DB,
		TempDir:  cfg.TempDir,
		MaxAge:   time.Duration(cfg.TempMaxAgeMins) * time.Minute,
		Schedule: cfg.CleanupSchedule,
	}
	if err := cleaner.Start(); err != nil {
		return err
	}
	defer cleaner.Stop()

	diskCache := diskstat.New(cfg.DataDir, cfg.TempDir, 60*time.Second)
	diskCache.Start()
	defer diskCache.Stop()
	h.DiskCache = diskCache
	if s := diskCache.Get(); s.TotalBytes > 0 {
		slog.Info("disk", "free", humanize.Bytes(s.FreeBytes), "total", humanize.Bytes(s.TotalBytes),
			"free_pct", fmt.Sprintf("%.1f", s.PctFree()), "app", humanize.Bytes(s.AppBytes),
			"uploads", humanize.Bytes(s.UploadsBytes), "temp", humanize.Bytes(s.TempBytes))
	}

	brandRL := handler.PerMinute(cfg.RateLimitPerMin)
	defer brandRL.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h.Routes(brandRL),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", cfg.ListenAddr, "base_url", cfg.BaseURL,
		"max_upload", humanize.IBytes(uint64(cfg.MaxUploadBytes)), "export_workers", cfg.ExportWorkers)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
