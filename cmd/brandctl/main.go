// Package main provides brandctl, which brands stored resources from the
// command line against a portal data directory.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YannKr/brandportal/internal/app"
	"github.com/YannKr/brandportal/internal/config"
	"github.com/YannKr/brandportal/internal/handler"
	"github.com/YannKr/brandportal/internal/watermark"
)

var rootCmd = &cobra.Command{
	Use:           "brandctl",
	Short:         "Brand portal resources from the command line",
	Long:          "brandctl produces branded copies, previews and batch archives of stored resources using the same engine and data directory as the portal server.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	},
}

var (
	dataDir string
	verbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Portal data directory (defaults to DATA_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine activity")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies --data-dir.
func loadConfig() *config.Config {
	cfg := config.Load()
	if dataDir != "" {
		cfg.DataDir = dataDir
		cfg.TempDir = filepath.Join(dataDir, "tmp")
	}
	return cfg
}

func openPortal() (*handler.Handler, error) {
	h, err := app.Open(loadConfig())
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}
	return h, nil
}

// writeArtifact copies art to out, or to its own name in the working
// directory when out is empty, and returns the path written.
func writeArtifact(art *watermark.Artifact, out, displayName string) (string, error) {
	if out == "" {
		out = art.Filename(displayName)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", out, err)
	}
	if _, err := art.WriteTo(f); err != nil {
		f.Close()
		os.Remove(out)
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, f.Close()
}
