package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/soocke/sliceview/app"
	"github.com/soocke/sliceview/config"
	"github.com/soocke/sliceview/domain/source"
)

var (
	version    = "0.1.0"
	cfgFile    string
	debugFlag  bool
	sourceKind string
)

var rootCmd = &cobra.Command{
	Use:   "sliceview",
	Short: "Pin a live region of a window or screen",
	Long:  `SliceView - pick a window or screen, drag a region, and keep it live in a small always-on-top window`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGUI()
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List capturable sources as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSources(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "SliceView v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the user config dir)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "debug logging and diagnostics")
	sourcesCmd.Flags().StringVar(&sourceKind, "kind", "both", "window, screen or both")

	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path and applies the --debug flag.
func loadConfig() (*config.Config, string, *slog.Logger) {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if debugFlag {
		cfg.Debug = true
	}
	logger := NewLogger(levelFor(cfg.LogLevel, cfg.Debug))
	if err != nil {
		logger.Warn("config load failed, using defaults", "path", path, "error", err)
	}
	return cfg, path, logger
}

func runGUI() error {
	cfg, path, logger := loadConfig()
	c, err := app.BuildContainer(cfg, path, logger)
	if err != nil {
		return err
	}
	logger.Info("starting", "version", version, "config", path)
	application := app.NewApp(app.AppTitle, 560, 520, c)
	application.Start()
	return nil
}

// sourceEntry is the JSON shape printed by the sources command.
type sourceEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func listSources(cmd *cobra.Command) error {
	kind, err := source.ParseKind(sourceKind)
	if err != nil {
		return err
	}
	cfg, path, logger := loadConfig()
	c := app.BuildServices(cfg, path, logger)
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	srcs, err := c.Sources.List(ctx, kind)
	if err != nil {
		return err
	}
	out := make([]sourceEntry, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, sourceEntry{
			ID:     s.ID,
			Name:   s.Name,
			Kind:   string(s.Kind),
			X:      s.Bounds.Min.X,
			Y:      s.Bounds.Min.Y,
			Width:  s.Bounds.Dx(),
			Height: s.Bounds.Dy(),
		})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
