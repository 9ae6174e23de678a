package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override (SLICEVIEW_FRAME_RATE, ...).
const EnvPrefix = "SLICEVIEW_"

// MinSelectionFloor is the smallest accepted min_selection_px. A selection
// must exceed it on both axes, so smaller values would let clicks through.
const MinSelectionFloor = 10

// Config holds runtime configuration for capture, selection and slice windows.
// Fields are loaded from a JSON file and may be overridden from the environment.
type Config struct {
	Debug    bool   `json:"debug"`
	LogLevel string `json:"log_level"`

	// Selection surface
	MinSelectionPx int `json:"min_selection_px"`
	LongPressMs    int `json:"long_press_ms"`

	// Capture sessions
	MetadataTimeoutMs int     `json:"metadata_timeout_ms"`
	FrameRate         float64 `json:"frame_rate"`
	ThumbnailSize     int     `json:"thumbnail_size"`

	// Slice windows
	SliceBorderPx int `json:"slice_border_px"`

	MetricsAddr string `json:"metrics_addr"`

	// Global key combination that starts a selection; empty disables it.
	CaptureHotkey string `json:"capture_hotkey"`

	// Last picked source (restored into the source list on start)
	LastSourceID string `json:"last_source_id"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:             false,
		LogLevel:          "info",
		MinSelectionPx:    10,
		LongPressMs:       400,
		MetadataTimeoutMs: 3000,
		FrameRate:         30,
		ThumbnailSize:     150,
		SliceBorderPx:     1,
		CaptureHotkey:     "ctrl+shift+s",
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.MinSelectionPx < MinSelectionFloor {
		c.MinSelectionPx = MinSelectionFloor
	}
	if c.LongPressMs <= 0 {
		c.LongPressMs = 400
	}
	if c.MetadataTimeoutMs <= 0 {
		c.MetadataTimeoutMs = 3000
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 30
	}
	if c.FrameRate > 120 {
		c.FrameRate = 120
	}
	if c.ThumbnailSize < 16 {
		c.ThumbnailSize = 150
	}
	if c.SliceBorderPx < 0 {
		c.SliceBorderPx = 0
	}
	c.CaptureHotkey = strings.ToLower(strings.TrimSpace(c.CaptureHotkey))
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	default:
		c.LogLevel = "info"
	}
	return nil
}

// MetadataTimeout returns the metadata wait bound as a duration.
func (c *Config) MetadataTimeout() time.Duration {
	return time.Duration(c.MetadataTimeoutMs) * time.Millisecond
}

// LongPress returns the secondary-button hold needed to enter window-move mode.
func (c *Config) LongPress() time.Duration {
	return time.Duration(c.LongPressMs) * time.Millisecond
}

// DefaultPath returns the per-user config location, falling back to the
// working directory when no user config dir is available.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "sliceview.json"
	}
	return filepath.Join(dir, "sliceview", "config.json")
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
// Environment overrides (including a .env file next to the config) are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnv(filepath.Join(filepath.Dir(path), ".env"))
			_ = cfg.Validate()
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	cfg.ApplyEnv(filepath.Join(filepath.Dir(path), ".env"))
	_ = cfg.Validate()
	return cfg, nil
}

// ApplyEnv loads envPath (if present) into the process environment and then
// overrides fields from SLICEVIEW_* variables. Unparseable values are ignored.
func (c *Config) ApplyEnv(envPath string) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
		}
	}
	if v, ok := lookup("DEBUG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup("MIN_SELECTION_PX"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.MinSelectionPx = n
		}
	}
	if v, ok := lookup("LONG_PRESS_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.LongPressMs = n
		}
	}
	if v, ok := lookup("METADATA_TIMEOUT_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.MetadataTimeoutMs = n
		}
	}
	if v, ok := lookup("FRAME_RATE"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.FrameRate = f
		}
	}
	if v, ok := lookup("THUMBNAIL_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.ThumbnailSize = n
		}
	}
	if v, ok := lookup("METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CAPTURE_HOTKEY"); ok {
		c.CaptureHotkey = v
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
