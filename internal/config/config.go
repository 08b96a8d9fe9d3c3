package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Site    SiteConfig
	Script  ScriptConfig
	Storage StorageConfig
	History HistoryConfig
	Log     LogConfig
}

// SiteConfig locates the site checkout and names the domain mixed into the
// fingerprint.
type SiteConfig struct {
	Root        string
	Domain      string
	IndexFile   string
	SitemapFile string
	FeedFile    string
}

type ScriptConfig struct {
	// OutputDir is relative to Site.Root unless absolute.
	OutputDir string
	WrapWidth int
}

type StorageConfig struct {
	DataDir string
}

type HistoryConfig struct {
	Enabled bool
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Site: SiteConfig{
			Root:        ".",
			Domain:      "theanswerlayer.com",
			IndexFile:   "index.html",
			SitemapFile: "sitemap.xml",
			FeedFile:    "feed.json",
		},
		Script: ScriptConfig{
			OutputDir: "DAILY_VIDEO_SCRIPTS",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend and environment
// variables.
//
// The file lives at $XDG_CONFIG_HOME/answerlayer/config.json (falling back
// to ~/.config). Environment variables (ANSWERLAYER_*) override file values.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if strings.TrimSpace(cfg.Site.Domain) == "" {
		return Config{}, fmt.Errorf("missing required config: site.domain. " +
			"Set it via environment variable ANSWERLAYER_SITE_DOMAIN or `answerlayer config set site.domain <domain>`")
	}
	if cfg.Script.WrapWidth < 0 {
		return Config{}, fmt.Errorf("invalid config: script.wrap_width must be >= 0, got %d", cfg.Script.WrapWidth)
	}

	return cfg, nil
}

// ScriptDir resolves the script output directory against the site root.
func (c Config) ScriptDir() string {
	if filepath.IsAbs(c.Script.OutputDir) {
		return c.Script.OutputDir
	}
	return filepath.Join(c.Site.Root, c.Script.OutputDir)
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "answerlayer-data"
		}
	}
	return filepath.Join(dir, "answerlayer")
}
