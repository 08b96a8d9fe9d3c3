package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "site.root", typ: kString, env: "ANSWERLAYER_SITE_ROOT",
		apply:   func(cfg *Config, v any) { cfg.Site.Root = v.(string) },
		extract: func(cfg Config) any { return cfg.Site.Root },
	},
	{
		key: "site.domain", typ: kString, env: "ANSWERLAYER_SITE_DOMAIN",
		apply:   func(cfg *Config, v any) { cfg.Site.Domain = v.(string) },
		extract: func(cfg Config) any { return cfg.Site.Domain },
	},
	{
		key: "site.index_file", typ: kString, env: "ANSWERLAYER_SITE_INDEX_FILE",
		apply:   func(cfg *Config, v any) { cfg.Site.IndexFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Site.IndexFile },
	},
	{
		key: "site.sitemap_file", typ: kString, env: "ANSWERLAYER_SITE_SITEMAP_FILE",
		apply:   func(cfg *Config, v any) { cfg.Site.SitemapFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Site.SitemapFile },
	},
	{
		key: "site.feed_file", typ: kString, env: "ANSWERLAYER_SITE_FEED_FILE",
		apply:   func(cfg *Config, v any) { cfg.Site.FeedFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Site.FeedFile },
	},
	{
		key: "script.output_dir", typ: kString, env: "ANSWERLAYER_SCRIPT_OUTPUT_DIR",
		apply:   func(cfg *Config, v any) { cfg.Script.OutputDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Script.OutputDir },
	},
	{
		key: "script.wrap_width", typ: kInt, env: "ANSWERLAYER_SCRIPT_WRAP_WIDTH",
		apply:   func(cfg *Config, v any) { cfg.Script.WrapWidth = v.(int) },
		extract: func(cfg Config) any { return cfg.Script.WrapWidth },
	},
	{
		key: "storage.data_dir", typ: kString, env: "ANSWERLAYER_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "history.enabled", typ: kBool, env: "ANSWERLAYER_HISTORY_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.History.Enabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.History.Enabled },
	},
	{
		key: "log.level", typ: kString, env: "ANSWERLAYER_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
