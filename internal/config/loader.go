package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MAILTRIAGE_"

// Load reads configuration with precedence (highest to lowest):
//  1. MAILTRIAGE_* environment variables (MAILTRIAGE_MODEL_BASE_URL, ...)
//  2. YAML config file, when configPath is non-empty and the file exists
//  3. Hardcoded defaults
//
// Environment variables map to config keys by lowercasing and splitting on
// the first underscore after the prefix:
//
//	MAILTRIAGE_MODEL_BASE_URL   -> model.base_url
//	MAILTRIAGE_CALENDAR_BACKEND -> calendar.backend
//	MAILTRIAGE_RUN_TODAY        -> run.today
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file %s: %w", configPath, err)
		}
		if err == nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// MAILTRIAGE_SECTION_FIELD_NAME -> section.field_name
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
