package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names used by the loader.
const (
	EnvPrefix     = "WORDSTAT_"
	EnvConfigFile = EnvPrefix + "CONFIG"
	EnvDotEnvFile = EnvPrefix + "DOTENV"
)

// LoadDotEnv exports variables from the given .env files (".env" when none
// are given) into the process environment. Variables that are already set
// win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("%w: %s: %w", ErrLoadConfig, p, err)
		}
	}
	return nil
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if WORDSTAT_CONFIG is set
//  3. env (prefix WORDSTAT_), including values exported from a .env file
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	var dotenv []string
	if path := os.Getenv(EnvDotEnvFile); path != "" {
		dotenv = append(dotenv, path)
	}
	if err := LoadDotEnv(dotenv...); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// WORDSTAT_API_BASE_URL -> api_base_url (flat keys, underscores kept
	// to match the koanf tags). WORDSTAT_METRICS_REFRESH_MS -> metrics.refresh_ms.
	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps a prefixed variable name to its koanf key.
func envKey(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	if rest, ok := strings.CutPrefix(s, "metrics_"); ok {
		return "metrics." + rest
	}
	return s
}
