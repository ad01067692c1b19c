package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "CRUDKEEPER_"

	// DefaultDir is where Load looks for YAML files unless told otherwise.
	DefaultDir = "configs"
)

// Load reads configuration, highest precedence last:
//
//  1. built-in defaults
//  2. {dir}/base.yaml (required)
//  3. {dir}/{profile}.yaml (optional; skipped when profile is empty)
//  4. environment variables with the CRUDKEEPER_ prefix
//
// Env names map onto known keys first, so CRUDKEEPER_AUTH_SIGNING_KEY sets
// auth.signing_key rather than auth.signing.key.
func Load(dir, profile string) (*Config, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	k := koanf.New(".")
	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("default %s: %w", key, err)
		}
	}

	basePath := filepath.Join(dir, "base.yaml")
	if err := k.Load(file.Provider(basePath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading base config %s: %w", basePath, err)
	}
	if profile != "" {
		profilePath := filepath.Join(dir, profile+".yaml")
		if _, err := os.Stat(profilePath); err == nil {
			if err := k.Load(file.Provider(profilePath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading profile config %s: %w", profilePath, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", profilePath, err)
		}
	}

	lookup := envLookup(k.Keys())
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			if known, ok := lookup[key]; ok {
				return known, value
			}
			return strings.ReplaceAll(key, "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func validateProfile(profile string) error {
	if strings.ContainsAny(profile, `/\`) || strings.Contains(profile, "..") {
		return fmt.Errorf("profile must be a bare name, got %q", profile)
	}
	return nil
}

// envLookup maps "auth_signing_key" to "auth.signing_key" for every known key.
func envLookup(keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		out[strings.ReplaceAll(key, ".", "_")] = key
	}
	return out
}
