package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known embeddings provider names.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = []string{"openai", "ollama"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Dex
	if cfg.Dex.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("dex.timeout_seconds %d must not be negative", cfg.Dex.TimeoutSeconds))
	}
	if cfg.Dex.CachePath == "" && cfg.Dex.PostgresDSN == "" {
		slog.Warn("neither dex.cache_path nor dex.postgres_dsn is set; the service cannot answer when the remote API is down")
	}
	if cfg.Dex.CachePath != "" && cfg.Dex.PostgresDSN != "" {
		slog.Warn("both dex.cache_path and dex.postgres_dsn are set; the Postgres cache takes precedence")
	}

	// Semantic index
	if cfg.Semantic.Enabled {
		if cfg.Semantic.PostgresDSN == "" {
			errs = append(errs, errors.New("semantic.postgres_dsn is required when semantic.enabled is true"))
		}
		if cfg.Semantic.Provider.Name == "" {
			errs = append(errs, errors.New("semantic.provider.name is required when semantic.enabled is true"))
		}
		if cfg.Semantic.EmbeddingDimensions <= 0 {
			slog.Warn("semantic.embedding_dimensions is not set; defaulting to 1536")
		}
	}
	validateProviderName(cfg.Semantic.Provider.Name)

	// Discord
	if cfg.Discord.GuildID != "" && cfg.Discord.Token == "" {
		slog.Warn("discord.guild_id is set but discord.token is empty; the Discord front end stays disabled")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// [ValidProviderNames].
func validateProviderName(name string) {
	if name == "" {
		return
	}
	if slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown embeddings provider name, may be a typo",
		"name", name,
		"known", ValidProviderNames,
	)
}
