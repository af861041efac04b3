// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/soapbox/config.yaml",
	"/etc/soapbox/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultBreakingChannelID is the channel used by the reference deployment.
const DefaultBreakingChannelID = "1407176815285637313"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               3030,
			Host:               "0.0.0.0",
			Timeout:            30 * time.Second,
			LongRequestTimeout: 15 * time.Minute,
			CORSOrigins:        []string{},
		},
		Security: SecurityConfig{
			APIKey:            "",
			RateLimitRequests: 30,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Discord: DiscordConfig{
			TokenFile:         tokenFileFallbacks[0],
			BreakingChannelID: DefaultBreakingChannelID,
			ThreadTitleLimit:  90,
		},
		Storage: StorageConfig{
			Region:       "us-east-2",
			Endpoint:     "s3.amazonaws.com",
			UseSSL:       true,
			ListPageSize: 1000,
		},
		Ledger: LedgerConfig{
			DataDir:    "/opt/render/project/data",
			Backend:    "badger",
			SyncWrites: true,
			GCInterval: 10 * time.Minute,
		},
		Rotation: RotationConfig{
			Interval:       60 * time.Second,
			InitialDelay:   3 * time.Second,
			StoryTimeout:   2 * time.Minute,
			DefaultStories: []string{"Story1", "Story2", "Story3", "Story4", "Story5"},
		},
		Witness: WitnessConfig{
			Enabled:       true,
			MaxBytes:      200 << 20,
			PostToDiscord: true,
		},
		Feeds: FeedsConfig{
			Enabled:           true,
			SpotlightsPrefix:  "spotlights/",
			ConfessionsPrefix: "confessions/",
			QueuePrefix:       "confessions-queue/",
			VoicemailsPrefix:  "voicemails/",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: explicit allow-list, highest priority
//
// The Discord token is then resolved from secret files if needed and the
// result is validated.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.resolveDiscordToken(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"rotation.default_stories",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Server
	"port":                        "server.port",
	"host":                        "server.host",
	"server_timeout":              "server.timeout",
	"server_long_request_timeout": "server.long_request_timeout",
	"cors_origins":                "server.cors_origins",

	// Security
	"soapbox_api_key":     "security.api_key",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Discord
	"discord_token":              "discord.token",
	"discord_token_file":         "discord.token_file",
	"breaking_channel_id":        "discord.breaking_channel_id",
	"discord_thread_title_limit": "discord.thread_title_limit",

	// Object storage
	"s3_bucket":            "storage.bucket",
	"aws_region":           "storage.region",
	"s3_endpoint":          "storage.endpoint",
	"s3_use_ssl":           "storage.use_ssl",
	"s3_access_key_id":     "storage.access_key_id",
	"s3_secret_access_key": "storage.secret_access_key",
	"s3_list_page_size":    "storage.list_page_size",

	// Ledger
	"data_dir":           "ledger.data_dir",
	"ledger_backend":     "ledger.backend",
	"ledger_sync_writes": "ledger.sync_writes",
	"ledger_gc_interval": "ledger.gc_interval",

	// Rotation
	"rotation_interval":      "rotation.interval",
	"rotation_initial_delay": "rotation.initial_delay",
	"rotation_timeout":       "rotation.story_timeout",
	"default_stories":        "rotation.default_stories",

	// Witness
	"witness_enabled":         "witness.enabled",
	"witness_max_bytes":       "witness.max_bytes",
	"witness_post_to_discord": "witness.post_to_discord",

	// Feeds
	"feeds_enabled":            "feeds.enabled",
	"spotlights_prefix":        "feeds.spotlights_prefix",
	"confessions_prefix":       "feeds.confessions_prefix",
	"confessions_queue_prefix": "feeds.queue_prefix",
	"voicemails_prefix":        "feeds.voicemails_prefix",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - S3_BUCKET -> storage.bucket
//   - ROTATION_TIMEOUT -> rotation.story_timeout
//   - PATH -> "" (ignored)
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
