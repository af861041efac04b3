// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package config

import (
	"path/filepath"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables (in increasing priority).
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Discord  DiscordConfig  `koanf:"discord"`
	Storage  StorageConfig  `koanf:"storage"`
	Ledger   LedgerConfig   `koanf:"ledger"`
	Rotation RotationConfig `koanf:"rotation"`
	Witness  WitnessConfig  `koanf:"witness"`
	Feeds    FeedsConfig    `koanf:"feeds"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - PORT: listen port (default: 3030)
//   - HOST: bind address (default: 0.0.0.0)
//   - SERVER_TIMEOUT: read/write timeout (default: 30s)
//   - SERVER_LONG_REQUEST_TIMEOUT: read/write deadline for fleet passes and
//     witness uploads (default: 15m)
//   - CORS_ORIGINS: comma-separated allowed origins (default: none)
type ServerConfig struct {
	Port               int           `koanf:"port" validate:"min=1,max=65535"`
	Host               string        `koanf:"host"`
	Timeout            time.Duration `koanf:"timeout" validate:"gt=0"`
	LongRequestTimeout time.Duration `koanf:"long_request_timeout" validate:"gt=0"`
	CORSOrigins        []string      `koanf:"cors_origins"`
}

// SecurityConfig holds the shared secret guarding admin endpoints and the
// per-IP rate limit applied to them. An empty APIKey rejects every admin
// request.
//
// Environment Variables:
//   - SOAPBOX_API_KEY: shared admin key
//   - RATE_LIMIT_REQUESTS: requests per window per IP (default: 30)
//   - RATE_LIMIT_WINDOW: window length (default: 1m)
//   - DISABLE_RATE_LIMIT: turn limiting off (default: false)
type SecurityConfig struct {
	APIKey            string        `koanf:"api_key"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gt=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// DiscordConfig holds the platform credentials and the target channel.
//
// Environment Variables:
//   - DISCORD_TOKEN: bot token
//   - DISCORD_TOKEN_FILE: file holding the token when DISCORD_TOKEN is unset
//   - BREAKING_CHANNEL_ID: channel (forum or text) that receives story posts
//   - DISCORD_THREAD_TITLE_LIMIT: max thread title length in characters (default: 90)
type DiscordConfig struct {
	Token             string `koanf:"token"`
	TokenFile         string `koanf:"token_file"`
	BreakingChannelID string `koanf:"breaking_channel_id" validate:"required"`
	ThreadTitleLimit  int    `koanf:"thread_title_limit" validate:"min=1,max=100"`
}

// StorageConfig holds the S3-compatible object store settings.
//
// When AccessKeyID is empty the client falls back to the AWS environment
// variables, the shared credentials file and finally instance IAM.
type StorageConfig struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	UseSSL          bool   `koanf:"use_ssl"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	ListPageSize    int    `koanf:"list_page_size" validate:"min=1,max=1000"`
}

// LedgerConfig selects and tunes the persistent cycle ledger.
type LedgerConfig struct {
	DataDir    string        `koanf:"data_dir" validate:"required"`
	Backend    string        `koanf:"backend" validate:"oneof=badger sqlite memory"`
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// Path returns the backend-specific location inside DataDir.
func (c LedgerConfig) Path() string {
	switch c.Backend {
	case "sqlite":
		return filepath.Join(c.DataDir, "ledger.db")
	default:
		return filepath.Join(c.DataDir, "ledger")
	}
}

// LegacyFile is the JSON ledger written by earlier deployments.
func (c LedgerConfig) LegacyFile() string {
	return filepath.Join(c.DataDir, "stories-sync.json")
}

// TempDir is where attachments are staged during a rotation.
func (c LedgerConfig) TempDir() string {
	return filepath.Join(c.DataDir, "tmp")
}

// RotationConfig controls the poll loop.
type RotationConfig struct {
	Interval       time.Duration `koanf:"interval" validate:"gt=0"`
	InitialDelay   time.Duration `koanf:"initial_delay" validate:"gte=0"`
	StoryTimeout   time.Duration `koanf:"story_timeout" validate:"gt=0"`
	DefaultStories []string      `koanf:"default_stories"`
}

// WitnessConfig controls witness video ingestion.
type WitnessConfig struct {
	Enabled       bool  `koanf:"enabled"`
	MaxBytes      int64 `koanf:"max_bytes" validate:"gt=0"`
	PostToDiscord bool  `koanf:"post_to_discord"`
}

// FeedsConfig controls the public feed endpoints: the curated stories,
// spotlights and confessions documents, the confession queue and the
// voicemail library. Prefixes name folders in the storage bucket.
//
// Environment Variables:
//   - FEEDS_ENABLED: serve the public feed endpoints (default: true)
//   - SPOTLIGHTS_PREFIX: folder holding metadata.json (default: spotlights/)
//   - CONFESSIONS_PREFIX: folder holding metadata.json (default: confessions/)
//   - CONFESSIONS_QUEUE_PREFIX: where submissions are written (default: confessions-queue/)
//   - VOICEMAILS_PREFIX: voicemail library folder (default: voicemails/)
type FeedsConfig struct {
	Enabled           bool   `koanf:"enabled"`
	SpotlightsPrefix  string `koanf:"spotlights_prefix" validate:"required"`
	ConfessionsPrefix string `koanf:"confessions_prefix" validate:"required"`
	QueuePrefix       string `koanf:"queue_prefix" validate:"required"`
	VoicemailsPrefix  string `koanf:"voicemails_prefix" validate:"required"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, config file and environment.
// See LoadWithKoanf for the layering rules.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
