// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

/*
Package config provides centralized configuration management for Soapbox.

Configuration is layered with koanf v2: struct defaults, then an optional YAML
file, then environment variables. Only the environment variables listed in
envMappings are read, so unrelated variables never leak into the config.

# Environment Variables

Server:
  - PORT: listen port (default: 3030)
  - HOST: bind address (default: 0.0.0.0)
  - SERVER_TIMEOUT: HTTP read/write timeout (default: 30s)
  - SERVER_LONG_REQUEST_TIMEOUT: deadline for fleet passes and witness uploads (default: 15m)
  - CORS_ORIGINS: comma-separated origins
  - SOAPBOX_API_KEY: shared secret for admin endpoints (empty rejects all)

Discord:
  - DISCORD_TOKEN: bot token
  - DISCORD_TOKEN_FILE: token file (default: /etc/secrets/DISCORD_TOKEN, then /etc/secrets/discord_token)
  - BREAKING_CHANNEL_ID: target channel
  - DISCORD_THREAD_TITLE_LIMIT: thread title limit (default: 90)

Object store:
  - S3_BUCKET: bucket name (required)
  - AWS_REGION: region (default: us-east-2)
  - S3_ENDPOINT: host[:port] (default: s3.amazonaws.com)
  - S3_USE_SSL: use HTTPS (default: true)
  - S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY: static credentials (default: AWS chain)
  - S3_LIST_PAGE_SIZE: keys per listing page (default: 1000)

Ledger:
  - DATA_DIR: persistent data directory (default: /opt/render/project/data)
  - LEDGER_BACKEND: badger, sqlite or memory (default: badger)
  - LEDGER_SYNC_WRITES: fsync every write (default: true)
  - LEDGER_GC_INTERVAL: badger value log GC interval (default: 10m)

Rotation:
  - ROTATION_INTERVAL: poll interval (default: 60s)
  - ROTATION_INITIAL_DELAY: delay before the first pass (default: 3s)
  - ROTATION_TIMEOUT: deadline for a single story rotation (default: 2m)
  - DEFAULT_STORIES: fallback story IDs (default: Story1..Story5)

Witness:
  - WITNESS_ENABLED (default: true)
  - WITNESS_MAX_BYTES (default: 209715200)
  - WITNESS_POST_TO_DISCORD (default: true)

Feeds:
  - FEEDS_ENABLED (default: true)
  - SPOTLIGHTS_PREFIX (default: spotlights/)
  - CONFESSIONS_PREFIX (default: confessions/)
  - CONFESSIONS_QUEUE_PREFIX (default: confessions-queue/)
  - VOICEMAILS_PREFIX (default: voicemails/)

Logging:
  - LOG_LEVEL (default: info), LOG_FORMAT (default: json), LOG_CALLER (default: false)

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
*/
package config
