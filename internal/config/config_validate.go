// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/validation"
)

// ErrMissingToken is returned when no Discord token could be found.
var ErrMissingToken = errors.New("DISCORD_TOKEN is required (set DISCORD_TOKEN or provide a token file)")

// ErrMissingBucket is returned when S3_BUCKET is unset.
var ErrMissingBucket = errors.New("S3_BUCKET is required")

// Validate checks that required configuration is present and valid.
// Missing credentials and a missing bucket are fatal at startup.
func (c *Config) Validate() error {
	if err := c.validateDiscord(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	return nil
}

func (c *Config) validateDiscord() error {
	if c.Discord.Token == "" {
		return ErrMissingToken
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.Bucket == "" {
		return ErrMissingBucket
	}
	if err := validateEndpoint(c.Storage.Endpoint, "S3_ENDPOINT"); err != nil {
		return err
	}
	if (c.Storage.AccessKeyID == "") != (c.Storage.SecretAccessKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	return nil
}

// AdminEnabled reports whether admin endpoints can ever succeed.
func (c *Config) AdminEnabled() bool {
	return c.Security.APIKey != ""
}
