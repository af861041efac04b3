// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package config

import (
	"fmt"
	"os"
	"strings"
)

// tokenFileFallbacks are tried in order when neither DISCORD_TOKEN nor
// DISCORD_TOKEN_FILE yields a token. Render mounts secret files here.
var tokenFileFallbacks = []string{
	"/etc/secrets/DISCORD_TOKEN",
	"/etc/secrets/discord_token",
}

// resolveDiscordToken fills Discord.Token from a secret file when it was not
// set directly.
func (c *Config) resolveDiscordToken() error {
	c.Discord.Token = strings.TrimSpace(c.Discord.Token)
	if c.Discord.Token != "" {
		return nil
	}

	candidates := make([]string, 0, len(tokenFileFallbacks)+1)
	if c.Discord.TokenFile != "" {
		candidates = append(candidates, c.Discord.TokenFile)
	}
	candidates = append(candidates, tokenFileFallbacks...)

	for _, path := range candidates {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied secret path
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read discord token file %s: %w", path, err)
		}
		if token := strings.TrimSpace(string(data)); token != "" {
			c.Discord.Token = token
			return nil
		}
	}
	return nil
}
