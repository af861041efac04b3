// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// validateEndpoint checks an S3 endpoint given as host or host:port.
// minio-go takes the scheme from UseSSL, so a scheme here is a mistake.
func validateEndpoint(endpoint, fieldName string) error {
	if endpoint == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if strings.Contains(endpoint, "://") {
		return fmt.Errorf("%s must not include a scheme (set S3_USE_SSL instead): %s", fieldName, endpoint)
	}
	if strings.ContainsAny(endpoint, "/?#") {
		return fmt.Errorf("%s must be host or host:port only: %s", fieldName, endpoint)
	}

	host := endpoint
	if strings.Contains(endpoint, ":") {
		h, port, err := net.SplitHostPort(endpoint)
		if err != nil {
			return fmt.Errorf("%s is not a valid host:port: %w", fieldName, err)
		}
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("%s port must be between 1 and 65535, got: %s", fieldName, port)
		}
		host = h
	}
	if host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}
