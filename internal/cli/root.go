// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package cli implements soapboxctl, the operator client for the admin API.
package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Environment variables read for flag defaults.
const (
	EnvURL = "SOAPBOX_URL"
	EnvKey = "SOAPBOX_API_KEY"
)

// DefaultURL is used when neither --url nor SOAPBOX_URL is set.
const DefaultURL = "http://localhost:3030"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// NewRootCommand creates the soapboxctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "soapboxctl",
		Short: "Operate a Soapbox story rotation server",
		Long: `soapboxctl talks to the Soapbox admin API.

Admin commands need the shared key, passed with --key or SOAPBOX_API_KEY.
Responses are printed as indented JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.URL, "url", envOr(EnvURL, DefaultURL), "server base URL (env "+EnvURL+")")
	cmd.PersistentFlags().StringVar(&opts.Key, "key", os.Getenv(EnvKey), "admin API key (env "+EnvKey+")")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "request timeout")

	cmd.AddCommand(NewHealthCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewRotateCommand(opts))
	cmd.AddCommand(NewLedgerCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewWitnessCommand(opts))

	return cmd
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
