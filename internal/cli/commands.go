// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package cli

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomtom215/soapbox/internal/validation"
)

// call runs one request and prints its payload to the command's stdout.
func call(cmd *cobra.Command, opts *RootOptions, method, path string, body io.Reader, contentType string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := NewClient(opts).Do(ctx, method, path, body, contentType)
	if len(data) > 0 && string(data) != "null" {
		if perr := printJSON(cmd.OutOrStdout(), data); perr != nil && err == nil {
			return perr
		}
	}
	return err
}

func storyIDArg(args []string) (string, error) {
	id := args[0]
	if !validation.IsStoryID(id) {
		return "", NewExitError(ExitCommandError, "invalid story id "+strconv.Quote(id))
	}
	return id, nil
}

// NewHealthCommand creates the health command.
func NewHealthCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health and the last sync time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodGet, "/health", nil, "")
		},
	}
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one fleet pass now",
		Long: `Run one fleet pass now, rotating every story whose cycle key changed.

Prints the sync report: per-story outcomes and counts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodPost, "/admin/sync-stories", nil, "")
		},
	}
}

// NewRotateCommand creates the rotate command.
func NewRotateCommand(opts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "rotate [storyId]",
		Short: "Retire and republish one story, or every story with --all",
		Long: `Retire the current post and publish a fresh one even when the cycle key
has not changed.

Examples:
  soapboxctl rotate Story3
  soapboxctl rotate --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case all && len(args) > 0:
				return NewExitError(ExitCommandError, "pass a story id or --all, not both")
			case all:
				return call(cmd, opts, http.MethodPost, "/admin/rotate-stories", nil, "")
			case len(args) == 0:
				return NewExitError(ExitCommandError, "a story id or --all is required")
			}
			id, err := storyIDArg(args)
			if err != nil {
				return err
			}
			return call(cmd, opts, http.MethodPost, "/admin/rotate-story/"+url.PathEscape(id), nil, "")
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "rotate every story")
	return cmd
}

// NewLedgerCommand creates the ledger command.
func NewLedgerCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ledger",
		Short: "Print every ledger entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodGet, "/admin/ledger", nil, "")
		},
	}
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <storyId>",
		Short: "Show a story's cycle key, presentation and ledger entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := storyIDArg(args)
			if err != nil {
				return err
			}
			return call(cmd, opts, http.MethodGet, "/admin/stories/"+url.PathEscape(id), nil, "")
		},
	}
}
