// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Command soapboxctl is the operator client for a running Soapbox server.
//
//	soapboxctl health
//	soapboxctl sync
//	soapboxctl rotate Story3
//	soapboxctl rotate --all
//	soapboxctl ledger
//	soapboxctl inspect Story3
//	soapboxctl witness Story3 ./clip.mp4 --title "Harbour fire"
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/soapbox/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "soapboxctl:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
