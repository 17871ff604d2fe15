// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package main is the cadence command-line tool.
//
// Cadence recommends songs from pre-computed audio, cover-image and lyrics
// vectors. The CLI loads configuration (koanf), opens a song store
// (BadgerDB or in-memory), builds the recommendation engine and runs one
// command:
//
//	cadence import catalog.yaml
//	cadence recommend song <id> --k 10
//	cadence recommend mood happy --genre jazz
//	cadence recommend image 0.1,0.4,...
//	cadence recommend user alice --fallback-popular
//	cadence recommend popular
//	cadence like alice <song-id>
//	cadence play alice <song-id>
//	cadence moods
//	cadence watch catalog.yaml
//
// Results are printed as JSON on stdout; logs go to stderr.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the command context. One-shot commands abort
// their current store operation; watch stops its supervisor tree and exits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/cadence/internal/recommend"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "cadence: %v\n", err)
		if kind := recommend.ErrorKind(err); kind != "" && kind != "internal" {
			fmt.Fprintf(os.Stderr, "error kind: %s\n", kind)
		}
		return 1
	}
	return 0
}
