// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package logging provides the process-wide zerolog logger for Cadence.

Every component receives a zerolog.Logger derived from the global logger,
usually through WithComponent:

	logging.Init(logging.Config{Level: "debug", Format: "console"})
	engineLogger := logging.WithComponent("recommend")

Request-scoped logging goes through the context helpers, which attach the
request_id field when one is present:

	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
	logging.Ctx(ctx).Info().Msg("request started")

SlogHandler bridges slog-only libraries (the suture supervisor via
sutureslog) into the same JSON stream.

Always terminate event chains with Msg or Send; an unterminated event is
never written.
*/
package logging
