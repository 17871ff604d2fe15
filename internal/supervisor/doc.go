// Cadence - Multimodal Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package supervisor runs Cadence's long-lived services under suture v4.

Only the watch command is long-lived; every other command is one-shot and
never builds a tree.

	root ("cadence")
	└── catalog-layer
	    └── CatalogSyncService (services package)

Crashed services are restarted with suture's backoff. After
FailureThreshold failures (decaying at FailureDecay per second) the
supervisor waits FailureBackoff before the next restart.

Supervisor events go through sutureslog into an *slog.Logger; build it with
logging.NewSlogLogger so they land in the zerolog stream:

	tree, err := supervisor.NewSupervisorTree(
	    logging.NewSlogLogger(logging.WithComponent("supervisor")),
	    supervisor.DefaultTreeConfig(),
	)
	tree.AddCatalogService(services.NewCatalogSyncService(cfg, store, engine, logger))
	err = tree.Serve(ctx)

Serve returns when ctx is canceled. Services that do not stop within
ShutdownTimeout show up in UnstoppedServiceReport.
*/
package supervisor
