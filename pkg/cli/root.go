// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	// instrument variants register themselves on import
	_ "github.com/benchkit/benchkit/pkg/instrument/daq"
	_ "github.com/benchkit/benchkit/pkg/instrument/loopback"
	_ "github.com/benchkit/benchkit/pkg/instrument/serial"

	"github.com/benchkit/benchkit/pkg/logging"
	"github.com/benchkit/benchkit/pkg/version"
)

const name = "benchctl"

// Execute runs the CLI with os.Args and exits non-zero on failure.
// SIGINT and SIGTERM cancel the command context, which stops an active
// run and closes its instruments.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	info := version.Get()
	return &cli.Command{
		Name:                  name,
		Usage:                 "Drive bench instruments and run timed measurement sequences",
		Version:               info.String(),
		EnableShellCompletion: true,
		Description: `benchctl talks to bench instruments over serial ports and runs timed
measurement sequences against them:

  run      - execute a bench configuration and write the report
  ports    - list serial ports and the instrument drivers that claim them
  send     - send a single command to an instrument
  controls - show the connection parameters a driver accepts
  serve    - expose a bench configuration over HTTP`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("BENCHKIT_LOG_LEVEL", logging.EnvLogLevel),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := cmd.String("log-level")
			logging.SetDefaultStructuredLoggerWithLevel(name, info.Version, level)
			slog.Debug("starting",
				"name", name,
				"version", info.Version,
				"commit", info.Commit,
				"date", info.Date,
				"logLevel", level)
			return ctx, nil
		},
		Commands: []*cli.Command{
			runCmd(),
			portsCmd(),
			sendCmd(),
			controlsCmd(),
			serveCmd(),
		},
	}
}
