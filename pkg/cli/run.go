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
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/benchkit/benchkit/pkg/config"
	"github.com/benchkit/benchkit/pkg/runner"
	"github.com/benchkit/benchkit/pkg/session"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:                  "run",
		EnableShellCompletion: true,
		Usage:                 "Run a bench configuration and write its report",
		Description: `Open the instruments of a bench configuration, run the measurement
sequence for its total duration and write the report: run ID, status,
every run event and one reading per measurement command.

A failed command is recorded in the report and the run continues.
Interrupting the command stops the run early and still writes the report.

Examples:

  benchctl run -c bench.yaml
  benchctl run -c bench.yaml --duration 30s --format table
  benchctl run -c https://lab.example.com/bench.yaml -o report.json -t json`,
		Flags: []cli.Flag{
			configFlag(),
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "override the configured sample interval",
			},
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "override the configured total duration",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "log every run event as it happens",
			},
			outputFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w, err := newOutputWriter(cmd)
			if err != nil {
				return err
			}
			defer closeWriter(w)

			cfg, err := loadConfig(ctx, cmd)
			if err != nil {
				return err
			}

			var opts []session.Option
			if cmd.Bool("progress") {
				opts = append(opts, session.WithCallback(runner.LogCallback(slog.Default())))
			}

			rep, runErr := session.Run(ctx, cfg, opts...)
			if rep == nil {
				return fmt.Errorf("run failed: %w", runErr)
			}
			if err := w.Serialize(ctx, rep); err != nil {
				return errors.Join(runErr, fmt.Errorf("failed to write report: %w", err))
			}
			if runErr != nil {
				return fmt.Errorf("run %s ended with errors: %w", rep.RunID, runErr)
			}
			return nil
		},
	}
}

// loadConfig loads --config and applies the --interval and --duration
// overrides.
func loadConfig(ctx context.Context, cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %q: %w", path, err)
	}

	interval, total := cmd.Duration("interval"), cmd.Duration("duration")
	if interval == 0 && total == 0 {
		return cfg, nil
	}

	f := cfg.File()
	if interval != 0 {
		f.SampleInterval = config.Duration(interval)
	}
	if total != 0 {
		f.TotalDuration = config.Duration(total)
	}
	return config.FromFile(f)
}
