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

	"github.com/urfave/cli/v3"

	"github.com/benchkit/benchkit/pkg/api"
	"github.com/benchkit/benchkit/pkg/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a bench configuration over HTTP",
		Description: `Start the HTTP control plane for a bench configuration. Runs are started
with POST /v1/run, stopped with DELETE /v1/run and inspected with
GET /v1/run and GET /v1/run/events. Prometheus metrics are served on
/metrics.`,
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "listen port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "override the configured sample interval",
			},
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "override the configured total duration",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(ctx, cmd)
			if err != nil {
				return err
			}
			return api.Serve(ctx, cfg,
				api.WithServerOptions(server.WithPort(int(cmd.Int("port")))))
		},
	}
}
