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
	"time"

	"github.com/urfave/cli/v3"

	"github.com/benchkit/benchkit/pkg/instrument"
	"github.com/benchkit/benchkit/pkg/instrument/serial"
)

func sendCmd() *cli.Command {
	return &cli.Command{
		Name:                  "send",
		EnableShellCompletion: true,
		Usage:                 "Send one command to an instrument and print its response",
		ArgsUsage:             "COMMAND",
		Description: `Open an instrument, send COMMAND, print the response and close the
instrument again. Connection parameters are given as repeated -p key=value
flags; run "benchctl controls DRIVER" to list them.

Examples:

  benchctl send -d serial -p port=/dev/ttyUSB0 -p baud=115200 "*IDN?"
  benchctl send -d daq -p port=COM4 "READ 0"
  benchctl send -d serial -p port=COM3 --no-response "OUTP ON"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "driver",
				Aliases: []string{"d"},
				Value:   serial.Name,
				Usage:   "instrument driver",
			},
			&cli.StringSliceFlag{
				Name:    "param",
				Aliases: []string{"p"},
				Usage:   "connection parameter as key=value, can be repeated",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "response timeout (default: the driver's)",
			},
			&cli.BoolFlag{
				Name:  "no-response",
				Usage: "do not wait for a response",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			command := cmd.Args().First()
			if command == "" || cmd.Args().Len() > 1 {
				return errors.New("expected exactly one COMMAND argument, quote commands that contain spaces")
			}

			reg := instrument.NewFromGlobal()
			driver := cmd.String("driver")
			controls, err := reg.Controls(driver)
			if err != nil {
				return err
			}
			params, err := parseParams(cmd.StringSlice("param"), controls)
			if err != nil {
				return err
			}

			req := instrument.Request{
				Command:        []byte(command),
				ExpectResponse: !cmd.Bool("no-response"),
				Timeout:        cmd.Duration("timeout"),
			}

			return instrument.Use(ctx, reg, driver, params, func(ctx context.Context, inst instrument.Instrument) error {
				start := time.Now()
				resp, err := inst.SendCommand(ctx, req)
				if err != nil {
					return fmt.Errorf("command %q failed after %s: %w", command, time.Since(start).Round(time.Millisecond), err)
				}
				if resp != nil {
					_, err = fmt.Fprintln(cmd.Root().Writer, resp.String())
				}
				return err
			})
		},
	}
}
