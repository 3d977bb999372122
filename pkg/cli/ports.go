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
	"strings"

	"github.com/urfave/cli/v3"

	bkerrors "github.com/benchkit/benchkit/pkg/errors"
	"github.com/benchkit/benchkit/pkg/instrument"
	"github.com/benchkit/benchkit/pkg/instrument/serial"
)

// PortInfo is one discovered serial port and the drivers that claim it.
type PortInfo struct {
	Port     string   `json:"port" yaml:"port"`
	VID      string   `json:"vid,omitempty" yaml:"vid,omitempty"`
	PID      string   `json:"pid,omitempty" yaml:"pid,omitempty"`
	Serial   string   `json:"serial,omitempty" yaml:"serial,omitempty"`
	Product  string   `json:"product,omitempty" yaml:"product,omitempty"`
	Drivers  []string `json:"drivers,omitempty" yaml:"drivers,omitempty"`
	Loopback bool     `json:"loopback,omitempty" yaml:"loopback,omitempty"`
}

// PortList implements serializer.Tabular.
type PortList []PortInfo

func (l PortList) TableHeader() []string {
	return []string{"PORT", "VID", "PID", "SERIAL", "PRODUCT", "DRIVERS", "LOOPBACK"}
}

func (l PortList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, p := range l {
		loop := ""
		if p.Loopback {
			loop = "yes"
		}
		rows = append(rows, []string{
			p.Port, p.VID, p.PID, p.Serial, p.Product, strings.Join(p.Drivers, ","), loop,
		})
	}
	return rows
}

func portsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "ports",
		EnableShellCompletion: true,
		Usage:                 "List serial ports and the instrument drivers that claim them",
		Description: `List the serial ports on this host with their USB identity and the
registered drivers whose match parameters the port satisfies.

With --probe-loopback every port is sent a probe line and the first one
that echoes it back (a port with TX wired to RX) is flagged.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "probe-loopback",
				Usage: "probe ports for a TX/RX loopback",
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

			candidates, err := serial.Discover(nil)
			if err != nil {
				return fmt.Errorf("failed to discover ports: %w", err)
			}

			loopback := ""
			if cmd.Bool("probe-loopback") && len(candidates) > 0 {
				loopback, err = serial.FindLoopbackPort(ctx, candidates, serial.DialSerial)
				if err != nil && !bkerrors.IsCode(err, bkerrors.ErrCodeNotFound) {
					return err
				}
			}

			return w.Serialize(ctx, describePorts(instrument.NewFromGlobal(), candidates, loopback))
		},
	}
}

func describePorts(reg *instrument.Registry, candidates []instrument.Params, loopback string) PortList {
	list := make(PortList, 0, len(candidates))
	for _, c := range candidates {
		str := func(key string) string {
			s, _ := c.String(key)
			return s
		}
		p := PortInfo{
			Port:    str(instrument.ParamPort),
			VID:     str(instrument.ParamVendorID),
			PID:     str(instrument.ParamProductID),
			Serial:  str(instrument.ParamSerialNumber),
			Product: str(instrument.ParamProduct),
			Drivers: reg.Match(c),
		}
		p.Loopback = loopback != "" && p.Port == loopback
		list = append(list, p)
	}
	return list
}
