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

package serial

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	goserial "go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/benchkit/benchkit/pkg/defaults"
	bkerrors "github.com/benchkit/benchkit/pkg/errors"
	"github.com/benchkit/benchkit/pkg/instrument"
)

// PortLister lists the serial ports present on the host.
type PortLister func() ([]*enumerator.PortDetails, error)

// ListPorts lists ports with USB metadata where the platform provides it,
// and by name only otherwise.
func ListPorts() ([]*enumerator.PortDetails, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		return details, nil
	}
	slog.Debug("detailed port enumeration failed, falling back to names", "error", err)

	names, nerr := goserial.GetPortsList()
	if nerr != nil {
		return nil, bkerrors.Wrap(bkerrors.ErrCodeInternal, "failed to list serial ports", nerr)
	}
	details = make([]*enumerator.PortDetails, 0, len(names))
	for _, n := range names {
		details = append(details, &enumerator.PortDetails{Name: n})
	}
	return details, nil
}

// Discover returns one candidate parameter set per port. USB ports carry
// upper-cased vid and pid so they compare equal to declared match
// parameters regardless of how the platform reports them.
func Discover(list PortLister) ([]instrument.Params, error) {
	if list == nil {
		list = ListPorts
	}
	ports, err := list()
	if err != nil {
		return nil, err
	}

	candidates := make([]instrument.Params, 0, len(ports))
	for _, p := range ports {
		if p == nil || p.Name == "" {
			continue
		}
		params := instrument.Params{instrument.ParamPort: p.Name}
		if p.IsUSB {
			params[instrument.ParamVendorID] = strings.ToUpper(p.VID)
			params[instrument.ParamProductID] = strings.ToUpper(p.PID)
			if p.SerialNumber != "" {
				params[instrument.ParamSerialNumber] = p.SerialNumber
			}
			if p.Product != "" {
				params[instrument.ParamProduct] = p.Product
			}
		}
		candidates = append(candidates, params)
	}
	return candidates, nil
}

// probeCommand is written to each port by FindLoopbackPort.
const probeCommand = "benchkit-loopback-probe"

// FindLoopbackPort returns the first candidate port that echoes a probe
// back, i.e. a port whose TX line is wired to its RX line. Ports that fail
// to open or stay silent are skipped.
func FindLoopbackPort(ctx context.Context, candidates []instrument.Params, dial Dialer) (string, error) {
	for _, c := range candidates {
		port, ok := c.String(instrument.ParamPort)
		if !ok || port == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if probeEcho(ctx, port, dial) {
			slog.Debug("loopback port detected", "port", port)
			return port, nil
		}
	}
	return "", bkerrors.New(bkerrors.ErrCodeNotFound,
		fmt.Sprintf("no loopback port among %d candidates", len(candidates)))
}

func probeEcho(ctx context.Context, port string, dial Dialer) bool {
	inst, err := Open(ctx, Config{Port: port, ResponseTimeout: defaults.InstrumentProbeTimeout}, dial)
	if err != nil {
		slog.Debug("skipping port", "port", port, "error", err)
		return false
	}
	defer func() {
		if err := inst.Close(); err != nil {
			slog.Debug("failed to close probed port", "port", port, "error", err)
		}
	}()

	resp, err := inst.SendCommand(ctx, instrument.Request{
		Command:        []byte(probeCommand),
		ExpectResponse: true,
	})
	if err != nil {
		return false
	}
	return resp.String() == probeCommand
}
