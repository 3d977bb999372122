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

package daq

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	bkerrors "github.com/benchkit/benchkit/pkg/errors"
	"github.com/benchkit/benchkit/pkg/instrument"
	"github.com/benchkit/benchkit/pkg/instrument/serial"
)

// Variant name used in configuration files.
const Name = "daq"

// USB identifiers of the Arduino Uno board the DAQ firmware runs on.
const (
	VendorID  = "2341"
	ProductID = "0043"
)

// ParamReadCommand is the firmware command that samples one channel.
const ParamReadCommand = "read_command"

// DefaultReadCommand is sent as "<command> <channel>".
const DefaultReadCommand = "READ"

// MatchParams identify DAQ boards among discovered ports.
func MatchParams() instrument.Params {
	return instrument.Params{
		instrument.ParamVendorID:  VendorID,
		instrument.ParamProductID: ProductID,
	}
}

// Instrument is a serial instrument running the DAQ firmware.
type Instrument struct {
	*serial.Instrument
	readCommand string
}

// New wraps an opened serial instrument.
func New(s *serial.Instrument, readCommand string) *Instrument {
	if readCommand == "" {
		readCommand = DefaultReadCommand
	}
	return &Instrument{Instrument: s, readCommand: readCommand}
}

// ReadChannel samples one analog channel and returns its numeric value.
func (d *Instrument) ReadChannel(ctx context.Context, ch int) (float64, error) {
	if ch < 0 {
		return 0, bkerrors.New(bkerrors.ErrCodeInvalidRequest, fmt.Sprintf("invalid channel %d", ch))
	}

	resp, err := d.SendCommand(ctx, instrument.Request{
		Command:        []byte(fmt.Sprintf("%s %d", d.readCommand, ch)),
		ExpectResponse: true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read channel %d: %w", ch, err)
	}

	return ParseReading(resp.String())
}

// ParseReading parses a firmware reading such as "3.30" or "A0=3.30".
func ParseReading(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if _, after, ok := strings.Cut(s, "="); ok {
		s = strings.TrimSpace(after)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, bkerrors.WrapWithContext(bkerrors.ErrCodeInternal, "malformed reading", err,
			map[string]any{"raw": raw})
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, bkerrors.NewWithContext(bkerrors.ErrCodeInternal, "malformed reading: value is not finite",
			map[string]any{"raw": raw})
	}
	return v, nil
}

// SettingsControls implements instrument.Instrument.
func (d *Instrument) SettingsControls() instrument.Controls {
	return Controls()
}

// Controls returns the serial controls plus the read command.
func Controls() instrument.Controls {
	ctls := serial.Controls()
	ctls[ParamReadCommand] = instrument.Control{Kind: instrument.ControlText, Default: DefaultReadCommand}
	return ctls
}

func open(ctx context.Context, params instrument.Params) (instrument.Instrument, error) {
	d, err := openWith(ctx, params, nil)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// openWith opens a board on the given port. The instrument claims the
// board's USB identity and its port, the keys discovery reports.
func openWith(ctx context.Context, params instrument.Params, dial serial.Dialer) (*Instrument, error) {
	cfg, err := serial.ConfigFromParams(params)
	if err != nil {
		return nil, bkerrors.Wrap(bkerrors.ErrCodeInvalidRequest, "invalid daq parameters", err)
	}
	match := MatchParams()
	match[instrument.ParamPort] = cfg.Port
	cfg.MatchParams = match

	s, err := serial.Open(ctx, cfg, dial)
	if err != nil {
		return nil, err
	}
	cmd, _ := params.String(ParamReadCommand)
	return New(s, cmd), nil
}
