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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	goserial "go.bug.st/serial"

	"github.com/benchkit/benchkit/pkg/defaults"
	bkerrors "github.com/benchkit/benchkit/pkg/errors"
	"github.com/benchkit/benchkit/pkg/instrument"
)

// Variant name used in configuration files.
const Name = "serial"

// Connection parameter keys specific to serial ports.
const (
	ParamParity     = "parity"
	ParamStopBits   = "stop_bits"
	ParamDataBits   = "data_bits"
	ParamTerminator = "terminator"
)

// DefaultTerminator frames commands and responses.
const DefaultTerminator = "\n"

// Port is the subset of the go.bug.st/serial port the instrument uses.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Dialer opens a port by name.
type Dialer func(name string, mode *goserial.Mode) (Port, error)

// DialSerial opens a real serial port.
func DialSerial(name string, mode *goserial.Mode) (Port, error) {
	p, err := goserial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Instrument talks to a device over a serial line using terminator-framed
// commands and responses.
type Instrument struct {
	instrument.Matcher

	name       string
	port       Port
	terminator []byte
	timeout    time.Duration
	closer     instrument.CloseOnce

	mu  sync.Mutex
	buf []byte
}

// Config describes how to open a serial instrument.
type Config struct {
	Port       string
	Mode       goserial.Mode
	Terminator string

	// ResponseTimeout applies when a request does not carry its own.
	ResponseTimeout time.Duration

	// MatchParams are the parameters the instrument claims in IsMatch.
	// Nil claims the port only.
	MatchParams instrument.Params
}

// Open opens the port described by cfg using dial. A nil dial selects DialSerial.
func Open(ctx context.Context, cfg Config, dial Dialer) (*Instrument, error) {
	if cfg.Port == "" {
		return nil, instrument.ConnectionError("serial port", errors.New("no port given"))
	}
	if err := ctx.Err(); err != nil {
		return nil, instrument.ConnectionError(cfg.Port, err)
	}
	if dial == nil {
		dial = DialSerial
	}

	mode := cfg.Mode
	if mode.BaudRate == 0 {
		mode.BaudRate = defaults.SerialBaudRate
	}

	p, err := dial(cfg.Port, &mode)
	if err != nil {
		return nil, instrument.ConnectionError(cfg.Port, err)
	}

	if err := p.SetReadTimeout(defaults.SerialReadQuantum); err != nil {
		_ = p.Close()
		return nil, instrument.ConnectionError(cfg.Port, err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		slog.Debug("failed to reset serial input buffer", "port", cfg.Port, "error", err)
	}

	term := cfg.Terminator
	if term == "" {
		term = DefaultTerminator
	}

	matchParams := cfg.MatchParams
	if matchParams == nil {
		matchParams = instrument.Params{instrument.ParamPort: cfg.Port}
	}

	return &Instrument{
		Matcher:    instrument.NewMatcher(matchParams),
		name:       cfg.Port,
		port:       p,
		terminator: []byte(term),
		timeout:    cfg.ResponseTimeout,
	}, nil
}

// OpenParams opens a serial instrument from connection parameters as
// produced by the registry: declared controls merged with their defaults.
func OpenParams(ctx context.Context, params instrument.Params, dial Dialer) (*Instrument, error) {
	cfg, err := ConfigFromParams(params)
	if err != nil {
		return nil, bkerrors.Wrap(bkerrors.ErrCodeInvalidRequest, "invalid serial parameters", err)
	}
	return Open(ctx, cfg, dial)
}

// Port returns the name of the underlying port.
func (i *Instrument) Port() string {
	return i.name
}

// SendCommand implements instrument.Instrument. Exchanges on one instrument
// are serialized.
func (i *Instrument) SendCommand(ctx context.Context, req instrument.Request) (*instrument.Response, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return instrument.Exchange(ctx, req, i.timeout, i.write, i.readLine)
}

// write drops unread input first so a reply that arrived after an earlier
// exchange gave up is never taken as the answer to this command.
func (i *Instrument) write(_ context.Context, command []byte) error {
	i.buf = nil
	if err := i.port.ResetInputBuffer(); err != nil {
		return instrument.ConnectionError(i.name, err)
	}

	frame := make([]byte, 0, len(command)+len(i.terminator))
	frame = append(frame, command...)
	frame = append(frame, i.terminator...)

	for len(frame) > 0 {
		n, err := i.port.Write(frame)
		if err != nil {
			return instrument.ConnectionError(i.name, err)
		}
		frame = frame[n:]
	}
	return nil
}

// readLine reads until a terminator arrives or ctx is done.
func (i *Instrument) readLine(ctx context.Context) ([]byte, error) {
	chunk := make([]byte, 256)
	for {
		if idx := bytes.Index(i.buf, i.terminator); idx >= 0 {
			line := bytes.TrimRight(i.buf[:idx], "\r")
			out := append([]byte(nil), line...)
			i.buf = i.buf[idx+len(i.terminator):]
			return out, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Read returns 0, nil when the read quantum elapses without data.
		n, err := i.port.Read(chunk)
		if err != nil {
			return nil, instrument.ConnectionError(i.name, err)
		}
		i.buf = append(i.buf, chunk[:n]...)
	}
}

// Close implements instrument.Instrument. Only the first call releases the
// port; later calls return nil.
func (i *Instrument) Close() error {
	return i.closer.Do(func() error {
		if err := i.port.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", i.name, err)
		}
		return nil
	})
}

// SettingsControls implements instrument.Instrument.
func (i *Instrument) SettingsControls() instrument.Controls {
	return Controls()
}

// Controls returns the connection parameters a serial port accepts.
func Controls() instrument.Controls {
	return instrument.Controls{
		instrument.ParamPort: {Kind: instrument.ControlText, Required: true},
		instrument.ParamBaudRate: {
			Kind:    instrument.ControlChoice,
			Default: defaults.SerialBaudRate,
			Choices: []any{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200},
		},
		ParamDataBits: {Kind: instrument.ControlChoice, Default: 8, Choices: []any{5, 6, 7, 8}},
		ParamParity: {
			Kind:    instrument.ControlChoice,
			Default: "none",
			Choices: []any{"none", "odd", "even", "mark", "space"},
		},
		ParamStopBits:   {Kind: instrument.ControlChoice, Default: 1, Choices: []any{1, 1.5, 2}},
		ParamTerminator: {Kind: instrument.ControlText, Default: DefaultTerminator},
	}
}

// ConfigFromParams builds a Config from connection parameters.
func ConfigFromParams(params instrument.Params) (Config, error) {
	port, ok := params.String(instrument.ParamPort)
	if !ok || port == "" {
		return Config{}, fmt.Errorf("parameter %q must be a non-empty string", instrument.ParamPort)
	}

	cfg := Config{
		Port:        port,
		Mode:        goserial.Mode{BaudRate: defaults.SerialBaudRate, DataBits: 8},
		MatchParams: instrument.Params{instrument.ParamPort: port},
	}

	if v, ok := params[instrument.ParamBaudRate]; ok {
		baud, err := toInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("parameter %q: %w", instrument.ParamBaudRate, err)
		}
		cfg.Mode.BaudRate = baud
	}
	if v, ok := params[ParamDataBits]; ok {
		bits, err := toInt(v)
		if err != nil {
			return Config{}, fmt.Errorf("parameter %q: %w", ParamDataBits, err)
		}
		cfg.Mode.DataBits = bits
	}
	if v, ok := params.String(ParamParity); ok {
		parity, err := parseParity(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Mode.Parity = parity
	}
	if v, ok := params[ParamStopBits]; ok {
		stop, err := parseStopBits(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Mode.StopBits = stop
	}
	if v, ok := params.String(ParamTerminator); ok {
		cfg.Terminator = v
	}
	return cfg, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func parseParity(s string) (goserial.Parity, error) {
	switch s {
	case "none":
		return goserial.NoParity, nil
	case "odd":
		return goserial.OddParity, nil
	case "even":
		return goserial.EvenParity, nil
	case "mark":
		return goserial.MarkParity, nil
	case "space":
		return goserial.SpaceParity, nil
	default:
		return 0, fmt.Errorf("unknown parity %q", s)
	}
}

func parseStopBits(v any) (goserial.StopBits, error) {
	switch s := fmt.Sprint(v); s {
	case "1":
		return goserial.OneStopBit, nil
	case "1.5":
		return goserial.OnePointFiveStopBits, nil
	case "2":
		return goserial.TwoStopBits, nil
	default:
		return 0, fmt.Errorf("unknown stop bits %q", s)
	}
}
