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

package loopback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benchkit/benchkit/pkg/instrument"
)

// Variant name used in configuration files.
const Name = "loopback"

// Connection parameter keys.
const (
	ParamPrefix    = "prefix"
	ParamDelay     = "delay"
	ParamConnected = "connected"
)

// Instrument echoes every command back, optionally prefixed and delayed.
// It stands in for a serial cable with TX wired to RX.
type Instrument struct {
	instrument.Matcher

	prefix    []byte
	delay     time.Duration
	timeout   time.Duration
	connected bool

	mu      sync.Mutex
	pending [][]byte
	ready   chan struct{}
	closed  bool
}

// Option configures an Instrument.
type Option func(*Instrument)

// WithPrefix prepends prefix to every echoed response.
func WithPrefix(prefix string) Option {
	return func(i *Instrument) {
		i.prefix = []byte(prefix)
	}
}

// WithDelay holds every response back for d.
func WithDelay(d time.Duration) Option {
	return func(i *Instrument) {
		i.delay = d
	}
}

// WithResponseTimeout sets the response timeout used when a request does
// not carry its own.
func WithResponseTimeout(d time.Duration) Option {
	return func(i *Instrument) {
		i.timeout = d
	}
}

// WithDisconnected makes every command fail with a CONNECTION error.
func WithDisconnected() Option {
	return func(i *Instrument) {
		i.connected = false
	}
}

// WithMatchParams sets the parameters the instrument claims in IsMatch.
func WithMatchParams(params instrument.Params) Option {
	return func(i *Instrument) {
		i.Matcher = instrument.NewMatcher(params)
	}
}

// New creates a loopback instrument.
func New(opts ...Option) *Instrument {
	i := &Instrument{
		connected: true,
		ready:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// SendCommand implements instrument.Instrument.
func (i *Instrument) SendCommand(ctx context.Context, req instrument.Request) (*instrument.Response, error) {
	return instrument.Exchange(ctx, req, i.timeout, i.write, i.read)
}

func (i *Instrument) write(_ context.Context, command []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return instrument.ConnectionError(Name, errors.New("instrument is closed"))
	}
	if !i.connected {
		return instrument.ConnectionError(Name, errors.New("loopback is disconnected"))
	}

	echo := make([]byte, 0, len(i.prefix)+len(command))
	echo = append(echo, i.prefix...)
	echo = append(echo, command...)
	i.pending = append(i.pending, echo)

	select {
	case i.ready <- struct{}{}:
	default:
	}
	return nil
}

func (i *Instrument) read(ctx context.Context) ([]byte, error) {
	if i.delay > 0 {
		t := time.NewTimer(i.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	for {
		if data, ok := i.next(); ok {
			return data, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-i.ready:
		}
	}
}

func (i *Instrument) next() ([]byte, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.pending) == 0 {
		return nil, false
	}
	data := i.pending[0]
	i.pending = i.pending[1:]
	return data, true
}

// Pending returns the number of echoes that were written but not read,
// e.g. commands sent without ExpectResponse.
func (i *Instrument) Pending() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.pending)
}

// Close implements instrument.Instrument.
func (i *Instrument) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	i.pending = nil
	return nil
}

// SettingsControls implements instrument.Instrument.
func (i *Instrument) SettingsControls() instrument.Controls {
	return controls()
}

func controls() instrument.Controls {
	return instrument.Controls{
		ParamPrefix:    {Kind: instrument.ControlText, Default: ""},
		ParamDelay:     {Kind: instrument.ControlText, Default: "0s"},
		ParamConnected: {Kind: instrument.ControlBool, Default: true},
	}
}

// matchParams strips the simulation knobs from params; what remains (a
// port name, say) is what the instrument claims in IsMatch.
func matchParams(params instrument.Params) instrument.Params {
	out := params.Clone()
	for n := range controls() {
		delete(out, n)
	}
	return out
}

// open builds an Instrument from connection parameters.
func open(_ context.Context, params instrument.Params) (instrument.Instrument, error) {
	opts := []Option{WithMatchParams(matchParams(params))}

	if prefix, ok := params.String(ParamPrefix); ok && prefix != "" {
		opts = append(opts, WithPrefix(prefix))
	}

	if raw, ok := params[ParamDelay]; ok {
		d, err := parseDelay(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithDelay(d))
	}

	if connected, ok := params[ParamConnected].(bool); ok && !connected {
		opts = append(opts, WithDisconnected())
	}

	return New(opts...), nil
}

func parseDelay(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", ParamDelay, v, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("invalid %s: unsupported type %T", ParamDelay, raw)
	}
}
