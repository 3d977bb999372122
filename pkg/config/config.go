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

package config

import (
	"context"
	"fmt"
	"io"
	"time"

	bkerrors "github.com/benchkit/benchkit/pkg/errors"
	"github.com/benchkit/benchkit/pkg/header"
	"github.com/benchkit/benchkit/pkg/instrument"
	"github.com/benchkit/benchkit/pkg/serializer"
)

// KeyName is the measurement field holding its display name.
const KeyName = "name"

// Source supplies the runner with what to sample and for how long.
// Implementations must not change while a run is active.
type Source interface {
	Measurements() []Measurement
	SampleInterval() time.Duration
	TotalDuration() time.Duration
}

// Measurement describes one sampled quantity.
type Measurement struct {
	Name string `json:"name" yaml:"name"`

	// Instrument names the instruments entry the command is sent to.
	Instrument string `json:"instrument,omitempty" yaml:"instrument,omitempty"`

	// Command is sent as-is; its response is the reading.
	Command string `json:"command,omitempty" yaml:"command,omitempty"`

	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// Timeout overrides the instrument's response timeout.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Field returns a measurement field by its key, e.g. KeyName.
func (m Measurement) Field(key string) (string, bool) {
	switch key {
	case KeyName:
		return m.Name, true
	case "instrument":
		return m.Instrument, true
	case "command":
		return m.Command, true
	case "unit":
		return m.Unit, true
	default:
		return "", false
	}
}

// InstrumentConfig binds a name used by measurements to a variant and its
// connection parameters.
type InstrumentConfig struct {
	Name   string            `json:"name" yaml:"name"`
	Driver string            `json:"driver" yaml:"driver"`
	Params instrument.Params `json:"params,omitempty" yaml:"params,omitempty"`

	// CommandsPerSecond caps the command rate; zero selects the default.
	CommandsPerSecond float64 `json:"commandsPerSecond,omitempty" yaml:"commandsPerSecond,omitempty"`
}

// File is the on-disk layout of a bench configuration.
type File struct {
	header.Header `yaml:",inline"`

	SampleInterval Duration           `json:"sampleInterval" yaml:"sampleInterval"`
	TotalDuration  Duration           `json:"totalDuration" yaml:"totalDuration"`
	Instruments    []InstrumentConfig `json:"instruments,omitempty" yaml:"instruments,omitempty"`
	Measurements   []Measurement      `json:"measurements" yaml:"measurements"`
}

// Config is an immutable bench configuration. It implements Source.
type Config struct {
	sampleInterval time.Duration
	totalDuration  time.Duration
	instruments    []InstrumentConfig
	measurements   []Measurement
}

// Option configures a Config.
type Option func(*Config)

// WithSampleInterval sets the time between measurement batches.
func WithSampleInterval(d time.Duration) Option {
	return func(c *Config) {
		c.sampleInterval = d
	}
}

// WithTotalDuration sets the run length.
func WithTotalDuration(d time.Duration) Option {
	return func(c *Config) {
		c.totalDuration = d
	}
}

// WithMeasurements appends measurements in order.
func WithMeasurements(ms ...Measurement) Option {
	return func(c *Config) {
		c.measurements = append(c.measurements, ms...)
	}
}

// WithMeasurementNames appends name-only measurements.
func WithMeasurementNames(names ...string) Option {
	return func(c *Config) {
		for _, n := range names {
			c.measurements = append(c.measurements, Measurement{Name: n})
		}
	}
}

// WithInstruments appends instrument entries.
func WithInstruments(is ...InstrumentConfig) Option {
	return func(c *Config) {
		for _, i := range is {
			i.Params = i.Params.Clone()
			c.instruments = append(c.instruments, i)
		}
	}
}

// NewConfig returns a Config built from options. It is not validated.
func NewConfig(options ...Option) *Config {
	c := &Config{}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// FromFile converts and validates an on-disk configuration.
func FromFile(f File) (*Config, error) {
	if err := f.Check(header.KindBenchConfig); err != nil {
		return nil, bkerrors.Wrap(bkerrors.ErrCodeInvalidRequest, "unsupported configuration document", err)
	}
	c := NewConfig(
		WithSampleInterval(time.Duration(f.SampleInterval)),
		WithTotalDuration(time.Duration(f.TotalDuration)),
		WithInstruments(f.Instruments...),
		WithMeasurements(f.Measurements...),
	)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a configuration from a local path or http(s) URL. The format
// follows the extension.
func Load(ctx context.Context, path string) (*Config, error) {
	f, err := serializer.FromFile[File](ctx, path)
	if err != nil {
		return nil, bkerrors.Wrap(bkerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to load configuration %s", path), err)
	}
	return FromFile(*f)
}

// Parse reads a configuration in the given format.
func Parse(format serializer.Format, r io.Reader) (*Config, error) {
	reader, err := serializer.NewReader(format, r)
	if err != nil {
		return nil, bkerrors.Wrap(bkerrors.ErrCodeInvalidRequest, "unsupported configuration format", err)
	}
	var f File
	if err := reader.Deserialize(&f); err != nil {
		return nil, bkerrors.Wrap(bkerrors.ErrCodeInvalidRequest, "failed to parse configuration", err)
	}
	return FromFile(f)
}

// SampleInterval implements Source.
func (c *Config) SampleInterval() time.Duration {
	return c.sampleInterval
}

// TotalDuration implements Source.
func (c *Config) TotalDuration() time.Duration {
	return c.totalDuration
}

// Measurements implements Source. The returned slice is a copy.
func (c *Config) Measurements() []Measurement {
	out := make([]Measurement, len(c.measurements))
	copy(out, c.measurements)
	return out
}

// MeasurementNames returns the measurement names in order.
func (c *Config) MeasurementNames() []string {
	names := make([]string, len(c.measurements))
	for i, m := range c.measurements {
		names[i] = m.Name
	}
	return names
}

// Instruments returns a copy of the instrument entries.
func (c *Config) Instruments() []InstrumentConfig {
	out := make([]InstrumentConfig, len(c.instruments))
	for i, ic := range c.instruments {
		ic.Params = ic.Params.Clone()
		out[i] = ic
	}
	return out
}

// Instrument returns the instrument entry with the given name.
func (c *Config) Instrument(name string) (InstrumentConfig, bool) {
	for _, ic := range c.instruments {
		if ic.Name == name {
			ic.Params = ic.Params.Clone()
			return ic, true
		}
	}
	return InstrumentConfig{}, false
}

// File returns the on-disk form of c.
func (c *Config) File() File {
	return File{
		Header:         header.Header{Kind: header.KindBenchConfig, APIVersion: header.APIVersion},
		SampleInterval: Duration(c.sampleInterval),
		TotalDuration:  Duration(c.totalDuration),
		Instruments:    c.Instruments(),
		Measurements:   c.Measurements(),
	}
}

// Validate checks durations, name uniqueness and instrument references.
func (c *Config) Validate() error {
	if c.sampleInterval <= 0 {
		return invalid("sampleInterval must be positive, got %s", c.sampleInterval)
	}
	if c.totalDuration <= 0 {
		return invalid("totalDuration must be positive, got %s", c.totalDuration)
	}

	instruments := make(map[string]bool, len(c.instruments))
	names := make([]string, 0, len(c.instruments))
	for i, ic := range c.instruments {
		if ic.Name == "" {
			return invalid("instruments[%d]: name is required", i)
		}
		if instruments[ic.Name] {
			return invalid("instruments[%d]: duplicate name %q", i, ic.Name)
		}
		if ic.Driver == "" {
			return invalid("instrument %q: driver is required", ic.Name)
		}
		if ic.CommandsPerSecond < 0 {
			return invalid("instrument %q: commandsPerSecond must not be negative", ic.Name)
		}
		instruments[ic.Name] = true
		names = append(names, ic.Name)
	}

	if len(c.measurements) == 0 {
		return invalid("at least one measurement is required")
	}
	seen := make(map[string]bool, len(c.measurements))
	for i, m := range c.measurements {
		if m.Name == "" {
			return invalid("measurements[%d]: %s is required", i, KeyName)
		}
		if seen[m.Name] {
			return invalid("measurements[%d]: duplicate %s %q", i, KeyName, m.Name)
		}
		seen[m.Name] = true

		if m.Timeout < 0 {
			return invalid("measurement %q: timeout must not be negative", m.Name)
		}
		if m.Command != "" && m.Instrument == "" {
			return invalid("measurement %q: command needs an instrument", m.Name)
		}
		if m.Instrument != "" && !instruments[m.Instrument] {
			msg := fmt.Sprintf("measurement %q: unknown instrument %q", m.Name, m.Instrument)
			if s := instrument.Suggest(m.Instrument, names); s != "" {
				msg = fmt.Sprintf("%s, did you mean %q?", msg, s)
			}
			return bkerrors.New(bkerrors.ErrCodeInvalidRequest, msg)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return bkerrors.New(bkerrors.ErrCodeInvalidRequest, fmt.Sprintf(format, args...))
}
