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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	bkerrors "github.com/benchkit/benchkit/pkg/errors"
	"github.com/benchkit/benchkit/pkg/instrument"
	"github.com/benchkit/benchkit/pkg/serializer"
)

const benchYAML = `
sampleInterval: 1s
totalDuration: 2.5s
instruments:
  - name: meter
    driver: loopback
    params: {port: COM3}
    commandsPerSecond: 20
measurements:
  - name: temp
    instrument: meter
    command: "MEAS:TEMP?"
    unit: C
  - name: pressure
`

func TestParse_YAML(t *testing.T) {
	cfg, err := Parse(serializer.FormatYAML, strings.NewReader(benchYAML))
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.SampleInterval())
	assert.Equal(t, 2500*time.Millisecond, cfg.TotalDuration())
	assert.Equal(t, []string{"temp", "pressure"}, cfg.MeasurementNames())

	meter, ok := cfg.Instrument("meter")
	require.True(t, ok)
	assert.Equal(t, "loopback", meter.Driver)
	assert.Equal(t, instrument.Params{"port": "COM3"}, meter.Params)
	assert.InDelta(t, 20.0, meter.CommandsPerSecond, 1e-9)

	ms := cfg.Measurements()
	assert.Equal(t, "MEAS:TEMP?", ms[0].Command)
	assert.Equal(t, "C", ms[0].Unit)

	_, ok = cfg.Instrument("scope")
	assert.False(t, ok)
}

func TestParse_JSONDurations(t *testing.T) {
	in := `{"sampleInterval": 0.5, "totalDuration": "3s", "measurements": [{"name": "v", "timeout": "250ms"}]}`
	cfg, err := Parse(serializer.FormatJSON, strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.SampleInterval())
	assert.Equal(t, 3*time.Second, cfg.TotalDuration())
	assert.Equal(t, Duration(250*time.Millisecond), cfg.Measurements()[0].Timeout)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(serializer.FormatTable, strings.NewReader(""))
	assert.True(t, bkerrors.IsCode(err, bkerrors.ErrCodeInvalidRequest))

	_, err = Parse(serializer.FormatYAML, strings.NewReader("sampleInterval: soon\n"))
	assert.True(t, bkerrors.IsCode(err, bkerrors.ErrCodeInvalidRequest))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(benchYAML), 0o600))

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, cfg.Measurements(), 2)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, bkerrors.IsCode(err, bkerrors.ErrCodeInvalidRequest))
}

func TestValidate(t *testing.T) {
	meter := InstrumentConfig{Name: "meter", Driver: "serial"}
	base := func(extra ...Option) *Config {
		opts := []Option{
			WithSampleInterval(time.Second),
			WithTotalDuration(time.Minute),
			WithInstruments(meter),
		}
		return NewConfig(append(opts, extra...)...)
	}

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{"valid", base(WithMeasurementNames("a", "b")), ""},
		{"zero interval", NewConfig(WithTotalDuration(time.Second), WithMeasurementNames("a")), "sampleInterval"},
		{"negative total", NewConfig(WithSampleInterval(time.Second), WithTotalDuration(-1), WithMeasurementNames("a")), "totalDuration"},
		{"no measurements", base(), "at least one"},
		{"empty name", base(WithMeasurementNames("")), "name is required"},
		{"duplicate name", base(WithMeasurementNames("a", "a")), "duplicate"},
		{"command without instrument", base(WithMeasurements(Measurement{Name: "a", Command: "X?"})), "needs an instrument"},
		{"unknown instrument", base(WithMeasurements(Measurement{Name: "a", Instrument: "metr"})), `did you mean "meter"?`},
		{"negative timeout", base(WithMeasurements(Measurement{Name: "a", Timeout: -1})), "timeout"},
		{"instrument without driver", base(WithInstruments(InstrumentConfig{Name: "x"}), WithMeasurementNames("a")), "driver"},
		{"duplicate instrument", base(WithInstruments(meter), WithMeasurementNames("a")), "duplicate name"},
		{"negative rate", base(WithInstruments(InstrumentConfig{Name: "x", Driver: "daq", CommandsPerSecond: -1}), WithMeasurementNames("a")), "commandsPerSecond"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, bkerrors.IsCode(err, bkerrors.ErrCodeInvalidRequest))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Immutable(t *testing.T) {
	params := instrument.Params{"port": "COM3"}
	cfg := NewConfig(
		WithInstruments(InstrumentConfig{Name: "m", Driver: "serial", Params: params}),
		WithMeasurementNames("a"),
	)
	params["port"] = "COM9"

	ms := cfg.Measurements()
	ms[0].Name = "changed"
	ics := cfg.Instruments()
	ics[0].Params["port"] = "COM7"

	assert.Equal(t, "a", cfg.Measurements()[0].Name)
	got, _ := cfg.Instrument("m")
	assert.Equal(t, "COM3", got.Params["port"])
}

func TestConfig_FileRoundTrip(t *testing.T) {
	cfg, err := Parse(serializer.FormatYAML, strings.NewReader(benchYAML))
	require.NoError(t, err)

	out, err := yaml.Marshal(cfg.File())
	require.NoError(t, err)
	assert.Contains(t, string(out), "sampleInterval: 1s")
	assert.Contains(t, string(out), "totalDuration: 2.5s")
	assert.Contains(t, string(out), "kind: BenchConfig")
	assert.Contains(t, string(out), "apiVersion: benchkit.io/v1")

	again, err := Parse(serializer.FormatYAML, strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.Equal(t, cfg.File(), again.File())

	js, err := json.Marshal(cfg.File())
	require.NoError(t, err)
	assert.Contains(t, string(js), `"sampleInterval":"1s"`)
}

func TestParse_DocumentHeader(t *testing.T) {
	body := "sampleInterval: 1s\ntotalDuration: 2s\nmeasurements: [{name: a}]\n"

	_, err := Parse(serializer.FormatYAML, strings.NewReader("kind: BenchConfig\napiVersion: benchkit.io/v1\n"+body))
	require.NoError(t, err)

	_, err = Parse(serializer.FormatYAML, strings.NewReader("kind: BenchReport\n"+body))
	require.Error(t, err)
	assert.True(t, bkerrors.IsCode(err, bkerrors.ErrCodeInvalidRequest))
	assert.Contains(t, err.Error(), "kind BenchReport is not supported")

	_, err = Parse(serializer.FormatYAML, strings.NewReader("apiVersion: benchkit.io/v2\n"+body))
	assert.Error(t, err)
}

func TestMeasurement_Field(t *testing.T) {
	m := Measurement{Name: "temp", Instrument: "meter", Command: "T?", Unit: "C"}

	v, ok := m.Field(KeyName)
	assert.True(t, ok)
	assert.Equal(t, "temp", v)

	v, _ = m.Field("unit")
	assert.Equal(t, "C", v)

	_, ok = m.Field("color")
	assert.False(t, ok)
}

func TestDuration_Invalid(t *testing.T) {
	var d Duration
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
	assert.Error(t, json.Unmarshal([]byte(`"1 hour"`), &d))
	require.NoError(t, yaml.Unmarshal([]byte(`2`), &d))
	assert.Equal(t, Duration(2*time.Second), d)
}
