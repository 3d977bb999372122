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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchkit/benchkit/pkg/instrument"
	"github.com/benchkit/benchkit/pkg/session"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.Writer = &out
	root.ErrWriter = &out
	err := root.Run(context.Background(), append([]string{name, "--log-level", "error"}, args...))
	return out.String(), err
}

const benchYAML = `sampleInterval: 100ms
totalDuration: 250ms
instruments:
  - name: meter
    driver: loopback
    params:
      prefix: "21.5 "
measurements:
  - name: temp
    instrument: meter
    command: "MEAS:TEMP?"
    unit: C
  - name: marker
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(benchYAML), 0o600))
	return path
}

func TestSend_Loopback(t *testing.T) {
	out, err := execute(t, "send", "-d", "loopback", "-p", "prefix=echo:", "*IDN?")
	require.NoError(t, err)
	assert.Equal(t, "echo:*IDN?\n", out)
}

func TestSend_NoResponse(t *testing.T) {
	out, err := execute(t, "send", "-d", "loopback", "--no-response", "OUTP ON")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"disconnected", []string{"send", "-d", "loopback", "-p", "connected=false", "PING"}, "CONNECTION"},
		{"timeout", []string{"send", "-d", "loopback", "-p", "delay=1s", "--timeout", "20ms", "PING"}, "receiver timeout"},
		{"unknown driver", []string{"send", "-d", "loopbak", "PING"}, `did you mean "loopback"?`},
		{"missing command", []string{"send", "-d", "loopback"}, "exactly one COMMAND"},
		{"bad param", []string{"send", "-d", "loopback", "-p", "connected", "PING"}, "expected key=value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestControls_JSON(t *testing.T) {
	out, err := execute(t, "controls", "--format", "json", "loopback")
	require.NoError(t, err)

	var list []ControlInfo
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "connected", list[0].Param)
	assert.Equal(t, "Connected", list[0].Label)
	assert.Equal(t, instrument.ControlBool, list[0].Kind)
	assert.Equal(t, "loopback", list[0].Driver)
}

func TestControls_AllDriversTable(t *testing.T) {
	out, err := execute(t, "controls", "--format", "table")
	require.NoError(t, err)

	assert.Contains(t, out, "DRIVER")
	for _, driver := range []string{"daq", "loopback", "serial"} {
		assert.Contains(t, out, driver)
	}
	assert.Contains(t, out, "1200,2400,4800,9600,19200,38400,57600,115200")
}

func TestRun_WritesReport(t *testing.T) {
	cfgPath := writeConfig(t)
	outPath := filepath.Join(t.TempDir(), "report.json")

	_, err := execute(t, "run", "-c", cfgPath, "-t", "json", "-o", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var rep session.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, session.StatusCompleted, rep.Status)
	assert.NotEmpty(t, rep.RunID)
	require.NotEmpty(t, rep.Readings)
	for _, rd := range rep.Readings {
		assert.Equal(t, "21.5 MEAS:TEMP?", rd.Value)
		assert.Equal(t, "C", rd.Unit)
	}
	assert.Equal(t, "Process finished", rep.Events[len(rep.Events)-1].Message)
}

func TestRun_DurationOverride(t *testing.T) {
	out, err := execute(t, "run", "-c", writeConfig(t), "--duration", "50ms", "-t", "json")
	require.NoError(t, err)

	var rep session.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Len(t, rep.Readings, 1, "only the batch at zero fits in 50ms")
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sampleInterval: 0s\ntotalDuration: 1s\nmeasurements: [{name: a}]\n"), 0o600))

	_, err := execute(t, "run", "-c", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_REQUEST")
}

func TestRun_UnknownFormat(t *testing.T) {
	_, err := execute(t, "run", "-c", writeConfig(t), "-t", "xml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown output format"))
}

func TestDescribePorts(t *testing.T) {
	reg := instrument.NewFromGlobal()
	candidates := []instrument.Params{
		{"port": "/dev/ttyACM0", "vid": "2341", "pid": "0043", "serial": "A1", "product": "Uno"},
		{"port": "/dev/ttyS0"},
	}

	list := describePorts(reg, candidates, "/dev/ttyS0")
	require.Len(t, list, 2)

	assert.Equal(t, "2341", list[0].VID)
	assert.Equal(t, []string{"daq"}, list[0].Drivers)
	assert.False(t, list[0].Loopback)

	assert.Empty(t, list[1].Drivers)
	assert.True(t, list[1].Loopback)

	rows := list.TableRows()
	assert.Equal(t, []string{"/dev/ttyACM0", "2341", "0043", "A1", "Uno", "daq", ""}, rows[0])
	assert.Equal(t, "yes", rows[1][6])
}
