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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goserial "go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	bkerrors "github.com/benchkit/benchkit/pkg/errors"
	"github.com/benchkit/benchkit/pkg/instrument"
)

// fakePort is an in-memory serial port. With echo set, written bytes come
// back on Read; otherwise Read returns whatever reply produces.
type fakePort struct {
	mu       sync.Mutex
	echo     bool
	reply    func(written []byte) []byte
	inbound  []byte
	written  []byte
	timeout  time.Duration
	closed   bool
	readErr  error
	writeErr error
	closeErr error
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.written = append(p.written, b...)
	if p.echo {
		p.inbound = append(p.inbound, b...)
	}
	if p.reply != nil {
		p.inbound = append(p.inbound, p.reply(b)...)
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.readErr != nil {
		p.mu.Unlock()
		return 0, p.readErr
	}
	if len(p.inbound) > 0 {
		n := copy(b, p.inbound)
		p.inbound = p.inbound[n:]
		p.mu.Unlock()
		return n, nil
	}
	timeout := p.timeout
	p.mu.Unlock()

	time.Sleep(timeout)
	return 0, nil
}

// deliver queues bytes as if the device sent them on its own.
func (p *fakePort) deliver(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inbound = append(p.inbound, b...)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeErr
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inbound = nil
	return nil
}

func dialer(p *fakePort, gotMode *goserial.Mode) Dialer {
	return func(_ string, mode *goserial.Mode) (Port, error) {
		if gotMode != nil {
			*gotMode = *mode
		}
		return p, nil
	}
}

func TestOpen_DefaultsBaudRate(t *testing.T) {
	var mode goserial.Mode
	inst, err := Open(context.Background(), Config{Port: "COM3"}, dialer(&fakePort{}, &mode))
	require.NoError(t, err)
	defer inst.Close()

	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, "COM3", inst.Port())
	assert.True(t, inst.IsMatch(instrument.Params{"port": "COM3", "baud": 9600}))
	assert.False(t, inst.IsMatch(instrument.Params{"port": "COM4"}))
}

func TestOpen_Failures(t *testing.T) {
	_, err := Open(context.Background(), Config{}, dialer(&fakePort{}, nil))
	assert.True(t, instrument.IsConnectionError(err))

	failing := func(string, *goserial.Mode) (Port, error) { return nil, errors.New("access denied") }
	_, err = Open(context.Background(), Config{Port: "COM3"}, failing)
	require.Error(t, err)
	assert.True(t, instrument.IsConnectionError(err))
	assert.Contains(t, err.Error(), "could not connect to COM3")
}

func TestSendCommand_LineFraming(t *testing.T) {
	port := &fakePort{reply: func(b []byte) []byte {
		if string(b) == "*IDN?\r\n" {
			return []byte("ACME,DMM\r\nEXTRA\r\n")
		}
		return nil
	}}
	inst, err := Open(context.Background(), Config{Port: "COM3", Terminator: "\r\n"}, dialer(port, nil))
	require.NoError(t, err)
	defer inst.Close()

	resp, err := inst.SendCommand(context.Background(), instrument.Request{
		Command:        []byte("*IDN?"),
		ExpectResponse: true,
		Timeout:        time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "ACME,DMM", resp.String())

	// unsolicited trailing lines are dropped before the next command
	_, err = inst.SendCommand(context.Background(), instrument.Request{
		Command:        []byte("NOOP"),
		ExpectResponse: true,
		Timeout:        50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, instrument.IsTimeoutError(err))
}

func TestSendCommand_LateReplyNotPairedWithNextCommand(t *testing.T) {
	port := &fakePort{}
	inst, err := Open(context.Background(), Config{Port: "COM3"}, dialer(port, nil))
	require.NoError(t, err)
	defer inst.Close()

	_, err = inst.SendCommand(context.Background(), instrument.Request{
		Command:        []byte("MEAS:A?"),
		ExpectResponse: true,
		Timeout:        50 * time.Millisecond,
	})
	require.True(t, instrument.IsTimeoutError(err))

	// the device answers the first command after the caller gave up
	port.deliver([]byte("reply1\n"))

	port.mu.Lock()
	port.reply = func(b []byte) []byte {
		if string(b) == "MEAS:B?\n" {
			return []byte("reply2\n")
		}
		return nil
	}
	port.mu.Unlock()

	resp, err := inst.SendCommand(context.Background(), instrument.Request{
		Command:        []byte("MEAS:B?"),
		ExpectResponse: true,
		Timeout:        time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "reply2", resp.String())
}

func TestSendCommand_Timeout(t *testing.T) {
	inst, err := Open(context.Background(), Config{Port: "COM3"}, dialer(&fakePort{}, nil))
	require.NoError(t, err)
	defer inst.Close()

	post := false
	_, err = inst.SendCommand(context.Background(), instrument.Request{
		Command:        []byte("MEAS?"),
		ExpectResponse: true,
		Timeout:        50 * time.Millisecond,
		PostResponse:   func(*instrument.Response, error) { post = true },
	})
	require.Error(t, err)
	assert.True(t, instrument.IsTimeoutError(err))
	assert.True(t, post)

	// still usable after a timeout
	_, err = inst.SendCommand(context.Background(), instrument.Request{Command: []byte("OUTP OFF")})
	assert.NoError(t, err)
}

func TestSendCommand_ConnectionErrors(t *testing.T) {
	port := &fakePort{writeErr: errors.New("device unplugged")}
	inst, err := Open(context.Background(), Config{Port: "COM3"}, dialer(port, nil))
	require.NoError(t, err)
	defer inst.Close()

	_, err = inst.SendCommand(context.Background(), instrument.Request{Command: []byte("X")})
	assert.True(t, instrument.IsConnectionError(err))

	port.mu.Lock()
	port.writeErr = nil
	port.readErr = errors.New("i/o error")
	port.mu.Unlock()

	_, err = inst.SendCommand(context.Background(), instrument.Request{Command: []byte("X"), ExpectResponse: true})
	assert.True(t, instrument.IsConnectionError(err))
}

func TestClose(t *testing.T) {
	port := &fakePort{closeErr: errors.New("busy")}
	inst, err := Open(context.Background(), Config{Port: "COM3"}, dialer(port, nil))
	require.NoError(t, err)

	err = inst.Close()
	require.Error(t, err)
	assert.True(t, port.closed)

	port.mu.Lock()
	port.closed = false
	port.mu.Unlock()

	assert.NoError(t, inst.Close())
	assert.False(t, port.closed, "second Close must not release the port again")
}

func TestConfigFromParams(t *testing.T) {
	tests := []struct {
		name    string
		params  instrument.Params
		wantErr bool
		check   func(t *testing.T, cfg Config)
	}{
		{
			name:   "yaml ints",
			params: instrument.Params{"port": "/dev/ttyUSB0", "baud": 115200, "parity": "even", "stop_bits": 2},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 115200, cfg.Mode.BaudRate)
				assert.Equal(t, goserial.EvenParity, cfg.Mode.Parity)
				assert.Equal(t, goserial.TwoStopBits, cfg.Mode.StopBits)
				assert.Equal(t, 8, cfg.Mode.DataBits)
			},
		},
		{
			name:   "json floats",
			params: instrument.Params{"port": "COM3", "baud": float64(19200), "data_bits": float64(7), "stop_bits": 1.5},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 19200, cfg.Mode.BaudRate)
				assert.Equal(t, 7, cfg.Mode.DataBits)
				assert.Equal(t, goserial.OnePointFiveStopBits, cfg.Mode.StopBits)
			},
		},
		{
			name:   "terminator",
			params: instrument.Params{"port": "COM3", "terminator": "\r"},
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "\r", cfg.Terminator)
			},
		},
		{name: "missing port", params: instrument.Params{"baud": 9600}, wantErr: true},
		{name: "fractional baud", params: instrument.Params{"port": "COM3", "baud": 96.5}, wantErr: true},
		{name: "bad parity", params: instrument.Params{"port": "COM3", "parity": "weird"}, wantErr: true},
		{name: "bad stop bits", params: instrument.Params{"port": "COM3", "stop_bits": 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ConfigFromParams(tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestControls_AcceptDefaults(t *testing.T) {
	ctls := Controls()
	params := ctls.Defaults()
	params["port"] = "COM3"
	require.NoError(t, ctls.Validate(params))

	cfg, err := ConfigFromParams(params)
	require.NoError(t, err)
	assert.Equal(t, goserial.OneStopBit, cfg.Mode.StopBits)
	assert.Equal(t, goserial.NoParity, cfg.Mode.Parity)
	assert.Equal(t, "\n", cfg.Terminator)
}

func TestRegistered(t *testing.T) {
	reg := instrument.NewFromGlobal()
	require.Contains(t, reg.Names(), Name)

	_, err := reg.Open(context.Background(), Name, instrument.Params{"port": 3})
	require.Error(t, err)
	assert.True(t, bkerrors.IsCode(err, bkerrors.ErrCodeInvalidRequest))
}

func TestRegistryOpened_MatchesDiscoveredPort(t *testing.T) {
	reg := instrument.NewRegistry()
	require.NoError(t, reg.Register(instrument.Variant{
		Name:     Name,
		Controls: Controls(),
		Open: func(ctx context.Context, params instrument.Params) (instrument.Instrument, error) {
			return OpenParams(ctx, params, dialer(&fakePort{}, nil))
		},
	}))

	discovered, err := Discover(func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "COM5", IsUSB: true, VID: "2341", PID: "0043", SerialNumber: "85736"},
		}, nil
	})
	require.NoError(t, err)
	require.Len(t, discovered, 1)

	h, err := reg.Open(context.Background(), Name, instrument.Params{"port": "COM5", "baud": 115200})
	require.NoError(t, err)
	defer h.Close()

	assert.True(t, h.IsMatch(discovered[0]))
	assert.False(t, h.IsMatch(instrument.Params{"port": "COM6"}))
}

func TestDiscover(t *testing.T) {
	lister := func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "COM1"},
			{Name: "COM5", IsUSB: true, VID: "2341", PID: "0043", SerialNumber: "85736", Product: "Arduino Uno"},
			{Name: "/dev/ttyACM1", IsUSB: true, VID: "2a03", PID: "8036"},
			nil,
			{Name: ""},
		}, nil
	}

	got, err := Discover(lister)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, instrument.Params{"port": "COM1"}, got[0])
	assert.Equal(t, instrument.Params{
		"port": "COM5", "vid": "2341", "pid": "0043", "serial": "85736", "product": "Arduino Uno",
	}, got[1])
	assert.Equal(t, instrument.Params{"port": "/dev/ttyACM1", "vid": "2A03", "pid": "8036"}, got[2])

	_, err = Discover(func() ([]*enumerator.PortDetails, error) { return nil, errors.New("no sysfs") })
	assert.Error(t, err)
}

func TestFindLoopbackPort(t *testing.T) {
	ports := map[string]*fakePort{
		"COM1": {},
		"COM2": {echo: true},
		"COM3": {echo: true},
	}
	dial := func(name string, _ *goserial.Mode) (Port, error) {
		p, ok := ports[name]
		if !ok {
			return nil, errors.New("no such port")
		}
		return p, nil
	}

	candidates := []instrument.Params{
		{"port": "COM9"},
		{"port": "COM1"},
		{"port": "COM2"},
		{"port": "COM3"},
	}

	got, err := FindLoopbackPort(context.Background(), candidates, dial)
	require.NoError(t, err)
	assert.Equal(t, "COM2", got)
	assert.True(t, ports["COM1"].closed)
	assert.True(t, ports["COM2"].closed)

	_, err = FindLoopbackPort(context.Background(), candidates[:2], dial)
	require.Error(t, err)
	assert.True(t, bkerrors.IsCode(err, bkerrors.ErrCodeNotFound))
}
