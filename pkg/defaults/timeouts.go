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

package defaults

import "time"

// Runner timing for the measurement loop.
const (
	// RunnerPollQuantum is the sleep granularity of the measurement loop.
	// It bounds cancellation latency and the timing error of each sample tick.
	RunnerPollQuantum = 50 * time.Millisecond

	// RunnerMinPollQuantum is the smallest accepted poll quantum.
	RunnerMinPollQuantum = time.Millisecond
)

// Instrument timeouts for command/response exchanges.
const (
	// InstrumentResponseTimeout is used when neither the request nor the
	// variant sets a response timeout.
	InstrumentResponseTimeout = 2 * time.Second

	// InstrumentOpenTimeout bounds opening a single instrument.
	InstrumentOpenTimeout = 10 * time.Second

	// InstrumentProbeTimeout bounds a discovery probe (e.g. loopback echo) per port.
	InstrumentProbeTimeout = 500 * time.Millisecond
)

// Serial line settings.
const (
	// SerialBaudRate is the default baud rate for serial instruments.
	SerialBaudRate = 9600

	// SerialReadQuantum is the read timeout applied to the port while
	// waiting for a response line.
	SerialReadQuantum = 20 * time.Millisecond
)

// Session defaults.
const (
	// SessionCommandsPerSecond caps the command rate per instrument when the
	// configuration does not set one.
	SessionCommandsPerSecond = 50

	// SessionCloseTimeout bounds the time spent closing instruments at the end of a run.
	SessionCloseTimeout = 10 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// HTTP client timeouts for remote configuration downloads.
const (
	// HTTPClientTimeout is the default total timeout for HTTP requests.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second
)
