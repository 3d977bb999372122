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

// Package cli implements the benchctl command line.
//
// # Commands
//
// run - Execute a bench configuration:
//
//	benchctl run -c bench.yaml [--interval 500ms] [--duration 1m] [--progress]
//
// Opens the configured instruments, runs the measurement sequence and
// writes the report. Interrupting the command stops the run and still
// writes what was collected.
//
// ports - Discover serial ports:
//
//	benchctl ports [--probe-loopback] --format table
//
// Lists ports with USB vendor/product IDs and the drivers that claim them.
//
// send - Send a single command:
//
//	benchctl send -d serial -p port=/dev/ttyUSB0 -p baud=115200 "*IDN?"
//
// controls - Show driver connection parameters:
//
//	benchctl controls serial daq
//
// serve - Expose a configuration over HTTP:
//
//	benchctl serve -c bench.yaml --port 9090
//
// # Global Flags
//
//	--log-level    debug, info, warn, error (default: info)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// Commands that produce data also take --output/-o (default: stdout) and
// --format/-t (yaml, json, table; default: yaml).
//
// # Environment Variables
//
//	BENCHKIT_CONFIG     Default for --config
//	BENCHKIT_LOG_LEVEL  Default for --log-level (LOG_LEVEL is also honored)
//	PORT                Default for serve --port
//
// # Exit Codes
//
//	0  Success
//	1  Error (invalid arguments, instrument failure, run errors)
package cli
