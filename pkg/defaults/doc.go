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

// Package defaults provides centralized configuration constants for benchkit.
//
// This package defines timeout values, timing quanta and other configuration
// defaults used across the codebase. Centralizing these values ensures consistency
// and makes tuning easier.
//
// # Categories
//
//   - Runner timing: poll quantum of the measurement loop
//   - Instrument timeouts: response, open and discovery probe windows
//   - Serial line settings: baud rate and read quantum
//   - Session defaults: command rate limit and instrument teardown
//   - Server timeouts: HTTP control server configuration
//
// # Usage
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.InstrumentOpenTimeout)
//	defer cancel()
//
// # Guidelines
//
//   - The poll quantum trades cancellation latency for CPU overhead; 50ms keeps
//     Stop responsive without busy waiting.
//   - Response timeouts apply per command; callers may override them per request.
package defaults
