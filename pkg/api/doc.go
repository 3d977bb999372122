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

// Package api serves a bench session over HTTP.
//
// Usage:
//
//	import (
//	    "log"
//	    "github.com/benchkit/benchkit/pkg/api"
//	)
//
//	func main() {
//	    if err := api.ServeFromEnv(); err != nil {
//	        log.Fatalf("server error: %v", err)
//	    }
//	}
//
// # Architecture
//
// The API layer loads the configuration, creates a session.Session and
// registers its run resource with pkg/server, which owns the HTTP
// lifecycle, middleware, health probes and Prometheus metrics.
//
// # Endpoints
//
// Application endpoints (with rate limiting):
//   - GET /v1/run         - Report of the current or last run
//   - POST /v1/run        - Start a run; 409 while one is active
//   - DELETE /v1/run      - Stop the active run and return its report
//   - GET /v1/run/events  - Run events, ?since=N returns only newer ones
//
// System endpoints (no rate limiting):
//   - GET /health  - Liveness probe
//   - GET /ready   - Readiness probe
//   - GET /metrics - Prometheus metrics
//
// # Environment
//
//   - BENCHKIT_CONFIG: bench configuration file (YAML or JSON, path or URL)
//   - PORT: listen port (default 8080)
//   - SHUTDOWN_TIMEOUT_SECONDS: graceful shutdown window
//   - LOG_LEVEL: debug, info, warn or error
package api
