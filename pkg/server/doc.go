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

// Package server is the HTTP control plane shared by benchkit binaries.
//
// It owns the HTTP lifecycle and the cross-cutting request handling;
// applications contribute routes with WithHandler:
//
//   - Request IDs (X-Request-Id, validated as UUID, generated otherwise)
//   - Token bucket rate limiting (golang.org/x/time/rate) with Retry-After
//   - Panic recovery that turns a crashing handler into a 500
//   - API version negotiation via application/vnd.benchkit.v1+json
//   - Prometheus request metrics and a /metrics endpoint
//   - Liveness (/health) and readiness (/ready) probes
//   - Graceful shutdown on SIGINT/SIGTERM
//
// # Usage
//
//	s := server.New(
//	    server.WithName("benchd"),
//	    server.WithHandler(map[string]http.HandlerFunc{
//	        "/v1/run": h.HandleRun,
//	    }),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// # Errors
//
// Failed API calls return an ErrorResponse:
//
//	{
//	  "code": "CONFLICT",
//	  "message": "a run is already active",
//	  "details": {"runId": "..."},
//	  "requestId": "...",
//	  "timestamp": "2026-01-01T00:00:00Z",
//	  "retryable": true
//	}
//
// WriteErrorFromErr maps pkg/errors codes to HTTP statuses: INVALID_REQUEST
// is 400, NOT_FOUND 404, CONFLICT 409, RATE_LIMIT_EXCEEDED 429, CONNECTION
// 502, TIMEOUT 504 and anything else 500.
//
// # Configuration
//
// PORT overrides the listen port (default 8080) and
// SHUTDOWN_TIMEOUT_SECONDS the graceful shutdown window.
package server
