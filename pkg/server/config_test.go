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

package server

import (
	"testing"
	"time"

	"github.com/benchkit/benchkit/pkg/defaults"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvShutdownTimeout, "")

	cfg := NewConfig()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.ShutdownTimeout != defaults.ServerShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, defaults.ServerShutdownTimeout)
	}
	if cfg.RateLimit <= 0 || cfg.RateLimitBurst <= 0 {
		t.Errorf("rate limit must be positive, got %v/%d", cfg.RateLimit, cfg.RateLimitBurst)
	}
}

func TestNewConfig_Env(t *testing.T) {
	tests := []struct {
		name         string
		port         string
		shutdown     string
		wantPort     int
		wantShutdown time.Duration
	}{
		{"valid overrides", "9090", "45", 9090, 45 * time.Second},
		{"non numeric ignored", "abc", "soon", 8080, defaults.ServerShutdownTimeout},
		{"out of range port ignored", "70000", "0", 8080, defaults.ServerShutdownTimeout},
		{"negative shutdown ignored", "8081", "-5", 8081, defaults.ServerShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvPort, tt.port)
			t.Setenv(EnvShutdownTimeout, tt.shutdown)

			cfg := NewConfig()
			if cfg.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", cfg.Port, tt.wantPort)
			}
			if cfg.ShutdownTimeout != tt.wantShutdown {
				t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, tt.wantShutdown)
			}
		})
	}
}
