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

package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchkit_session_commands_total",
			Help: "Total number of measurement commands sent",
		},
		[]string{"instrument", "status"}, // ok, timeout, connection or error
	)

	commandLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "benchkit_session_command_latency_seconds",
			Help:    "Response latency of measurement commands",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"instrument"},
	)

	instrumentsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "benchkit_session_instruments_open",
			Help: "Number of instruments currently held open by sessions",
		},
	)
)
