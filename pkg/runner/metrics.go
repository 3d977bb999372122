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

package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes recorded in runsTotal.
const (
	statusCompleted = "completed"
	statusStopped   = "stopped"
	statusFailed    = "failed"
)

var (
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "benchkit_runner_run_duration_seconds",
			Help:    "Wall time of measurement runs",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 900, 3600},
		},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchkit_runner_runs_total",
			Help: "Total number of measurement runs by outcome",
		},
		[]string{"status"}, // completed, stopped or failed
	)

	samplesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "benchkit_runner_samples_total",
			Help: "Total number of measurement events emitted",
		},
	)

	callbackDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "benchkit_runner_callback_duration_seconds",
			Help:    "Time spent in the run callback per event",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	runsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "benchkit_runner_active",
			Help: "Number of runs currently executing",
		},
	)
)
