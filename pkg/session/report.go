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
	"time"

	"github.com/benchkit/benchkit/pkg/header"
	"github.com/benchkit/benchkit/pkg/runner"
)

// Status is the state of a run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusStopped   Status = "stopped"
	StatusFailed    Status = "failed"
)

// Reading is the outcome of one measurement command.
type Reading struct {
	Measurement string        `json:"measurement" yaml:"measurement"`
	Instrument  string        `json:"instrument" yaml:"instrument"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
	Value       string        `json:"value,omitempty" yaml:"value,omitempty"`
	Unit        string        `json:"unit,omitempty" yaml:"unit,omitempty"`
	Latency     time.Duration `json:"latency,omitempty" yaml:"latency,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarizes a run.
type Report struct {
	header.Header `yaml:",inline"`

	RunID      string        `json:"runId" yaml:"runId"`
	Status     Status        `json:"status" yaml:"status"`
	StartedAt  time.Time     `json:"startedAt" yaml:"startedAt"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty"`
	Events     runner.Events `json:"events" yaml:"events"`
	Readings   []Reading     `json:"readings,omitempty" yaml:"readings,omitempty"`
	Errors     []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// clone returns a deep copy safe to hand out while the run continues.
func (r *Report) clone() *Report {
	out := *r
	out.Header = r.Header.Clone()
	out.Events = append(runner.Events(nil), r.Events...)
	out.Readings = append([]Reading(nil), r.Readings...)
	out.Errors = append([]string(nil), r.Errors...)
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		out.FinishedAt = &t
	}
	return &out
}

// TableHeader implements serializer.Tabular.
func (r *Report) TableHeader() []string {
	return []string{"ELAPSED", "MEASUREMENT", "INSTRUMENT", "VALUE", "UNIT", "LATENCY", "ERROR"}
}

// TableRows implements serializer.Tabular. Measurements without a command
// have no reading and appear only in Events.
func (r *Report) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Readings))
	for _, rd := range r.Readings {
		latency := ""
		if rd.Latency > 0 {
			latency = rd.Latency.String()
		}
		rows = append(rows, []string{
			rd.Elapsed.String(), rd.Measurement, rd.Instrument, rd.Value, rd.Unit, latency, rd.Error,
		})
	}
	return rows
}
