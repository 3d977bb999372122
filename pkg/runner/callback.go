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
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is one callback invocation.
type Event struct {
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	Message string        `json:"message" yaml:"message"`
}

// Measurement returns the measurement name of a measurement event.
func (e Event) Measurement() (string, bool) {
	return MeasurementName(e.Message)
}

// Events is an ordered list of run events.
type Events []Event

// TableHeader implements serializer.Tabular.
func (e Events) TableHeader() []string {
	return []string{"ELAPSED", "MESSAGE"}
}

// TableRows implements serializer.Tabular.
func (e Events) TableRows() [][]string {
	rows := make([][]string, len(e))
	for i, ev := range e {
		rows[i] = []string{ev.Elapsed.String(), ev.Message}
	}
	return rows
}

// LogCallback logs every event at info level.
func LogCallback(logger *slog.Logger) Callback {
	if logger == nil {
		logger = slog.Default()
	}
	return func(elapsed time.Duration, message string) {
		logger.Info(message, "elapsed", elapsed)
	}
}

// Recorder captures events. It is safe to read while a run is active.
type Recorder struct {
	mu     sync.Mutex
	events Events
}

// Callback returns the Callback that appends to r.
func (r *Recorder) Callback() Callback {
	return func(elapsed time.Duration, message string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, Event{Elapsed: elapsed, Message: message})
	}
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() Events {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(Events, len(r.events))
	copy(out, r.events)
	return out
}

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Message
	}
	return out
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Channel hands events to another goroutine through ch. A send blocks
// until the receiver takes the event or ctx is done, in which case the
// event is dropped.
func Channel(ctx context.Context, ch chan<- Event) Callback {
	return func(elapsed time.Duration, message string) {
		select {
		case ch <- Event{Elapsed: elapsed, Message: message}:
		case <-ctx.Done():
			slog.Debug("event dropped", "message", message, "reason", ctx.Err())
		}
	}
}

// Multi calls each callback in order. Nil callbacks are skipped.
func Multi(callbacks ...Callback) Callback {
	return func(elapsed time.Duration, message string) {
		for _, cb := range callbacks {
			if cb != nil {
				cb(elapsed, message)
			}
		}
	}
}
