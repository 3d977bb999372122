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
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/benchkit/benchkit/pkg/config"
	"github.com/benchkit/benchkit/pkg/defaults"
	bkerrors "github.com/benchkit/benchkit/pkg/errors"
)

// Messages emitted to the callback.
const (
	MessageStarting = "Process starting"
	MessageFinished = "Process finished"

	measurementPrefix = "Process measurement: "
)

// MeasurementMessage returns the event message for a sample of name.
func MeasurementMessage(name string) string {
	return measurementPrefix + name
}

// MeasurementName extracts the measurement name from a measurement event
// message. It returns false for any other message.
func MeasurementName(message string) (string, bool) {
	return strings.CutPrefix(message, measurementPrefix)
}

// Callback receives run events on the runner goroutine, in order. elapsed
// is measured from the start of the run.
type Callback func(elapsed time.Duration, message string)

// Option configures a Runner.
type Option func(*Runner)

// WithPollQuantum sets how often the loop wakes to check the sample window,
// the deadline and cancellation. Values below defaults.RunnerMinPollQuantum
// are raised to it.
func WithPollQuantum(d time.Duration) Option {
	return func(r *Runner) {
		if d < defaults.RunnerMinPollQuantum {
			d = defaults.RunnerMinPollQuantum
		}
		r.quantum = d
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// Runner samples the measurements of a config.Source every sample interval
// until the total duration elapses or the run is stopped. At most one run
// is active at a time; a Runner can be started again after a run ends.
type Runner struct {
	source   config.Source
	callback Callback
	quantum  time.Duration
	clock    Clock

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// New creates an idle Runner.
func New(source config.Source, callback Callback, opts ...Option) (*Runner, error) {
	if source == nil {
		return nil, bkerrors.New(bkerrors.ErrCodeInvalidRequest, "runner needs a configuration source")
	}
	if callback == nil {
		return nil, bkerrors.New(bkerrors.ErrCodeInvalidRequest, "runner needs a callback")
	}

	r := &Runner{
		source:   source,
		callback: callback,
		quantum:  defaults.RunnerPollQuantum,
		clock:    realClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start begins a run in the background and reports whether it did. It is a
// no-op returning false while a run is active. Cancelling ctx stops the run
// like Stop, without waiting for it.
func (r *Runner) Start(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.alive() {
		slog.Debug("runner already running, start ignored")
		return false
	}

	if r.cancel != nil {
		// release the previous run's context
		r.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.err = nil

	go r.run(runCtx, done)
	return true
}

// alive reports whether the run goroutine has not exited. Callers hold mu.
func (r *Runner) alive() bool {
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Stop cancels the active run and blocks until its goroutine has exited,
// after which no further events are delivered. It returns at once when idle.
// Stop must not be called from the callback.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// IsRunning reports whether the run goroutine is alive.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alive()
}

// Wait blocks until the current run exits and returns its error. It returns
// nil at once when no run was ever started.
func (r *Runner) Wait() error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done
	return r.Err()
}

// Err returns the error that ended the last run, if any.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Runner) run(ctx context.Context, done chan struct{}) {
	runsActive.Inc()
	began := time.Now()
	status := statusCompleted

	defer func() {
		if p := recover(); p != nil {
			status = statusFailed
			err := bkerrors.NewWithContext(bkerrors.ErrCodeInternal,
				fmt.Sprintf("run callback panicked: %v", p),
				map[string]any{"stack": string(debug.Stack())})
			slog.Error("measurement run aborted", "error", err)

			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
		}

		runsActive.Dec()
		runsTotal.WithLabelValues(status).Inc()
		runDuration.Observe(time.Since(began).Seconds())
		close(done)
	}()

	slog.Debug("measurement run starting",
		"interval", r.source.SampleInterval(),
		"duration", r.source.TotalDuration(),
		"quantum", r.quantum)

	if r.sample(ctx) {
		status = statusStopped
	}
}

// sample runs the loop and reports whether it ended by cancellation.
func (r *Runner) sample(ctx context.Context) bool {
	interval := r.source.SampleInterval()
	total := r.source.TotalDuration()

	r.emit(0, MessageStarting)

	start := r.clock.Now()
	windowStart := start
	due := true
	now := start
	canceled := false

loop:
	for {
		if ctx.Err() != nil {
			canceled = true
			break
		}

		if due {
			for _, m := range r.source.Measurements() {
				r.emit(r.clock.Now().Sub(start), MeasurementMessage(m.Name))
				samplesTotal.Inc()
			}
			due = false
		}

		select {
		case <-ctx.Done():
			canceled = true
			break loop
		case <-r.clock.After(r.quantum):
		}

		now = r.clock.Now()
		if now.Sub(windowStart) >= interval {
			windowStart = now
			due = true
		}
		if now.Sub(start) >= total {
			break
		}
	}

	if canceled {
		now = r.clock.Now()
	}

	r.emit(now.Sub(start), MessageFinished)
	slog.Debug("measurement run finished", "elapsed", now.Sub(start), "canceled", canceled)
	return canceled
}

func (r *Runner) emit(elapsed time.Duration, message string) {
	t := time.Now()
	r.callback(elapsed, message)
	callbackDuration.Observe(time.Since(t).Seconds())
}
