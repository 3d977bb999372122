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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/benchkit/benchkit/pkg/config"
	"github.com/benchkit/benchkit/pkg/defaults"
	bkerrors "github.com/benchkit/benchkit/pkg/errors"
	"github.com/benchkit/benchkit/pkg/header"
	"github.com/benchkit/benchkit/pkg/instrument"
	"github.com/benchkit/benchkit/pkg/runner"
	"github.com/benchkit/benchkit/pkg/version"
)

// Option configures a Session.
type Option func(*Session)

// WithRegistry selects the registry instruments are opened from. The
// default is instrument.NewFromGlobal().
func WithRegistry(reg *instrument.Registry) Option {
	return func(s *Session) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithCallback adds an observer that receives every run event after the
// session has handled it.
func WithCallback(cb runner.Callback) Option {
	return func(s *Session) {
		s.observer = cb
	}
}

// WithRunnerOptions passes options to the underlying runner.
func WithRunnerOptions(opts ...runner.Option) Option {
	return func(s *Session) {
		s.runnerOpts = append(s.runnerOpts, opts...)
	}
}

// bound is an opened instrument with its command rate limit.
type bound struct {
	handle  *instrument.Handle
	limiter *rate.Limiter
}

// Session executes a configuration against real instruments: it opens the
// configured instruments, sends each measurement's command on every
// sample and collects the responses into a Report.
type Session struct {
	cfg        *config.Config
	registry   *instrument.Registry
	observer   runner.Callback
	runnerOpts []runner.Option

	measurements map[string]config.Measurement

	mu          sync.Mutex
	instruments map[string]*bound
	runner      *runner.Runner
	report      *Report
	cancel      context.CancelFunc
	finished    chan struct{}
}

// New creates a Session for cfg. Instruments are opened by Open or Start.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, bkerrors.New(bkerrors.ErrCodeInvalidRequest, "session needs a configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:          cfg,
		measurements: make(map[string]config.Measurement),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = instrument.NewFromGlobal()
	}
	for _, m := range cfg.Measurements() {
		s.measurements[m.Name] = m
	}
	return s, nil
}

// Open opens every configured instrument concurrently. On failure the
// instruments that did open are closed again. Open is a no-op when the
// instruments are already open.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(ctx)
}

func (s *Session) openLocked(ctx context.Context) error {
	if s.instruments != nil {
		return nil
	}

	entries := s.cfg.Instruments()
	handles := make([]*instrument.Handle, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	for i, ic := range entries {
		g.Go(func() error {
			h, err := s.registry.Open(gctx, ic.Driver, ic.Params)
			if err != nil {
				return fmt.Errorf("instrument %q: %w", ic.Name, err)
			}
			handles[i] = h
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var errs []error
		for i, h := range handles {
			if h == nil {
				continue
			}
			if cerr := h.Close(); cerr != nil {
				errs = append(errs, fmt.Errorf("failed to close instrument %q: %w", entries[i].Name, cerr))
			}
		}
		return errors.Join(append([]error{err}, errs...)...)
	}

	s.instruments = make(map[string]*bound, len(entries))
	for i, ic := range entries {
		perSecond := ic.CommandsPerSecond
		if perSecond <= 0 {
			perSecond = defaults.SessionCommandsPerSecond
		}
		s.instruments[ic.Name] = &bound{
			handle:  handles[i],
			limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		}
		slog.Debug("session instrument ready", "name", ic.Name, "driver", ic.Driver)
	}
	instrumentsOpen.Add(float64(len(entries)))
	return nil
}

// Start opens the instruments if needed and begins a run. It returns the
// run ID, or a CONFLICT error while a run is active.
func (s *Session) Start(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runner != nil && s.runner.IsRunning() {
		return "", bkerrors.NewWithContext(bkerrors.ErrCodeConflict, "a run is already active",
			map[string]any{"runId": s.report.RunID})
	}
	if err := s.openLocked(ctx); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r, err := runner.New(s.cfg, s.callback(runCtx), s.runnerOpts...)
	if err != nil {
		cancel()
		return "", err
	}

	s.runner = r
	s.cancel = cancel
	s.finished = make(chan struct{})
	s.report = &Report{
		RunID:     uuid.NewString(),
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.report.Init(header.KindBenchReport, version.Get().Version)

	r.Start(runCtx)
	go s.watch(runCtx, r, cancel, s.finished)

	slog.Info("measurement run started", "runId", s.report.RunID,
		"measurements", len(s.measurements), "instruments", len(s.instruments))
	return s.report.RunID, nil
}

// watch finalizes the report when the run ends. A run whose context was
// canceled, by Stop or by the caller, counts as stopped.
func (s *Session) watch(runCtx context.Context, r *runner.Runner, cancel context.CancelFunc, finished chan struct{}) {
	err := r.Wait()
	stopped := runCtx.Err() != nil
	cancel()

	s.mu.Lock()
	now := time.Now().UTC()
	s.report.FinishedAt = &now
	switch {
	case err != nil:
		s.report.Status = StatusFailed
		s.report.Errors = append(s.report.Errors, err.Error())
	case stopped:
		s.report.Status = StatusStopped
	default:
		s.report.Status = StatusCompleted
	}
	runID, status := s.report.RunID, s.report.Status
	s.mu.Unlock()

	slog.Info("measurement run ended", "runId", runID, "status", status)
	close(finished)
}

// callback sends the measurement commands and records events and readings.
// It runs on the runner goroutine.
func (s *Session) callback(ctx context.Context) runner.Callback {
	return func(elapsed time.Duration, message string) {
		s.record(func(rep *Report) {
			rep.Events = append(rep.Events, runner.Event{Elapsed: elapsed, Message: message})
		})

		if name, ok := runner.MeasurementName(message); ok {
			if m, ok := s.measurements[name]; ok && m.Command != "" {
				s.measure(ctx, elapsed, m)
			}
		}

		if s.observer != nil {
			s.observer(elapsed, message)
		}
	}
}

func (s *Session) measure(ctx context.Context, elapsed time.Duration, m config.Measurement) {
	reading := Reading{
		Measurement: m.Name,
		Instrument:  m.Instrument,
		Elapsed:     elapsed,
		Unit:        m.Unit,
	}

	s.mu.Lock()
	b := s.instruments[m.Instrument]
	s.mu.Unlock()

	resp, err := s.send(ctx, b, m)
	status := "ok"
	switch {
	case err == nil:
		if resp != nil {
			reading.Value = resp.String()
			reading.Latency = resp.Latency
			commandLatency.WithLabelValues(m.Instrument).Observe(resp.Latency.Seconds())
		}
	case instrument.IsTimeoutError(err):
		status = "timeout"
	case instrument.IsConnectionError(err):
		status = "connection"
	default:
		status = "error"
	}
	commandsTotal.WithLabelValues(m.Instrument, status).Inc()

	if err != nil {
		reading.Error = err.Error()
		slog.Warn("measurement failed", "measurement", m.Name, "instrument", m.Instrument, "error", err)
	}

	s.record(func(rep *Report) {
		rep.Readings = append(rep.Readings, reading)
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", m.Name, err))
		}
	})
}

func (s *Session) send(ctx context.Context, b *bound, m config.Measurement) (*instrument.Response, error) {
	if b == nil {
		return nil, bkerrors.New(bkerrors.ErrCodeNotFound,
			fmt.Sprintf("instrument %q is not open", m.Instrument))
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return b.handle.SendCommand(ctx, instrument.Request{
		Command:        []byte(m.Command),
		ExpectResponse: true,
		Timeout:        time.Duration(m.Timeout),
	})
}

func (s *Session) record(fn func(rep *Report)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report != nil {
		fn(s.report)
	}
}

// Stop stops the active run and waits for it to end. No-op when idle.
func (s *Session) Stop() {
	s.mu.Lock()
	r, cancel, finished := s.runner, s.cancel, s.finished
	s.mu.Unlock()

	if r == nil {
		return
	}
	cancel()
	r.Stop()
	<-finished
}

// Wait blocks until the current run ends and returns its report. The
// error is the run's failure, if any.
func (s *Session) Wait() (*Report, error) {
	s.mu.Lock()
	r, finished := s.runner, s.finished
	s.mu.Unlock()

	if r == nil {
		return nil, bkerrors.New(bkerrors.ErrCodeNotFound, "no run has been started")
	}
	<-finished
	return s.Report(), r.Err()
}

// IsRunning reports whether a run is active.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner != nil && s.runner.IsRunning()
}

// Report returns a copy of the current or last run's report, or nil when
// no run has been started.
func (s *Session) Report() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return nil
	}
	return s.report.clone()
}

// Close stops any active run and closes every instrument. Close errors
// are joined and returned.
func (s *Session) Close() error {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for name, b := range s.instruments {
		if err := b.handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close instrument %q: %w", name, err))
		}
	}
	instrumentsOpen.Sub(float64(len(s.instruments)))
	s.instruments = nil
	return errors.Join(errs...)
}

// Run opens the instruments, runs the configuration to completion (or
// until ctx is canceled) and closes the instruments on every path.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (rep *Report, err error) {
	s, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if _, err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s.Wait()
}
