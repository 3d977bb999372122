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

package instrument

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// CloseOnce makes a release function idempotent. The first Do runs release
// and returns its error; later calls return nil without running it.
type CloseOnce struct {
	once sync.Once
	done atomic.Bool
}

// Do runs release on the first call only.
func (c *CloseOnce) Do(release func() error) error {
	var err error
	c.once.Do(func() {
		err = release()
		c.done.Store(true)
	})
	return err
}

// Closed reports whether release has run.
func (c *CloseOnce) Closed() bool {
	return c.done.Load()
}

// closeState is what the cleanup sees; it must not reference the Handle.
type closeState struct {
	name   string
	inst   Instrument
	closer CloseOnce
}

func (s *closeState) close() error {
	return s.closer.Do(s.inst.Close)
}

// releaseAbandoned is the last-resort path for handles nobody closed.
// It never propagates a failure.
func releaseAbandoned(s *closeState) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("instrument cleanup panicked", "variant", s.name, "panic", r)
		}
	}()
	if err := s.close(); err != nil {
		slog.Debug("instrument cleanup failed", "variant", s.name, "error", err)
		return
	}
	slog.Debug("instrument released by cleanup", "variant", s.name)
}

// Handle is an opened instrument. Close it explicitly on every exit path;
// a handle that becomes unreachable without Close is released on a best
// effort basis with errors swallowed.
type Handle struct {
	state   *closeState
	cleanup runtime.Cleanup
}

func newHandle(name string, inst Instrument) *Handle {
	h := &Handle{state: &closeState{name: name, inst: inst}}
	h.cleanup = runtime.AddCleanup(h, releaseAbandoned, h.state)
	return h
}

// Variant returns the name of the variant behind the handle.
func (h *Handle) Variant() string {
	return h.state.name
}

// Instrument returns the underlying instrument.
func (h *Handle) Instrument() Instrument {
	return h.state.inst
}

// IsMatch implements Instrument.
func (h *Handle) IsMatch(candidate Params) bool {
	return h.state.inst.IsMatch(candidate)
}

// SendCommand implements Instrument. It fails with a CONNECTION error once
// the handle is closed.
func (h *Handle) SendCommand(ctx context.Context, req Request) (*Response, error) {
	if h.state.closer.Closed() {
		return nil, ConnectionError(h.state.name, errors.New("instrument is closed"))
	}
	return h.state.inst.SendCommand(ctx, req)
}

// SettingsControls implements Instrument.
func (h *Handle) SettingsControls() Controls {
	return h.state.inst.SettingsControls()
}

// Close releases the instrument and returns the release error. Later calls
// return nil.
func (h *Handle) Close() error {
	h.cleanup.Stop()
	return h.state.close()
}

// Use opens the named variant, runs fn, and closes the instrument on every
// path. A close failure is joined with fn's error.
func Use(ctx context.Context, reg *Registry, name string, params Params, fn func(ctx context.Context, inst Instrument) error) (err error) {
	h, err := reg.Open(ctx, name, params)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close %s instrument: %w", name, cerr))
		}
	}()
	return fn(ctx, h)
}
