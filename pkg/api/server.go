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

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/benchkit/benchkit/pkg/config"
	"github.com/benchkit/benchkit/pkg/logging"
	"github.com/benchkit/benchkit/pkg/server"
	"github.com/benchkit/benchkit/pkg/session"
	"github.com/benchkit/benchkit/pkg/version"
)

const (
	name = "benchd"

	// EnvConfig names the bench configuration file ServeFromEnv loads.
	EnvConfig = "BENCHKIT_CONFIG"
)

// ServeFromEnv configures logging, loads the configuration named by
// BENCHKIT_CONFIG and serves until SIGINT or SIGTERM.
func ServeFromEnv() error {
	ctx := context.Background()
	info := version.Get()

	logging.SetDefaultStructuredLogger(name, info.Version)
	slog.Info("starting",
		"name", name,
		"version", info.Version,
		"commit", info.Commit,
		"date", info.Date,
	)

	path := os.Getenv(EnvConfig)
	if path == "" {
		return fmt.Errorf("%s must name a bench configuration file", EnvConfig)
	}
	cfg, err := config.Load(ctx, path)
	if err != nil {
		return err
	}

	if err := Serve(ctx, cfg); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

// Serve exposes a session for cfg over HTTP and blocks until ctx is
// canceled or the process is signaled. Instruments are opened on the
// first POST /v1/run and closed on return.
func Serve(ctx context.Context, cfg *config.Config, opts ...ServeOption) (err error) {
	o := serveOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	sess, err := session.New(cfg, o.session...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := NewRunHandler(ctx, sess)
	s := server.New(append([]server.Option{
		server.WithName(name),
		server.WithVersion(version.Get().Version),
		server.WithHandler(h.Routes()),
	}, o.server...)...)

	return s.Run(ctx)
}

// ServeOption configures Serve.
type ServeOption func(*serveOptions)

type serveOptions struct {
	server  []server.Option
	session []session.Option
}

// WithServerOptions passes options to the HTTP server.
func WithServerOptions(opts ...server.Option) ServeOption {
	return func(o *serveOptions) {
		o.server = append(o.server, opts...)
	}
}

// WithSessionOptions passes options to the session.
func WithSessionOptions(opts ...session.Option) ServeOption {
	return func(o *serveOptions) {
		o.session = append(o.session, opts...)
	}
}
