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
	"time"

	"github.com/benchkit/benchkit/pkg/defaults"
)

// WriteFunc writes a command to the transport.
type WriteFunc func(ctx context.Context, command []byte) error

// ReadFunc blocks until a response is available or ctx is done.
type ReadFunc func(ctx context.Context) ([]byte, error)

// Exchange runs the command/response contract shared by all variants:
// write, return early when no response is expected, otherwise run the
// pre-response hook, wait up to the response timeout, and run the
// post-response hook whatever the outcome.
//
// fallback is the variant's own response timeout; zero selects
// defaults.InstrumentResponseTimeout. A read that ends because the response
// window elapsed is reported as a TIMEOUT error. A write failure returns
// before any hook runs.
func Exchange(ctx context.Context, req Request, fallback time.Duration, write WriteFunc, read ReadFunc) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("exchange canceled: %w", err)
	}

	if err := write(ctx, req.Command); err != nil {
		return nil, err
	}
	if !req.ExpectResponse {
		return nil, nil
	}

	timeout := responseTimeout(req.Timeout, fallback)
	if req.PreResponse != nil {
		req.PreResponse()
	}

	sent := time.Now()
	rctx, cancel := context.WithTimeout(ctx, timeout)
	data, err := read(rctx)
	cancel()

	var resp *Response
	switch {
	case err == nil:
		resp = &Response{Data: data, Latency: time.Since(sent)}
	case ctx.Err() != nil:
		err = fmt.Errorf("exchange canceled: %w", ctx.Err())
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(rctx.Err(), context.DeadlineExceeded):
		if !IsTimeoutError(err) {
			err = TimeoutError(timeout, err)
		}
	}

	if req.PostResponse != nil {
		req.PostResponse(resp, err)
	}
	return resp, err
}

func responseTimeout(requested, fallback time.Duration) time.Duration {
	if requested > 0 {
		return requested
	}
	if fallback > 0 {
		return fallback
	}
	return defaults.InstrumentResponseTimeout
}
