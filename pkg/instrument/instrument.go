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
	"time"
)

// Common connection parameter keys shared by discovery and the variants.
const (
	ParamPort         = "port"
	ParamBaudRate     = "baud"
	ParamVendorID     = "vid"
	ParamProductID    = "pid"
	ParamSerialNumber = "serial"
	ParamProduct      = "product"
)

// Params is a set of connection parameters, either discovered for a device
// or declared by an instrument as the ones it requires.
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns the value of key as a string when it holds one.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// Hook runs right before an instrument blocks waiting for a response.
type Hook func()

// PostHook runs after a response arrived or failed to arrive.
// Exactly one of resp and err is non-nil.
type PostHook func(resp *Response, err error)

// Request describes one command exchange with an instrument.
type Request struct {
	// Command is written to the instrument as-is; variants append their
	// own framing (e.g. a line terminator).
	Command []byte

	// ExpectResponse makes SendCommand wait for a response. When false,
	// SendCommand returns (nil, nil) right after writing and no hook runs.
	ExpectResponse bool

	// PreResponse and PostResponse are optional.
	PreResponse  Hook
	PostResponse PostHook

	// Timeout overrides the variant's response timeout when positive.
	Timeout time.Duration
}

// Response is what an instrument answered to a Request.
type Response struct {
	Data []byte `json:"data" yaml:"data"`

	// Latency is the time between the end of the write and the response.
	Latency time.Duration `json:"latency" yaml:"latency"`
}

// String returns the response payload as text.
func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return string(r.Data)
}

// Instrument is the capability contract every driver variant implements.
type Instrument interface {
	// IsMatch reports whether the instrument's match parameters are a
	// subset of candidate.
	IsMatch(candidate Params) bool

	// SendCommand writes req.Command and optionally waits for a response.
	// It fails with a CONNECTION error when the transport is unreachable
	// and with a TIMEOUT error when no response arrives in time. Neither
	// leaves the instrument unusable.
	SendCommand(ctx context.Context, req Request) (*Response, error)

	// Close releases the transport. Calls after the first return nil.
	Close() error

	// SettingsControls declares the user-configurable connection parameters.
	SettingsControls() Controls
}
