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

package header

import (
	"time"
)

// APIVersion is the schema version written into every document.
const APIVersion = "benchkit.io/v1"

// Kind identifies the type of a benchkit document.
type Kind string

const (
	KindBenchConfig Kind = "BenchConfig"
	KindBenchReport Kind = "BenchReport"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindBenchConfig, KindBenchReport:
		return true
	default:
		return false
	}
}

// Option is a functional option for configuring Header instances.
type Option func(*Header)

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(h *Header) {
		if h.Metadata == nil {
			h.Metadata = make(map[string]string)
		}
		h.Metadata[key] = value
	}
}

// WithKind sets the Kind.
func WithKind(kind Kind) Option {
	return func(h *Header) {
		h.Kind = kind
	}
}

// New creates a Header at the current APIVersion.
func New(opts ...Option) *Header {
	h := &Header{
		APIVersion: APIVersion,
		Metadata:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Header carries the document type and provenance of configuration files
// and reports, in the kind/apiVersion/metadata layout operators already
// know from Kubernetes manifests.
type Header struct {
	Kind       Kind              `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string            `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Init stamps the header with kind, the current APIVersion, a UTC
// timestamp and, when non-empty, the producing version.
func (h *Header) Init(kind Kind, version string) {
	h.Kind = kind
	h.APIVersion = APIVersion
	h.Metadata = map[string]string{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if version != "" {
		h.Metadata["version"] = version
	}
}

// Check accepts an empty header or one of the wanted kind at a supported
// API version. Documents written by hand may omit the header entirely.
func (h Header) Check(want Kind) error {
	if h.Kind != "" && h.Kind != want {
		return &MismatchError{Field: "kind", Want: want.String(), Got: h.Kind.String()}
	}
	if h.APIVersion != "" && h.APIVersion != APIVersion {
		return &MismatchError{Field: "apiVersion", Want: APIVersion, Got: h.APIVersion}
	}
	return nil
}

// Clone returns a copy with its own metadata map.
func (h Header) Clone() Header {
	out := h
	if h.Metadata != nil {
		out.Metadata = make(map[string]string, len(h.Metadata))
		for k, v := range h.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// MismatchError reports a document of the wrong kind or version.
type MismatchError struct {
	Field string
	Want  string
	Got   string
}

func (e *MismatchError) Error() string {
	return e.Field + " " + e.Got + " is not supported, expected " + e.Want
}
