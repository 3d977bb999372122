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
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/benchkit/benchkit/pkg/defaults"
	bkerrors "github.com/benchkit/benchkit/pkg/errors"
)

// OpenFunc opens a variant for the given connection parameters.
type OpenFunc func(ctx context.Context, params Params) (Instrument, error)

// Variant describes one instrument driver.
type Variant struct {
	// Name identifies the variant in configuration files, e.g. "serial".
	Name string

	// Description is a short human readable summary.
	Description string

	// MatchParams are the discovery parameters that identify devices this
	// variant can drive. Empty means the variant never claims a discovered
	// device on its own.
	MatchParams Params

	// Controls declares the connection parameters Open accepts.
	Controls Controls

	// Open creates a connected instrument.
	Open OpenFunc
}

func (v Variant) validate() error {
	if v.Name == "" {
		return ContractViolation(v.Name, "variant name is required")
	}
	if v.Open == nil {
		return ContractViolation(v.Name, "variant does not implement Open")
	}
	if v.Controls == nil {
		return ContractViolation(v.Name, "variant does not declare its settings controls")
	}
	return nil
}

// Global registry for instrument variants.
// Variant packages register themselves via init() functions.
var (
	globalVariants = make(map[string]Variant)
	globalMu       sync.RWMutex
)

// Register registers a variant globally. It fails when the variant is
// incomplete or a variant with the same name is already registered.
func Register(v Variant) error {
	if err := v.validate(); err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	if _, exists := globalVariants[v.Name]; exists {
		return ContractViolation(v.Name, fmt.Sprintf("variant %s already registered", v.Name))
	}
	globalVariants[v.Name] = v
	return nil
}

// MustRegister panics on registration error. Use it in init() functions.
func MustRegister(v Variant) {
	if err := Register(v); err != nil {
		panic(err)
	}
}

// NewFromGlobal creates a Registry populated with every globally registered variant.
func NewFromGlobal() *Registry {
	globalMu.RLock()
	defer globalMu.RUnlock()

	reg := NewRegistry()
	for _, v := range globalVariants {
		reg.variants[v.Name] = v
	}
	return reg
}

// Registry manages instrument variants with thread-safe operations.
type Registry struct {
	variants map[string]Variant
	mu       sync.RWMutex
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		variants: make(map[string]Variant),
	}
}

// Register adds a variant to this registry.
func (r *Registry) Register(v Variant) error {
	if err := v.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.variants[v.Name]; exists {
		return ContractViolation(v.Name, fmt.Sprintf("variant %s already registered", v.Name))
	}
	r.variants[v.Name] = v
	return nil
}

// Names returns the registered variant names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.variants))
	for n := range r.variants {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named variant. Unknown names fail with NOT_FOUND and,
// when one is close enough, a suggestion.
func (r *Registry) Lookup(name string) (Variant, error) {
	r.mu.RLock()
	v, ok := r.variants[name]
	r.mu.RUnlock()
	if ok {
		return v, nil
	}

	ctx := map[string]any{"variant": name}
	msg := fmt.Sprintf("unknown instrument variant %q", name)
	if s := Suggest(name, r.Names()); s != "" {
		ctx["suggestion"] = s
		msg = fmt.Sprintf("%s, did you mean %q?", msg, s)
	}
	return Variant{}, bkerrors.NewWithContext(bkerrors.ErrCodeNotFound, msg, ctx)
}

// Controls returns the labeled settings controls of the named variant.
func (r *Registry) Controls(name string) (Controls, error) {
	v, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return v.Controls.withLabels(), nil
}

// Match returns, in sorted order, the names of variants whose match
// parameters are a subset of candidate.
func (r *Registry) Match(candidate Params) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for n, v := range r.variants {
		if len(v.MatchParams) == 0 {
			continue
		}
		if IsSubset(v.MatchParams, candidate) {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Open opens the named variant. Missing parameters are filled from the
// control defaults and validated before the variant is called. The returned
// Handle must be closed by the caller.
func (r *Registry) Open(ctx context.Context, name string, params Params) (*Handle, error) {
	v, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	merged := v.Controls.Defaults()
	for k, val := range params {
		merged[k] = val
	}
	if err := v.Controls.Validate(merged); err != nil {
		return nil, bkerrors.WrapWithContext(bkerrors.ErrCodeInvalidRequest,
			"invalid instrument parameters", err, map[string]any{"variant": name})
	}

	octx, cancel := context.WithTimeout(ctx, defaults.InstrumentOpenTimeout)
	defer cancel()

	inst, err := v.Open(octx, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s instrument: %w", name, err)
	}
	if inst == nil {
		return nil, ContractViolation(name, "Open returned no instrument")
	}

	slog.Debug("instrument opened", "variant", name, "params", merged)
	return newHandle(name, inst), nil
}

// Suggest returns the candidate closest to name by edit distance, or an
// empty string when none is reasonably close.
func Suggest(name string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}
