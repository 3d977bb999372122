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
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ControlKind describes how a settings control is edited.
type ControlKind string

const (
	ControlText   ControlKind = "text"
	ControlNumber ControlKind = "number"
	ControlChoice ControlKind = "choice"
	ControlBool   ControlKind = "bool"
)

// Control describes one user-configurable connection parameter.
type Control struct {
	Kind     ControlKind `json:"kind" yaml:"kind"`
	Label    string      `json:"label,omitempty" yaml:"label,omitempty"`
	Default  any         `json:"default,omitempty" yaml:"default,omitempty"`
	Choices  []any       `json:"choices,omitempty" yaml:"choices,omitempty"`
	Required bool        `json:"required,omitempty" yaml:"required,omitempty"`
}

// Controls maps a connection parameter name to its control descriptor.
type Controls map[string]Control

// Names returns the parameter names in sorted order.
func (c Controls) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Defaults returns the default value of every control that declares one.
func (c Controls) Defaults() Params {
	out := Params{}
	for n, ctl := range c {
		if ctl.Default != nil {
			out[n] = ctl.Default
		}
	}
	return out
}

// Validate checks that params supplies every required control and that
// choice controls carry one of their declared values.
func (c Controls) Validate(params Params) error {
	for _, n := range c.Names() {
		ctl := c[n]
		v, ok := params[n]
		if !ok {
			if ctl.Required && ctl.Default == nil {
				return fmt.Errorf("missing required parameter %q", n)
			}
			continue
		}
		if ctl.Kind == ControlChoice && len(ctl.Choices) > 0 {
			found := false
			for _, choice := range ctl.Choices {
				if choiceEqual(choice, v) {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("parameter %q: %v is not one of %v", n, v, ctl.Choices)
			}
		}
	}
	return nil
}

// withLabels fills in missing labels from the parameter names,
// e.g. "baud_rate" becomes "Baud Rate".
func (c Controls) withLabels() Controls {
	titleCaser := cases.Title(language.English)
	out := make(Controls, len(c))
	for n, ctl := range c {
		if ctl.Label == "" {
			ctl.Label = titleCaser.String(strings.NewReplacer("_", " ", "-", " ").Replace(n))
		}
		out[n] = ctl
	}
	return out
}

// choiceEqual compares a declared choice with a supplied value. Numbers
// compare by value so that 9600 decoded from JSON (float64) or YAML (int)
// both select the same choice.
func choiceEqual(choice, v any) bool {
	if a, ok := numeric(choice); ok {
		if b, ok := numeric(v); ok {
			return a == b
		}
	}
	return equalValue(choice, v)
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
