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

import "reflect"

// Matcher holds the parameters an instrument requires to identify itself
// among discovered devices. Variants embed it to get IsMatch.
// The zero value matches every candidate.
type Matcher struct {
	params Params
}

// NewMatcher copies params so later changes by the caller do not leak in.
func NewMatcher(params Params) Matcher {
	return Matcher{params: params.Clone()}
}

// IsMatch reports whether every match parameter is present in candidate
// with an equal raw value. Extra candidate keys are ignored and values are
// not normalized, so int(9600) and "9600" differ.
func (m Matcher) IsMatch(candidate Params) bool {
	return IsSubset(m.params, candidate)
}

// MatchParams returns a copy of the match parameters.
func (m Matcher) MatchParams() Params {
	return m.params.Clone()
}

// IsSubset reports whether every key of want is present in have with an
// equal value.
func IsSubset(want, have Params) bool {
	for k, wv := range want {
		hv, ok := have[k]
		if !ok || !equalValue(wv, hv) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
