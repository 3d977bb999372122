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
	"time"

	bkerrors "github.com/benchkit/benchkit/pkg/errors"
)

// ConnectionError reports that target could not be reached.
func ConnectionError(target string, cause error) error {
	return bkerrors.WrapWithContext(bkerrors.ErrCodeConnection,
		fmt.Sprintf("could not connect to %s", target), cause,
		map[string]any{"target": target})
}

// TimeoutError reports that no response arrived within timeout.
func TimeoutError(timeout time.Duration, cause error) error {
	return bkerrors.WrapWithContext(bkerrors.ErrCodeTimeout,
		"receiver timeout", cause,
		map[string]any{"timeout": timeout.String()})
}

// ContractViolation reports a variant that does not honor the instrument contract.
func ContractViolation(variant, message string) error {
	return bkerrors.NewWithContext(bkerrors.ErrCodeContractViolation, message,
		map[string]any{"variant": variant})
}

// IsConnectionError reports whether err carries a CONNECTION code.
func IsConnectionError(err error) bool {
	return bkerrors.IsCode(err, bkerrors.ErrCodeConnection)
}

// IsTimeoutError reports whether err carries a TIMEOUT code.
func IsTimeoutError(err error) bool {
	return bkerrors.IsCode(err, bkerrors.ErrCodeTimeout)
}
