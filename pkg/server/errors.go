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

package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	bkerrors "github.com/benchkit/benchkit/pkg/errors"
	"github.com/benchkit/benchkit/pkg/serializer"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// WriteError writes an ErrorResponse with the request's ID.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code bkerrors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID := RequestID(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	serializer.RespondJSON(w, statusCode, ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// WriteErrorFromErr maps a structured error to its HTTP status and writes
// it. Errors without a code are reported as INTERNAL.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error) {
	var se *bkerrors.StructuredError
	if !errors.As(err, &se) {
		WriteError(w, r, http.StatusInternalServerError, bkerrors.ErrCodeInternal, err.Error(), true, nil)
		return
	}
	status, retryable := httpStatus(se.Code)
	WriteError(w, r, status, se.Code, err.Error(), retryable, se.Context)
}

func httpStatus(code bkerrors.ErrorCode) (int, bool) {
	switch code {
	case bkerrors.ErrCodeInvalidRequest, bkerrors.ErrCodeContractViolation:
		return http.StatusBadRequest, false
	case bkerrors.ErrCodeNotFound:
		return http.StatusNotFound, false
	case bkerrors.ErrCodeConflict:
		return http.StatusConflict, true
	case bkerrors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed, false
	case bkerrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests, true
	case bkerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, true
	case bkerrors.ErrCodeConnection:
		return http.StatusBadGateway, true
	case bkerrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable, true
	default:
		return http.StatusInternalServerError, true
	}
}
