/*
 * © 2026 Snyk Limited All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package performance

import "net/http"

type SpanStatus string

const (
	StatusUndefined         SpanStatus = ""
	StatusOK                SpanStatus = "ok"
	StatusCancelled         SpanStatus = "cancelled"
	StatusUnknown           SpanStatus = "unknown"
	StatusInvalidArgument   SpanStatus = "invalid_argument"
	StatusDeadlineExceeded  SpanStatus = "deadline_exceeded"
	StatusNotFound          SpanStatus = "not_found"
	StatusAlreadyExists     SpanStatus = "already_exists"
	StatusPermissionDenied  SpanStatus = "permission_denied"
	StatusResourceExhausted SpanStatus = "resource_exhausted"
	StatusUnimplemented     SpanStatus = "unimplemented"
	StatusUnavailable       SpanStatus = "unavailable"
	StatusInternalError     SpanStatus = "internal_error"
	StatusUnauthenticated   SpanStatus = "unauthenticated"
)

var clientErrors = map[SpanStatus]bool{
	StatusCancelled:         true,
	StatusInvalidArgument:   true,
	StatusNotFound:          true,
	StatusAlreadyExists:     true,
	StatusPermissionDenied:  true,
	StatusResourceExhausted: true,
	StatusUnauthenticated:   true,
}

var serverErrors = map[SpanStatus]bool{
	StatusUnknown:          true,
	StatusDeadlineExceeded: true,
	StatusUnimplemented:    true,
	StatusUnavailable:      true,
	StatusInternalError:    true,
}

// StatusFromHTTPCode maps an HTTP status code to a span status.
func StatusFromHTTPCode(code int) SpanStatus {
	switch code {
	case http.StatusBadRequest:
		return StatusInvalidArgument
	case http.StatusUnauthorized:
		return StatusUnauthenticated
	case http.StatusForbidden:
		return StatusPermissionDenied
	case http.StatusNotFound:
		return StatusNotFound
	case http.StatusConflict:
		return StatusAlreadyExists
	case http.StatusTooManyRequests:
		return StatusResourceExhausted
	case 499:
		return StatusCancelled
	case http.StatusInternalServerError:
		return StatusInternalError
	case http.StatusNotImplemented:
		return StatusUnimplemented
	case http.StatusServiceUnavailable:
		return StatusUnavailable
	case http.StatusGatewayTimeout:
		return StatusDeadlineExceeded
	}
	switch {
	case code >= 100 && code < 400:
		return StatusOK
	case code >= 400 && code < 500:
		return StatusInvalidArgument
	case code >= 500 && code < 600:
		return StatusInternalError
	}
	return StatusUnknown
}

func (s SpanStatus) IsClientError() bool { return clientErrors[s] }

func (s SpanStatus) IsServerError() bool { return serverErrors[s] }
