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

package error_reporting

//go:generate mockgen -source=error_reporter.go -destination=mock_error_reporting/error_reporter_mock.go -package=mock_error_reporting

// ErrorReporter is the tracing backend's out-of-band channel for problems the instrumentation
// itself runs into. Reporting never fails the caller.
type ErrorReporter interface {
	FlushErrorReporting()
	CaptureError(err error) bool
	CaptureMessage(msg string) bool
}
