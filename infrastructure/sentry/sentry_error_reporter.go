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

package sentry

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/snyk/sentry-instrumentation/domain/observability/error_reporting"
)

type sentryErrorReporter struct {
	hub *sentry.Hub
}

// NewSentryErrorReporter reports instrumentation problems through hub.
func NewSentryErrorReporter(hub *sentry.Hub) error_reporting.ErrorReporter {
	return &sentryErrorReporter{hub: hub}
}

func (s *sentryErrorReporter) FlushErrorReporting() {
	// Set the timeout to the maximum duration the program can afford to wait
	s.hub.Flush(2 * time.Second)
}

func (s *sentryErrorReporter) CaptureError(err error) bool {
	eventId := s.hub.CaptureException(err)
	log.Info().Err(err).Str("method", "CaptureError").Msgf("Sent error to Sentry (ID: %v)", eventId)
	return eventId != nil
}

func (s *sentryErrorReporter) CaptureMessage(msg string) bool {
	eventId := s.hub.CaptureMessage(msg)
	log.Info().Str("method", "CaptureMessage").Msgf("Sent message to Sentry (ID: %v)", eventId)
	return eventId != nil
}
