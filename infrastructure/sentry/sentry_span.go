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
	"context"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/snyk/sentry-instrumentation/domain/observability/performance"
)

type span struct {
	span     *sentry.Span
	finished atomic.Bool
}

func newSpan(s *sentry.Span) *span {
	return &span{span: s}
}

func (s *span) StartChild(sc performance.SpanContext) performance.Span {
	child := s.span.StartChild(sc.Op, withDescription(sc.Description), withData(sc.Data))
	log.Trace().
		Str("method", "span.StartChild").
		Str("operation", sc.Op).
		Str("description", sc.Description).
		Msg("starting span")
	return newSpan(child)
}

func (s *span) SetData(key string, value any) {
	if s.span.Data == nil {
		s.span.Data = map[string]interface{}{}
	}
	s.span.Data[key] = value
}

func (s *span) SetTag(key string, value string) {
	s.span.SetTag(key, value)
}

func (s *span) SetHTTPStatus(code int) {
	s.span.Status = sentry.HTTPtoSpanStatus(code)
}

// Finish sends the span once; later calls do nothing.
func (s *span) Finish() {
	if !s.finished.CompareAndSwap(false, true) {
		return
	}
	log.Trace().
		Str("method", "span.Finish").
		Str("operation", s.span.Op).
		Msg("finishing span")
	s.span.Finish()
}

func (s *span) Context() context.Context {
	return performance.GetContextWithTraceId(s.span.Context(), s.span.TraceID.String())
}

func (s *span) GetOperation() string {
	return s.span.Op
}

func withDescription(description string) sentry.SpanOption {
	return func(s *sentry.Span) {
		s.Description = description
	}
}

func withData(data map[string]any) sentry.SpanOption {
	return func(s *sentry.Span) {
		if len(data) == 0 {
			return
		}
		if s.Data == nil {
			s.Data = make(map[string]interface{}, len(data))
		}
		for k, v := range data {
			s.Data[k] = v
		}
	}
}

func withStartTime(t time.Time) sentry.SpanOption {
	return func(s *sentry.Span) {
		s.StartTime = t
	}
}
