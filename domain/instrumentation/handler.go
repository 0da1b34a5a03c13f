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

// Package instrumentation turns cache, database and view notifications into child spans of the
// current request's root span.
package instrumentation

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/snyk/sentry-instrumentation/domain/observability/error_reporting"
	"github.com/snyk/sentry-instrumentation/domain/observability/performance"
	"github.com/snyk/sentry-instrumentation/internal/correlation"
	"github.com/snyk/sentry-instrumentation/internal/events"
)

const (
	dataCodeStacktrace = "code.stacktrace"
)

// Handler turns the events of one service into spans and owns the spans it opened.
type Handler interface {
	Handle(ctx context.Context, ev events.Event)
	OpenSpans() []performance.Span
	DrainAll() int
}

// Dependencies are shared by every handler of one request.
type Dependencies struct {
	Current    performance.CurrentSpanFunc
	Reporter   error_reporting.ErrorReporter
	Classifier *Classifier
	Observer   correlation.Observer
	Logger     *zerolog.Logger
}

type handler struct {
	correlator *correlation.Correlator
	current    performance.CurrentSpanFunc
	reporter   error_reporting.ErrorReporter
	classifier *Classifier
	logger     *zerolog.Logger
}

func newHandler(deps Dependencies) handler {
	logger := deps.Logger
	if logger == nil {
		logger = &log.Logger
	}
	classifier := deps.Classifier
	if classifier == nil {
		classifier = NewClassifier()
	}
	opts := []correlation.Option{correlation.WithLogger(logger)}
	if deps.Observer != nil {
		opts = append(opts, correlation.WithObserver(deps.Observer))
	}
	return handler{
		correlator: correlation.New(opts...),
		current:    deps.Current,
		reporter:   deps.Reporter,
		classifier: classifier,
		logger:     logger,
	}
}

func (h *handler) OpenSpans() []performance.Span {
	return h.correlator.OpenSpans()
}

func (h *handler) DrainAll() int {
	return h.correlator.DrainAll()
}

// recoverPanic keeps a tracing fault away from the instrumented operation. It must be deferred
// directly.
func (h *handler) recoverPanic(method string) {
	r := recover()
	if r == nil {
		return
	}
	err := errors.Errorf("sentry-instrumentation: %s panicked: %v", method, r)
	h.logger.Error().Str("method", method).Err(err).Msg("recovered from tracing failure")
	if h.reporter != nil {
		h.reporter.CaptureError(err)
	}
}
