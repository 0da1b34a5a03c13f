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

package provider

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/snyk/sentry-instrumentation/domain/instrumentation"
	"github.com/snyk/sentry-instrumentation/domain/observability/error_reporting"
	"github.com/snyk/sentry-instrumentation/domain/observability/performance"
	"github.com/snyk/sentry-instrumentation/internal/events"
)

const (
	OpHTTPServer    = "http.server"
	TraceHeader     = "sentry-trace"
	BaggageHeader   = "baggage"
	RequestIDHeader = "X-Request-Id"
	TagRequestID    = "request_id"
)

type state int

const (
	stateUninitialized state = iota
	stateActive
	stateFinished
)

// RequestInfo describes the inbound request a root span is started for.
type RequestInfo struct {
	Method    string
	Path      string
	Header    http.Header
	StartTime time.Time
	// ID overrides the request id otherwise taken from X-Request-Id or generated.
	ID string
}

func RequestInfoFromHTTP(r *http.Request) RequestInfo {
	return RequestInfo{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header,
	}
}

// Response is whatever can tell the status code sent back to the client.
type Response interface {
	StatusCode() int
}

type scopeKey struct{}

// Scope holds the root span of one request and the handlers correlating its child spans.
type Scope struct {
	mutex    sync.Mutex
	state    state
	root     performance.Span
	id       string
	handlers map[string]instrumentation.Handler
	order    []string
	reporter error_reporting.ErrorReporter
	logger   *zerolog.Logger
}

// FromContext returns the scope of the request ctx belongs to, or nil.
func FromContext(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}
	scope, _ := ctx.Value(scopeKey{}).(*Scope)
	return scope
}

// CurrentSpan returns the span new child spans of ctx's request are attached to, or nil.
func CurrentSpan(ctx context.Context) performance.Span {
	return FromContext(ctx).CurrentSpan()
}

// Begin starts the root span of a request and returns a context carrying its Scope. When ctx
// already belongs to a request, that request's scope is returned unchanged.
func (p *Provider) Begin(ctx context.Context, info RequestInfo) (context.Context, *Scope) {
	if ctx == nil {
		ctx = context.Background()
	}
	if existing := FromContext(ctx); existing != nil {
		return ctx, existing
	}

	scope := &Scope{
		handlers: map[string]instrumentation.Handler{},
		reporter: p.reporter,
		logger:   p.logger,
	}
	deps := instrumentation.Dependencies{
		Current:    scope.CurrentSpan,
		Reporter:   p.reporter,
		Classifier: p.classifier,
		Observer:   p.observer,
		Logger:     p.logger,
	}
	for _, name := range p.factoryOrder {
		scope.handlers[name] = p.factories[name](deps)
		scope.order = append(scope.order, name)
	}

	root := p.startRoot(ctx, info)
	if root == nil {
		return context.WithValue(ctx, scopeKey{}, scope), scope
	}

	scope.id = requestID(info)
	root.SetTag(TagRequestID, scope.id)
	scope.root = root
	scope.state = stateActive

	rootCtx := root.Context()
	if rootCtx == nil {
		rootCtx = ctx
	}
	p.logger.Trace().Str("method", "Provider.Begin").Str("request_id", scope.id).Str("path", info.Path).Msg("root span started")
	return context.WithValue(rootCtx, scopeKey{}, scope), scope
}

func (p *Provider) startRoot(ctx context.Context, info RequestInfo) (root performance.Span) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("sentry-instrumentation: starting root span panicked: %v", r)
			p.logger.Error().Str("method", "Provider.startRoot").Err(err).Msg("not tracing request")
			p.reporter.CaptureError(err)
			root = nil
		}
	}()

	start := info.StartTime
	if start.IsZero() {
		start = p.clock.Now()
	}
	tc := performance.TransactionContext{
		Name:        info.Path,
		Op:          OpHTTPServer,
		Description: info.Method + " " + info.Path,
		StartTime:   start,
	}
	if info.Header != nil {
		tc.TraceHeader = info.Header.Get(TraceHeader)
		tc.BaggageHeader = info.Header.Get(BaggageHeader)
	}
	return p.instrumentor.StartTransaction(ctx, tc)
}

func requestID(info RequestInfo) string {
	if info.ID != "" {
		return info.ID
	}
	if info.Header != nil {
		if id := info.Header.Get(RequestIDHeader); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// CurrentSpan is the root span while the request is active and nil otherwise.
func (s *Scope) CurrentSpan() performance.Span {
	if s == nil {
		return nil
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != stateActive {
		return nil
	}
	return s.root
}

func (s *Scope) RequestID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Handler returns the handler instrumenting the named service, if any.
func (s *Scope) Handler(service string) instrumentation.Handler {
	if s == nil {
		return nil
	}
	return s.handlers[service]
}

// OpenSpans counts the child spans still waiting for their after event.
func (s *Scope) OpenSpans() int {
	if s == nil {
		return 0
	}
	open := 0
	for _, name := range s.order {
		open += len(s.handlers[name].OpenSpans())
	}
	return open
}

func (s *Scope) handle(ctx context.Context, ev events.Event) {
	h, ok := s.handlers[ev.Service]
	if !ok {
		return
	}
	h.Handle(ctx, ev)
}

// Finish finishes every child span still open, sets the root status from resp when there is one
// and finishes the root span. Only the first call does anything.
func (s *Scope) Finish(resp Response) {
	if s == nil {
		return
	}
	s.mutex.Lock()
	if s.state != stateActive {
		s.mutex.Unlock()
		return
	}
	s.state = stateFinished
	root := s.root
	s.mutex.Unlock()

	drained := 0
	s.guard("draining child spans", func() {
		for _, name := range s.order {
			drained += s.handlers[name].DrainAll()
		}
	})
	if resp != nil {
		s.guard("setting response status", func() {
			code := resp.StatusCode()
			if code == 0 {
				code = http.StatusOK
			}
			root.SetHTTPStatus(code)
		})
	}
	s.guard("finishing root span", root.Finish)
	s.logger.Trace().Str("method", "Scope.Finish").Str("request_id", s.id).Int("drained", drained).Msg("root span finished")
}

// guard runs one finishing step. A panic is reported and does not keep later steps from running.
func (s *Scope) guard(step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("sentry-instrumentation: %s panicked: %v", step, r)
			s.logger.Error().Str("method", "Scope.Finish").Err(err).Msg("recovered from tracing failure")
			s.reporter.CaptureError(err)
		}
	}()
	fn()
}
