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
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"

	"github.com/snyk/sentry-instrumentation/application/config"
	"github.com/snyk/sentry-instrumentation/domain/observability/error_reporting"
	"github.com/snyk/sentry-instrumentation/domain/observability/error_reporting/mock_error_reporting"
	"github.com/snyk/sentry-instrumentation/domain/observability/performance"
	"github.com/snyk/sentry-instrumentation/internal/events"
	"github.com/snyk/sentry-instrumentation/internal/testutil"
)

var requestStart = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type fakeCache struct {
	name    string
	manager *events.Manager
}

func (f *fakeCache) EventsManager() *events.Manager      { return f.manager }
func (f *fakeCache) SetEventsManager(m *events.Manager) { f.manager = m }
func (f *fakeCache) BackendKind() string                { return "memory" }

func (f *fakeCache) beforeGet(ctx context.Context, key string) {
	f.manager.Fire(ctx, events.Event{Kind: events.CacheBeforeGet, Service: f.name, Data: events.CachePayload{Keys: []string{key}}, Subject: f})
}

func (f *fakeCache) afterGet(ctx context.Context, key string, hit bool) {
	f.manager.Fire(ctx, events.Event{Kind: events.CacheAfterGet, Service: f.name, Data: events.CachePayload{Keys: []string{key}, Hit: events.Bool(hit)}, Subject: f})
}

type notEventsAware struct{}

type nilInstrumentor struct{}

func (nilInstrumentor) StartTransaction(context.Context, performance.TransactionContext) performance.Span {
	return nil
}

type statusResponse int

func (s statusResponse) StatusCode() int { return int(s) }

func setupProvider(t *testing.T, c *config.Config, opts ...Option) (*Provider, *performance.TestInstrumentor, *error_reporting.TestErrorReporter) {
	t.Helper()
	instrumentor := performance.NewTestInstrumentor()
	reporter := error_reporting.NewTestErrorReporter()
	opts = append([]Option{
		WithInstrumentor(instrumentor),
		WithErrorReporter(reporter),
		WithClock(clockz.NewFakeClockAt(requestStart)),
	}, opts...)
	p, err := New(c, opts...)
	require.NoError(t, err)
	return p, instrumentor, reporter
}

func rootOf(t *testing.T, scope *Scope) *performance.NoopSpan {
	t.Helper()
	root, ok := scope.CurrentSpan().(*performance.NoopSpan)
	require.True(t, ok)
	return root
}

func TestNew_MissingDsnIsFatal(t *testing.T) {
	p, err := New(config.Default(), WithInstrumentor(performance.NewTestInstrumentor()))

	assert.ErrorIs(t, err, config.ErrMissingDsn)
	assert.Nil(t, p)
}

func TestBegin_StartsRootSpanFromRequest(t *testing.T) {
	p, _, _ := setupProvider(t, testutil.UnitTest(t))
	header := http.Header{}
	header.Set(TraceHeader, "771a43a4192642f0b136d5159a501700-b0e6f15b45c36b12-1")
	header.Set(RequestIDHeader, "req-1")

	ctx, scope := p.Begin(context.Background(), RequestInfo{Method: http.MethodGet, Path: "/users", Header: header})

	root := rootOf(t, scope)
	assert.Equal(t, OpHTTPServer, root.GetOperation())
	assert.Equal(t, "/users", root.GetTxName())
	assert.Equal(t, "GET /users", root.Description)
	assert.Equal(t, requestStart, root.StartTime)
	assert.Equal(t, "771a43a4192642f0b136d5159a501700-b0e6f15b45c36b12-1", root.TraceHeader)
	assert.Equal(t, "req-1", root.Tag(TagRequestID))
	assert.Equal(t, "req-1", scope.RequestID())
	assert.Same(t, scope, FromContext(ctx))
	assert.Same(t, root, CurrentSpan(ctx))
}

func TestBegin_ExplicitStartTimeAndGeneratedRequestId(t *testing.T) {
	p, _, _ := setupProvider(t, testutil.UnitTest(t))
	start := requestStart.Add(-time.Second)

	_, scope := p.Begin(context.Background(), RequestInfo{Method: http.MethodPost, Path: "/", StartTime: start})

	root := rootOf(t, scope)
	assert.Equal(t, start, root.StartTime)
	_, err := uuid.Parse(root.Tag(TagRequestID))
	assert.NoError(t, err)
}

func TestBegin_ReusesScopeOfContext(t *testing.T) {
	p, instrumentor, _ := setupProvider(t, testutil.UnitTest(t))

	ctx, scope := p.Begin(context.Background(), RequestInfo{Method: http.MethodGet, Path: "/a"})
	_, again := p.Begin(ctx, RequestInfo{Method: http.MethodGet, Path: "/b"})

	assert.Same(t, scope, again)
	assert.Len(t, instrumentor.SpanRecorder.SpansWithOperation(OpHTTPServer), 1)
}

func TestScope_FinishIsIdempotent(t *testing.T) {
	p, _, _ := setupProvider(t, testutil.UnitTest(t))
	_, scope := p.Begin(context.Background(), RequestInfo{Method: http.MethodGet, Path: "/"})
	root := rootOf(t, scope)

	scope.Finish(statusResponse(http.StatusNotFound))
	scope.Finish(statusResponse(http.StatusOK))

	assert.Equal(t, 1, root.FinishCount)
	assert.Equal(t, http.StatusNotFound, root.HTTPStatus)
	assert.Equal(t, performance.StatusNotFound, root.Status)
	assert.Nil(t, scope.CurrentSpan())
}

func TestScope_FinishStatus(t *testing.T) {
	tests := []struct {
		name       string
		resp       Response
		wantCode   int
		wantStatus performance.SpanStatus
	}{
		{name: "no response reachable", resp: nil, wantCode: 0, wantStatus: performance.StatusUndefined},
		{name: "status not yet written", resp: statusResponse(0), wantCode: http.StatusOK, wantStatus: performance.StatusOK},
		{name: "server error", resp: statusResponse(http.StatusServiceUnavailable), wantCode: http.StatusServiceUnavailable, wantStatus: performance.StatusUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := setupProvider(t, testutil.UnitTest(t))
			_, scope := p.Begin(context.Background(), RequestInfo{Method: http.MethodGet, Path: "/"})
			root := rootOf(t, scope)

			scope.Finish(tt.resp)

			assert.True(t, root.Finished)
			assert.Equal(t, tt.wantCode, root.HTTPStatus)
			assert.Equal(t, tt.wantStatus, root.Status)
		})
	}
}

func TestScope_FinishStillFinishesRootWhenStatusPanics(t *testing.T) {
	p, _, reporter := setupProvider(t, testutil.UnitTest(t))
	_, scope := p.Begin(context.Background(), RequestInfo{Method: http.MethodGet, Path: "/"})
	root := rootOf(t, scope)

	assert.NotPanics(t, func() { scope.Finish((*statusRecorder)(nil)) })
	scope.Finish(statusResponse(http.StatusOK))

	assert.Equal(t, 1, root.FinishCount)
	assert.Equal(t, 0, root.HTTPStatus)
	require.Len(t, reporter.Errors(), 1)
	assert.Contains(t, reporter.Errors()[0].Error(), "setting response status")
}

func TestScope_WithoutRootSpanIsNoop(t *testing.T) {
	p, err := New(testutil.UnitTest(t), WithInstrumentor(nilInstrumentor{}), WithErrorReporter(error_reporting.NewTestErrorReporter()))
	require.NoError(t, err)

	ctx, scope := p.Begin(context.Background(), RequestInfo{Method: http.MethodGet, Path: "/"})

	assert.Nil(t, scope.CurrentSpan())
	assert.Nil(t, CurrentSpan(ctx))
	assert.NotPanics(t, func() { scope.Finish(statusResponse(http.StatusOK)) })
	assert.Nil(t, CurrentSpan(context.Background()))
}

func TestProvider_CacheGetInsideRequest(t *testing.T) {
	cache := &fakeCache{name: config.DefaultCacheService}
	p, instrumentor, _ := setupProvider(t, testutil.UnitTest(t), WithService(config.DefaultCacheService, cache))
	require.NotNil(t, cache.EventsManager())
	assert.Same(t, p.EventsManager(), cache.EventsManager())

	ctx, scope := p.Begin(context.Background(), RequestInfo{Method: http.MethodGet, Path: "/users/42"})
	cache.beforeGet(ctx, "user:42")
	assert.Equal(t, 1, scope.OpenSpans())
	cache.afterGet(ctx, "user:42", true)
	scope.Finish(statusResponse(http.StatusOK))

	spans := instrumentor.SpanRecorder.SpansWithOperation("cache.get")
	require.Len(t, spans, 1)
	assert.Same(t, recordedRoot(t, instrumentor), spans[0].Parent)
	assert.Equal(t, "user:42", spans[0].Data()["cache.key"])
	assert.Equal(t, "memory", spans[0].Data()["cache.system"])
	assert.Equal(t, true, spans[0].Data()["cache.hit"])
	assert.Equal(t, 1, spans[0].FinishCount)
	assert.Equal(t, 0, scope.OpenSpans())
}

func TestProvider_UnmatchedBeforeIsFinishedWithRequest(t *testing.T) {
	cache := &fakeCache{name: config.DefaultCacheService}
	p, instrumentor, _ := setupProvider(t, testutil.UnitTest(t), WithService(config.DefaultCacheService, cache))

	ctx, scope := p.Begin(context.Background(), RequestInfo{Method: http.MethodGet, Path: "/"})
	cache.beforeGet(ctx, "lost")
	scope.Finish(statusResponse(http.StatusOK))

	spans := instrumentor.SpanRecorder.SpansWithOperation("cache.get")
	require.Len(t, spans, 1)
	assert.Equal(t, 1, spans[0].FinishCount)
	assert.True(t, recordedRoot(t, instrumentor).Finished)
	assert.Equal(t, 0, scope.OpenSpans())
}

func TestProvider_EventsOutsideRequestAreIgnored(t *testing.T) {
	cache := &fakeCache{name: config.DefaultCacheService}
	_, instrumentor, _ := setupProvider(t, testutil.UnitTest(t), WithService(config.DefaultCacheService, cache))

	cache.beforeGet(context.Background(), "k")
	cache.afterGet(context.Background(), "k", false)

	assert.Empty(t, instrumentor.SpanRecorder.Spans())
}

func TestProvider_TracksSeveralCacheServicesOnOneManager(t *testing.T) {
	c := testutil.UnitTest(t)
	c.Cache.Services = []string{"cache", "sessions"}
	manager := events.NewManager(nil)
	primary := &fakeCache{name: "cache", manager: manager}
	sessions := &fakeCache{name: "sessions", manager: manager}
	p, instrumentor, _ := setupProvider(t, c, WithService("cache", primary), WithService("sessions", sessions))

	ctx, scope := p.Begin(context.Background(), RequestInfo{Method: http.MethodGet, Path: "/"})
	primary.beforeGet(ctx, "a")
	sessions.beforeGet(ctx, "b")
	primary.afterGet(ctx, "a", true)
	sessions.afterGet(ctx, "b", false)
	scope.Finish(nil)

	assert.Equal(t, []string{"cache", "sessions"}, p.Instrumented())
	spans := instrumentor.SpanRecorder.SpansWithOperation("cache.get")
	require.Len(t, spans, 2)
	assert.Equal(t, "a", spans[0].Data()["cache.key"])
	assert.Equal(t, "b", spans[1].Data()["cache.key"])
	for _, span := range spans {
		assert.Equal(t, 1, span.FinishCount)
	}
}

func TestProvider_DisabledSubsystemIsNotInstrumented(t *testing.T) {
	c := testutil.UnitTest(t)
	c.Cache.Enabled = false
	cache := &fakeCache{name: config.DefaultCacheService}
	p, instrumentor, _ := setupProvider(t, c, WithService(config.DefaultCacheService, cache))

	ctx, scope := p.Begin(context.Background(), RequestInfo{Method: http.MethodGet, Path: "/"})
	cache.beforeGet(ctx, "k")
	scope.Finish(nil)

	assert.Empty(t, p.Instrumented())
	assert.Nil(t, cache.EventsManager())
	assert.Empty(t, instrumentor.SpanRecorder.SpansWithOperation("cache.get"))
}

func TestProvider_MisconfiguredServiceIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	reporter := mock_error_reporting.NewMockErrorReporter(ctrl)
	reporter.EXPECT().CaptureMessage("sentry-instrumentation: service db needs to implement events.EventsAware").Return(true).Times(1)

	p, err := New(testutil.UnitTest(t),
		WithInstrumentor(performance.NewTestInstrumentor()),
		WithErrorReporter(reporter),
		WithService(ServiceDB, notEventsAware{}),
	)

	require.NoError(t, err)
	assert.Empty(t, p.Instrumented())
}

func TestMiddleware_RecordsResponseStatus(t *testing.T) {
	p, instrumentor, _ := setupProvider(t, testutil.UnitTest(t))
	var seen *Scope
	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		assert.NotNil(t, CurrentSpan(r.Context()))
		http.NotFound(w, r)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.NotNil(t, seen)
	root := recordedRoot(t, instrumentor)
	assert.Equal(t, "GET /missing", root.Description)
	assert.Equal(t, requestStart, root.StartTime)
	assert.Equal(t, 1, root.FinishCount)
	assert.Equal(t, performance.StatusNotFound, root.Status)
}

func TestMiddleware_BodyWithoutHeaderIsOK(t *testing.T) {
	p, instrumentor, _ := setupProvider(t, testutil.UnitTest(t))
	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, performance.StatusOK, recordedRoot(t, instrumentor).Status)
}

func TestMiddleware_PanicFinishesWithServerError(t *testing.T) {
	p, instrumentor, _ := setupProvider(t, testutil.UnitTest(t))
	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	assert.PanicsWithValue(t, "boom", func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})

	root := recordedRoot(t, instrumentor)
	assert.Equal(t, 1, root.FinishCount)
	assert.Equal(t, http.StatusInternalServerError, root.HTTPStatus)
	assert.Equal(t, performance.StatusInternalError, root.Status)
}

func TestMiddleware_PanicAfterWriteKeepsWrittenStatus(t *testing.T) {
	p, instrumentor, _ := setupProvider(t, testutil.UnitTest(t))
	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})

	root := recordedRoot(t, instrumentor)
	assert.Equal(t, 1, root.FinishCount)
	assert.Equal(t, http.StatusAccepted, root.HTTPStatus)
}

func TestMiddleware_NestedMiddlewareKeepsOuterScopeOpen(t *testing.T) {
	p, instrumentor, _ := setupProvider(t, testutil.UnitTest(t))
	inner := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	outer := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r)
		assert.NotNil(t, CurrentSpan(r.Context()))
	}))

	outer.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	roots := instrumentor.SpanRecorder.SpansWithOperation(OpHTTPServer)
	require.Len(t, roots, 1)
	assert.Equal(t, 1, roots[0].FinishCount)
}

func recordedRoot(t *testing.T, instrumentor *performance.TestInstrumentor) *performance.NoopSpan {
	t.Helper()
	roots := instrumentor.SpanRecorder.SpansWithOperation(OpHTTPServer)
	require.Len(t, roots, 1)
	return roots[0]
}
