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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snyk/sentry-instrumentation/application/config"
	sentryinfra "github.com/snyk/sentry-instrumentation/infrastructure/sentry"
	"github.com/snyk/sentry-instrumentation/internal/testutil"
)

func TestProvider_SendsTransactionWithChildSpans(t *testing.T) {
	c := testutil.UnitTest(t)
	transport := &testutil.RecordingTransport{}
	hub, err := sentryinfra.NewHub(c, transport)
	require.NoError(t, err)
	cache := &fakeCache{name: config.DefaultCacheService}
	p, err := New(c, WithHub(hub), WithService(config.DefaultCacheService, cache))
	require.NoError(t, err)

	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cache.beforeGet(r.Context(), "user:42")
		cache.afterGet(r.Context(), "user:42", false)
		cache.beforeGet(r.Context(), "never-answered")
		w.WriteHeader(http.StatusAccepted)
	}))
	req := httptest.NewRequest(http.MethodPost, "/users", nil)
	req.Header.Set(TraceHeader, "771a43a4192642f0b136d5159a501700-b0e6f15b45c36b12-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	p.Flush(0)

	transactions := transport.Transactions()
	require.Len(t, transactions, 1)
	transaction := transactions[0]
	assert.Equal(t, "/users", transaction.Transaction)

	spans := testutil.SpansWithOp(transaction, "cache.get")
	require.Len(t, spans, 2)
	assert.Equal(t, false, spans[0].Data["cache.hit"])
	assert.Equal(t, "never-answered", spans[1].Data["cache.key"])
	assert.False(t, spans[1].EndTime.IsZero())
	for _, span := range spans {
		assert.Equal(t, "771a43a4192642f0b136d5159a501700", span.TraceID.String())
	}
}
