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

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/snyk/sentry-instrumentation/domain/observability/performance"
)

type instrumentor struct {
	hub *sentry.Hub
}

// NewInstrumentor starts transactions on clones of hub, one per request context.
func NewInstrumentor(hub *sentry.Hub) performance.Instrumentor {
	return &instrumentor{hub: hub}
}

// StartTransaction continues the trace described by the inbound headers, or starts a new one
// when they are empty or invalid.
func (i *instrumentor) StartTransaction(ctx context.Context, tc performance.TransactionContext) performance.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		ctx = sentry.SetHubOnContext(ctx, i.hub.Clone())
	}
	options := []sentry.SpanOption{
		sentry.ContinueFromHeaders(tc.TraceHeader, tc.BaggageHeader),
		sentry.TransactionName(tc.Name),
		withDescription(tc.Description),
	}
	if !tc.StartTime.IsZero() {
		options = append(options, withStartTime(tc.StartTime))
	}
	transaction := sentry.StartSpan(ctx, tc.Op, options...)
	log.Trace().
		Str("method", "instrumentor.StartTransaction").
		Str("operation", tc.Op).
		Str("txName", tc.Name).
		Msg("starting transaction")
	return newSpan(transaction)
}
