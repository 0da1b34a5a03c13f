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

// Package performance describes the span handles the instrumentation works with, independent of
// the tracing backend that records them.
package performance

import (
	"context"
	"time"
)

// Span is an open unit of work owned by whoever started it until Finish is called.
type Span interface {
	// StartChild opens a new span nested under this one.
	StartChild(sc SpanContext) Span
	SetData(key string, value any)
	SetTag(key string, value string)
	// SetHTTPStatus classifies the span status from an HTTP response code.
	SetHTTPStatus(code int)
	Finish()
	Context() context.Context
	GetOperation() string
}

// SpanContext carries everything needed to start a child span.
type SpanContext struct {
	Op          string
	Description string
	Data        map[string]any
}

// TransactionContext carries everything needed to start a root span.
type TransactionContext struct {
	Name        string
	Op          string
	Description string
	// TraceHeader and BaggageHeader are the inbound trace continuation headers, possibly empty.
	TraceHeader   string
	BaggageHeader string
	StartTime     time.Time
}

// Instrumentor starts root spans on a tracing backend.
type Instrumentor interface {
	StartTransaction(ctx context.Context, tc TransactionContext) Span
}

// CurrentSpanFunc returns the span new child spans should nest under, or nil when there is no
// ambient trace.
type CurrentSpanFunc func() Span
