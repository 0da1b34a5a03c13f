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

import (
	"context"
	"sync"
)

type SpanRecorder struct {
	mutex sync.Mutex
	spans []*NoopSpan
}

func newSpanRecorder() *SpanRecorder {
	return &SpanRecorder{mutex: sync.Mutex{}, spans: []*NoopSpan{}}
}

func (s *SpanRecorder) Record(span *NoopSpan) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.spans = append(s.spans, span)
}

func (s *SpanRecorder) Spans() []*NoopSpan {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	spans := make([]*NoopSpan, len(s.spans))
	copy(spans, s.spans)
	return spans
}

// SpansWithOperation returns the recorded spans tagged with op, in start order.
func (s *SpanRecorder) SpansWithOperation(op string) []*NoopSpan {
	var spans []*NoopSpan
	for _, span := range s.Spans() {
		if span.Operation == op {
			spans = append(spans, span)
		}
	}
	return spans
}

func (s *SpanRecorder) ClearSpans() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.spans = []*NoopSpan{}
}

// TestInstrumentor hands out NoopSpans and records every span started through it, children
// included.
type TestInstrumentor struct {
	SpanRecorder *SpanRecorder
}

func NewTestInstrumentor() *TestInstrumentor {
	return &TestInstrumentor{SpanRecorder: newSpanRecorder()}
}

func (i *TestInstrumentor) StartTransaction(ctx context.Context, tc TransactionContext) Span {
	s := &NoopSpan{
		Operation:   tc.Op,
		Description: tc.Description,
		TxName:      tc.Name,
		TraceHeader: tc.TraceHeader,
		StartTime:   tc.StartTime,
		recorder:    i.SpanRecorder,
	}
	s.StartSpan(ctx)
	i.SpanRecorder.Record(s)
	return s
}

// Root returns a started transaction that is not tied to any request, for handler tests.
func (i *TestInstrumentor) Root() *NoopSpan {
	return i.StartTransaction(context.Background(), TransactionContext{Name: "test", Op: "test"}).(*NoopSpan)
}
