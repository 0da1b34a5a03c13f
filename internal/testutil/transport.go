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

package testutil

import (
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// RecordingTransport keeps every event the sentry client would have sent.
type RecordingTransport struct {
	mutex  sync.Mutex
	events []*sentry.Event
}

func (t *RecordingTransport) Configure(sentry.ClientOptions) {}

func (t *RecordingTransport) SendEvent(event *sentry.Event) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.events = append(t.events, event)
}

func (t *RecordingTransport) Flush(time.Duration) bool { return true }

func (t *RecordingTransport) Events() []*sentry.Event {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return append([]*sentry.Event(nil), t.events...)
}

// Transactions returns the recorded transaction events in send order.
func (t *RecordingTransport) Transactions() []*sentry.Event {
	var transactions []*sentry.Event
	for _, event := range t.Events() {
		if event.Type == "transaction" {
			transactions = append(transactions, event)
		}
	}
	return transactions
}

// SpansWithOp returns the child spans of a transaction event tagged with op.
func SpansWithOp(transaction *sentry.Event, op string) []*sentry.Span {
	var spans []*sentry.Span
	for _, span := range transaction.Spans {
		if span.Op == op {
			spans = append(spans, span)
		}
	}
	return spans
}
