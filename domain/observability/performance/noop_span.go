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
	"time"

	"github.com/google/uuid"
)

// NoopSpan keeps everything it is told in memory and never talks to a backend. It is the span
// used when tracing is disabled and the span the TestInstrumentor hands out.
type NoopSpan struct {
	Operation   string
	Description string
	TxName      string
	TraceHeader string
	StartTime   time.Time
	Started     bool
	Finished    bool
	// FinishCount counts Finish calls so double finishes are observable in tests.
	FinishCount int
	HTTPStatus  int
	Status      SpanStatus
	Parent      *NoopSpan

	mutex    sync.Mutex
	data     map[string]any
	tags     map[string]string
	ctx      context.Context
	recorder *SpanRecorder
}

func (n *NoopSpan) StartSpan(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	n.ctx = GetContextWithTraceId(ctx, uuid.New().String())
	n.Started = true
}

func (n *NoopSpan) StartChild(sc SpanContext) Span {
	child := &NoopSpan{
		Operation:   sc.Op,
		Description: sc.Description,
		Parent:      n,
		Started:     true,
		ctx:         n.Context(),
		recorder:    n.recorder,
	}
	for k, v := range sc.Data {
		child.SetData(k, v)
	}
	if n.recorder != nil {
		n.recorder.Record(child)
	}
	return child
}

func (n *NoopSpan) SetData(key string, value any) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	if n.data == nil {
		n.data = map[string]any{}
	}
	n.data[key] = value
}

func (n *NoopSpan) Data() map[string]any {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	data := make(map[string]any, len(n.data))
	for k, v := range n.data {
		data[k] = v
	}
	return data
}

func (n *NoopSpan) SetTag(key string, value string) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	if n.tags == nil {
		n.tags = map[string]string{}
	}
	n.tags[key] = value
}

func (n *NoopSpan) Tag(key string) string {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.tags[key]
}

func (n *NoopSpan) SetHTTPStatus(code int) {
	n.HTTPStatus = code
	n.Status = StatusFromHTTPCode(code)
}

func (n *NoopSpan) Finish() {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.Started = false
	n.Finished = true
	n.FinishCount++
}

func (n *NoopSpan) SetTransactionName(txName string) { n.TxName = txName }

func (n *NoopSpan) GetOperation() string {
	return n.Operation
}

func (n *NoopSpan) GetTxName() string {
	return n.TxName
}

func (n *NoopSpan) GetTraceId() string {
	id, _ := GetTraceId(n.Context())
	return id
}

func (n *NoopSpan) Context() context.Context {
	if n.ctx == nil {
		n.StartSpan(context.Background())
	}
	return n.ctx
}
