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

// Package correlation pairs "before" and "after" notifications of an operation into one span.
//
// The notifications only share the data identifying the operation, so both sides derive the
// same descriptor from it and the Correlator keeps the open span under that descriptor until the
// matching close arrives. A Correlator belongs to exactly one request; descriptors are not
// unique across requests.
package correlation

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/snyk/sentry-instrumentation/domain/observability/performance"
)

// Observer is told about every span the Correlator opens, closes or sweeps.
type Observer interface {
	SpanOpened(op string)
	SpanClosed(op string)
	SpanOrphaned(op string)
}

// Request describes the span to open for one operation.
type Request struct {
	Descriptor  string
	Op          string
	Description string
	// Metadata builds the span data. It is only called when a span is really opened.
	Metadata func() map[string]any
}

type Correlator struct {
	mutex    sync.Mutex
	spans    map[string]performance.Span
	order    []string
	orphans  []performance.Span
	observer Observer
	logger   *zerolog.Logger
}

type Option func(c *Correlator)

func WithObserver(observer Observer) Option {
	return func(c *Correlator) {
		c.observer = observer
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Correlator) {
		c.logger = logger
	}
}

func New(opts ...Option) *Correlator {
	c := &Correlator{
		spans:  map[string]performance.Span{},
		logger: &log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open starts a child of the current span and stores it under r.Descriptor. Without a current
// span nothing happens and false is returned.
//
// A span already stored under the same descriptor is displaced, not finished; it stays open
// until DrainAll.
func (c *Correlator) Open(current performance.CurrentSpanFunc, r Request) bool {
	if current == nil {
		return false
	}
	parent := current()
	if parent == nil {
		return false
	}

	sc := performance.SpanContext{Op: r.Op, Description: r.Description}
	if r.Metadata != nil {
		sc.Data = r.Metadata()
	}
	span := parent.StartChild(sc)
	if span == nil {
		return false
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if displaced, ok := c.spans[r.Descriptor]; ok {
		c.logger.Debug().
			Str("method", "Correlator.Open").
			Str("descriptor", r.Descriptor).
			Str("operation", displaced.GetOperation()).
			Msg("descriptor already open, previous span orphaned")
		c.orphans = append(c.orphans, displaced)
	} else {
		c.order = append(c.order, r.Descriptor)
	}
	c.spans[r.Descriptor] = span
	if c.observer != nil {
		c.observer.SpanOpened(r.Op)
	}
	c.logger.Trace().
		Str("method", "Correlator.Open").
		Str("descriptor", r.Descriptor).
		Str("operation", r.Op).
		Msg("opened span")
	return true
}

// Close finishes the span stored under descriptor after setting data on it. An unknown
// descriptor is ignored and false is returned.
func (c *Correlator) Close(descriptor string, data map[string]any) bool {
	c.mutex.Lock()
	span, ok := c.spans[descriptor]
	if ok {
		delete(c.spans, descriptor)
		c.removeFromOrder(descriptor)
	}
	c.mutex.Unlock()
	if !ok {
		return false
	}

	for k, v := range data {
		span.SetData(k, v)
	}
	c.finish(span)
	if c.observer != nil {
		c.observer.SpanClosed(span.GetOperation())
	}
	c.logger.Trace().
		Str("method", "Correlator.Close").
		Str("descriptor", descriptor).
		Str("operation", span.GetOperation()).
		Msg("closed span")
	return true
}

// DrainAll finishes every span still open, in table order followed by displaced spans, and
// empties the table. It returns the number of spans finished.
func (c *Correlator) DrainAll() int {
	c.mutex.Lock()
	spans := make([]performance.Span, 0, len(c.order)+len(c.orphans))
	for _, descriptor := range c.order {
		spans = append(spans, c.spans[descriptor])
	}
	spans = append(spans, c.orphans...)
	c.spans = map[string]performance.Span{}
	c.order = nil
	c.orphans = nil
	c.mutex.Unlock()

	for _, span := range spans {
		c.finish(span)
		if c.observer != nil {
			c.observer.SpanOrphaned(span.GetOperation())
		}
	}
	if len(spans) > 0 {
		c.logger.Debug().
			Str("method", "Correlator.DrainAll").
			Int("count", len(spans)).
			Msg("finished spans without a matching close")
	}
	return len(spans)
}

// OpenSpans returns the spans not yet finished, displaced ones included.
func (c *Correlator) OpenSpans() []performance.Span {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	spans := make([]performance.Span, 0, len(c.order)+len(c.orphans))
	for _, descriptor := range c.order {
		spans = append(spans, c.spans[descriptor])
	}
	return append(spans, c.orphans...)
}

// Len is the number of descriptors currently in the table.
func (c *Correlator) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.spans)
}

func (c *Correlator) removeFromOrder(descriptor string) {
	for i, d := range c.order {
		if d == descriptor {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *Correlator) finish(span performance.Span) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Str("method", "Correlator.finish").
				Interface("panic", r).
				Msg("tracing backend panicked while finishing a span")
		}
	}()
	span.Finish()
}
