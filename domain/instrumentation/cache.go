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

package instrumentation

import (
	"context"
	"strings"

	"github.com/snyk/sentry-instrumentation/application/config"
	"github.com/snyk/sentry-instrumentation/internal/correlation"
	"github.com/snyk/sentry-instrumentation/internal/events"
)

type CacheOperation string

const (
	OpCacheGet    CacheOperation = "cache.get"
	OpCacheHas    CacheOperation = "cache.has"
	OpCacheDelete CacheOperation = "cache.remove"
	OpCacheSave   CacheOperation = "cache.put"
	OpCacheClear  CacheOperation = "cache.flush"
)

const (
	dataCacheKey      = "cache.key"
	dataCacheSystem   = "cache.system"
	dataCacheHit      = "cache.hit"
	dataCacheItemSize = "cache.item_size"
)

var cacheOperations = map[events.Kind]CacheOperation{
	events.CacheBeforeGet:    OpCacheGet,
	events.CacheAfterGet:     OpCacheGet,
	events.CacheBeforeHas:    OpCacheHas,
	events.CacheAfterHas:     OpCacheHas,
	events.CacheBeforeSet:    OpCacheSave,
	events.CacheAfterSet:     OpCacheSave,
	events.CacheBeforeDelete: OpCacheDelete,
	events.CacheAfterDelete:  OpCacheDelete,
	events.CacheBeforeClear:  OpCacheClear,
	events.CacheAfterClear:   OpCacheClear,
}

// CacheHandler traces the operations of one cache service.
type CacheHandler struct {
	handler
	options config.CacheOptions
}

func NewCacheHandler(deps Dependencies, options config.CacheOptions) *CacheHandler {
	return &CacheHandler{handler: newHandler(deps), options: options}
}

func (h *CacheHandler) Handle(_ context.Context, ev events.Event) {
	op, ok := cacheOperations[ev.Kind]
	if !ok {
		return
	}
	payload, ok := cachePayload(ev.Data)
	if !ok {
		h.logger.Debug().Str("method", "CacheHandler.Handle").Str("kind", string(ev.Kind)).Msg("unexpected payload")
		return
	}
	if ev.Kind.IsBefore() {
		h.OnBefore(op, payload, ev.Subject)
	} else {
		h.OnAfter(payload)
	}
}

// OnBefore opens a span for op on the keys in payload. subject is the cache performing it.
func (h *CacheHandler) OnBefore(op CacheOperation, payload events.CachePayload, subject any) {
	defer h.recoverPanic("CacheHandler.OnBefore")

	id := cacheDescriptor(payload)
	description := id
	if description == "" {
		description = string(op)
	}
	h.correlator.Open(h.current, correlation.Request{
		Descriptor:  id,
		Op:          string(op),
		Description: description,
		Metadata: func() map[string]any {
			data := map[string]any{
				dataCacheKey:    id,
				dataCacheSystem: h.classifier.CacheSystem(subject),
			}
			if h.options.CaptureBacktrace {
				data[dataCodeStacktrace] = captureBacktrace(3)
			}
			if op == OpCacheSave && payload.ItemSize != nil {
				data[dataCacheItemSize] = *payload.ItemSize
			}
			return data
		},
	})
}

// OnAfter closes the span for the keys in payload, recording hit and size when the cache
// reported them.
func (h *CacheHandler) OnAfter(payload events.CachePayload) {
	defer h.recoverPanic("CacheHandler.OnAfter")

	var outcome map[string]any
	if payload.Hit != nil || payload.ItemSize != nil {
		outcome = map[string]any{}
		if payload.Hit != nil {
			outcome[dataCacheHit] = *payload.Hit
		}
		if payload.ItemSize != nil {
			outcome[dataCacheItemSize] = *payload.ItemSize
		}
	}
	h.correlator.Close(cacheDescriptor(payload), outcome)
}

func cacheDescriptor(payload events.CachePayload) string {
	return strings.Join(payload.Keys, ",")
}

func cachePayload(data any) (events.CachePayload, bool) {
	switch d := data.(type) {
	case events.CachePayload:
		return d, true
	case *events.CachePayload:
		if d == nil {
			return events.CachePayload{}, false
		}
		return *d, true
	case string:
		return events.CachePayload{Keys: []string{d}}, true
	case []string:
		return events.CachePayload{Keys: d}, true
	}
	return events.CachePayload{}, false
}
