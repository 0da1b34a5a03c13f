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

// Package cache provides an in-process cache that announces its operations as events.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erni27/imcache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/snyk/sentry-instrumentation/domain/instrumentation"
	"github.com/snyk/sentry-instrumentation/internal/events"
)

// MemoryCache stores byte values in memory with an optional time to live per entry.
type MemoryCache struct {
	name   string
	ttl    time.Duration
	cache  *imcache.Cache[string, []byte]
	mutex  sync.RWMutex
	events *events.Manager
	logger *zerolog.Logger
}

type Option func(m *MemoryCache)

// WithTTL expires entries ttl after they were last set. Zero keeps them until removed.
func WithTTL(ttl time.Duration) Option {
	return func(m *MemoryCache) {
		m.ttl = ttl
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(m *MemoryCache) {
		m.logger = logger
	}
}

// NewMemoryCache creates a cache whose events carry name as their service.
func NewMemoryCache(name string, opts ...Option) *MemoryCache {
	m := &MemoryCache{name: name, logger: &log.Logger}
	for _, opt := range opts {
		opt(m)
	}
	m.cache = imcache.New[string, []byte](
		imcache.WithEvictionCallbackOption[string, []byte](func(key string, _ []byte, reason imcache.EvictionReason) {
			m.logger.Trace().Str("method", "MemoryCache.evict").Str("service", m.name).Str("key", key).Str("reason", reason.String()).Msg("evicted")
		}),
	)
	return m
}

func (m *MemoryCache) Name() string {
	return m.name
}

func (m *MemoryCache) BackendKind() string {
	return instrumentation.CacheSystemMemory
}

func (m *MemoryCache) EventsManager() *events.Manager {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.events
}

func (m *MemoryCache) SetEventsManager(manager *events.Manager) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events = manager
}

func (m *MemoryCache) fire(ctx context.Context, kind events.Kind, payload events.CachePayload) {
	m.EventsManager().Fire(ctx, events.Event{Kind: kind, Service: m.name, Data: payload, Subject: m})
}

func (m *MemoryCache) expiration() imcache.Expiration {
	if m.ttl > 0 {
		return imcache.WithExpiration(m.ttl)
	}
	return imcache.WithNoExpiration()
}

// Get returns the value stored under key and whether there was one.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	keys := []string{key}
	m.fire(ctx, events.CacheBeforeGet, events.CachePayload{Keys: keys})
	value, hit := m.cache.Get(key)
	after := events.CachePayload{Keys: keys, Hit: events.Bool(hit)}
	if hit {
		after.ItemSize = events.Int(len(value))
	}
	m.fire(ctx, events.CacheAfterGet, after)
	return value, hit
}

func (m *MemoryCache) Has(ctx context.Context, key string) bool {
	keys := []string{key}
	m.fire(ctx, events.CacheBeforeHas, events.CachePayload{Keys: keys})
	_, hit := m.cache.Get(key)
	m.fire(ctx, events.CacheAfterHas, events.CachePayload{Keys: keys, Hit: events.Bool(hit)})
	return hit
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte) {
	payload := events.CachePayload{Keys: []string{key}, ItemSize: events.Int(len(value))}
	m.fire(ctx, events.CacheBeforeSet, payload)
	m.cache.Set(key, value, m.expiration())
	m.fire(ctx, events.CacheAfterSet, payload)
}

// Delete removes every given key and reports how many were present.
func (m *MemoryCache) Delete(ctx context.Context, keys ...string) int {
	payload := events.CachePayload{Keys: keys}
	m.fire(ctx, events.CacheBeforeDelete, payload)
	removed := 0
	for _, key := range keys {
		if m.cache.Remove(key) {
			removed++
		}
	}
	m.fire(ctx, events.CacheAfterDelete, payload)
	return removed
}

func (m *MemoryCache) Clear(ctx context.Context) {
	payload := events.CachePayload{}
	m.fire(ctx, events.CacheBeforeClear, payload)
	m.cache.RemoveAll()
	m.fire(ctx, events.CacheAfterClear, payload)
}

func (m *MemoryCache) Len() int {
	return m.cache.Len()
}
