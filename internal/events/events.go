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

// Package events lets instrumented collaborators announce "before" and "after" notifications
// of their operations to whoever registered for them.
package events

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Kind names a notification as "<source>:<before|after><Action>", e.g. "cache:beforeGet".
type Kind string

const (
	CacheBeforeGet    Kind = "cache:beforeGet"
	CacheAfterGet     Kind = "cache:afterGet"
	CacheBeforeHas    Kind = "cache:beforeHas"
	CacheAfterHas     Kind = "cache:afterHas"
	CacheBeforeSet    Kind = "cache:beforeSet"
	CacheAfterSet     Kind = "cache:afterSet"
	CacheBeforeDelete Kind = "cache:beforeDelete"
	CacheAfterDelete  Kind = "cache:afterDelete"
	CacheBeforeClear  Kind = "cache:beforeClear"
	CacheAfterClear   Kind = "cache:afterClear"

	DBBeforePrepare  Kind = "db:beforePrepare"
	DBAfterPrepare   Kind = "db:afterPrepare"
	DBBeforeQuery    Kind = "db:beforeQuery"
	DBAfterQuery     Kind = "db:afterQuery"
	DBBeforeExec     Kind = "db:beforeExec"
	DBAfterExec      Kind = "db:afterExec"
	DBBeforeBegin    Kind = "db:beforeBegin"
	DBAfterBegin     Kind = "db:afterBegin"
	DBBeforeCommit   Kind = "db:beforeCommit"
	DBAfterCommit    Kind = "db:afterCommit"
	DBBeforeRollback Kind = "db:beforeRollback"
	DBAfterRollback  Kind = "db:afterRollback"

	ViewBeforeRender Kind = "view:beforeRender"
	ViewAfterRender  Kind = "view:afterRender"
)

var (
	CacheKinds = []Kind{
		CacheBeforeGet, CacheAfterGet, CacheBeforeHas, CacheAfterHas, CacheBeforeSet, CacheAfterSet,
		CacheBeforeDelete, CacheAfterDelete, CacheBeforeClear, CacheAfterClear,
	}
	DBKinds = []Kind{
		DBBeforePrepare, DBAfterPrepare, DBBeforeQuery, DBAfterQuery, DBBeforeExec, DBAfterExec,
		DBBeforeBegin, DBAfterBegin, DBBeforeCommit, DBAfterCommit, DBBeforeRollback, DBAfterRollback,
	}
	ViewKinds = []Kind{ViewBeforeRender, ViewAfterRender}
)

// Source is the part before the colon, e.g. "cache".
func (k Kind) Source() string {
	source, _, _ := strings.Cut(string(k), ":")
	return source
}

// IsBefore reports whether k announces the start of an operation.
func (k Kind) IsBefore() bool {
	_, name, _ := strings.Cut(string(k), ":")
	return strings.HasPrefix(name, "before")
}

// Event is one notification. Service is the name the emitting collaborator was registered
// under, Data the operation specific payload and Subject the collaborator itself.
type Event struct {
	Kind    Kind
	Service string
	Data    any
	Subject any
}

type Handler func(ctx context.Context, ev Event)

// Manager dispatches events synchronously to the handlers registered for their kind.
type Manager struct {
	mutex    sync.RWMutex
	handlers map[Kind][]Handler
	logger   *zerolog.Logger
}

func NewManager(logger *zerolog.Logger) *Manager {
	if logger == nil {
		logger = &log.Logger
	}
	return &Manager{handlers: map[Kind][]Handler{}, logger: logger}
}

// On registers handler for kind. Handlers run in registration order.
func (m *Manager) On(kind Kind, handler Handler) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.handlers[kind] = append(m.handlers[kind], handler)
}

// HasListeners reports whether anything is registered for kind.
func (m *Manager) HasListeners(kind Kind) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.handlers[kind]) > 0
}

// Fire calls every handler registered for ev.Kind on the caller's goroutine. A panicking
// handler is logged and skipped; Fire itself never panics.
func (m *Manager) Fire(ctx context.Context, ev Event) {
	if m == nil {
		return
	}
	m.mutex.RLock()
	handlers := m.handlers[ev.Kind]
	m.mutex.RUnlock()

	for _, handler := range handlers {
		m.call(ctx, handler, ev)
	}
}

func (m *Manager) call(ctx context.Context, handler Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Str("method", "Manager.Fire").
				Str("kind", string(ev.Kind)).
				Str("service", ev.Service).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	handler(ctx, ev)
}

// EventsAware is implemented by collaborators that can announce their operations.
type EventsAware interface {
	EventsManager() *Manager
	SetEventsManager(m *Manager)
}
