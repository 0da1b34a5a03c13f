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

package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestManager_FireCallsHandlersInOrder(t *testing.T) {
	m := NewManager(nil)
	var calls []string
	m.On(CacheBeforeGet, func(_ context.Context, ev Event) { calls = append(calls, "first:"+ev.Service) })
	m.On(CacheBeforeGet, func(_ context.Context, ev Event) { calls = append(calls, "second:"+ev.Service) })
	m.On(CacheAfterGet, func(_ context.Context, _ Event) { calls = append(calls, "after") })

	m.Fire(context.Background(), Event{Kind: CacheBeforeGet, Service: "cache"})

	assert.Equal(t, []string{"first:cache", "second:cache"}, calls)
	assert.True(t, m.HasListeners(CacheAfterGet))
	assert.False(t, m.HasListeners(ViewBeforeRender))
}

func TestManager_FireRecoversPanickingHandler(t *testing.T) {
	m := NewManager(nil)
	reached := false
	m.On(DBBeforeQuery, func(context.Context, Event) { panic("boom") })
	m.On(DBBeforeQuery, func(context.Context, Event) { reached = true })

	assert.NotPanics(t, func() {
		m.Fire(context.Background(), Event{Kind: DBBeforeQuery})
	})
	assert.True(t, reached)
}

func TestManager_FireOnNilManager(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.Fire(context.Background(), Event{Kind: ViewAfterRender})
	})
}

func TestKind_SourceAndDirection(t *testing.T) {
	assert.Equal(t, "cache", CacheBeforeClear.Source())
	assert.Equal(t, "db", DBAfterRollback.Source())
	assert.True(t, ViewBeforeRender.IsBefore())
	assert.False(t, ViewAfterRender.IsBefore())
	for _, k := range append(append(append([]Kind{}, CacheKinds...), DBKinds...), ViewKinds...) {
		assert.Contains(t, []string{"cache", "db", "view"}, k.Source(), k)
	}
}
