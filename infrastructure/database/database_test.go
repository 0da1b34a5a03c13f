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

package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snyk/sentry-instrumentation/application/config"
	"github.com/snyk/sentry-instrumentation/domain/instrumentation"
	"github.com/snyk/sentry-instrumentation/domain/observability/error_reporting"
	"github.com/snyk/sentry-instrumentation/domain/observability/performance"
	"github.com/snyk/sentry-instrumentation/internal/events"
)

type eventRecorder struct {
	mutex  sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(_ context.Context, ev events.Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) kinds() []events.Kind {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var kinds []events.Kind
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func (r *eventRecorder) reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = nil
}

func setupDB(t *testing.T) (*DB, *eventRecorder) {
	t.Helper()
	db, err := Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	manager := events.NewManager(nil)
	recorder := &eventRecorder{}
	for _, kind := range events.DBKinds {
		manager.On(kind, recorder.record)
	}
	db.SetEventsManager(manager)

	_, err = db.Unwrap().Exec("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	return db, recorder
}

func TestDB_ExecAndQueryFireEvents(t *testing.T) {
	db, recorder := setupDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "INSERT INTO users (name) VALUES (?)", "alice")
	require.NoError(t, err)
	var name string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT name FROM users WHERE id = ?", 1).Scan(&name))

	assert.Equal(t, "alice", name)
	assert.Equal(t, []events.Kind{events.DBBeforeExec, events.DBAfterExec, events.DBBeforeQuery, events.DBAfterQuery}, recorder.kinds())
	insert := recorder.events[0]
	assert.Equal(t, ServiceName, insert.Service)
	assert.Same(t, db, insert.Subject)
	assert.Equal(t, events.DBPayload{SQL: "INSERT INTO users (name) VALUES (?)", Args: []any{"alice"}}, insert.Data)
}

func TestDB_PreparedStatement(t *testing.T) {
	db, recorder := setupDB(t)
	ctx := context.Background()

	stmt, err := db.PrepareContext(ctx, "INSERT INTO users (name) VALUES (?)")
	require.NoError(t, err)
	defer stmt.Close()
	_, err = stmt.ExecContext(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, []events.Kind{events.DBBeforePrepare, events.DBAfterPrepare, events.DBBeforeExec, events.DBAfterExec}, recorder.kinds())
	assert.Equal(t, events.DBPayload{SQL: "INSERT INTO users (name) VALUES (?)", Args: []any{"bob"}}, recorder.events[2].Data)
}

func TestDB_PrepareErrorStillFiresAfter(t *testing.T) {
	db, recorder := setupDB(t)

	_, err := db.PrepareContext(context.Background(), "SELECT FROM nowhere WHERE")

	assert.Error(t, err)
	assert.Equal(t, []events.Kind{events.DBBeforePrepare, events.DBAfterPrepare}, recorder.kinds())
}

func TestDB_TransactionsGetDistinctIds(t *testing.T) {
	db, recorder := setupDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "INSERT INTO users (name) VALUES (?)", "carol")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	second, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, second.Rollback())

	assert.NotEqual(t, tx.ID(), second.ID())
	assert.Equal(t, []events.Kind{
		events.DBBeforeBegin, events.DBAfterBegin,
		events.DBBeforeExec, events.DBAfterExec,
		events.DBBeforeCommit, events.DBAfterCommit,
		events.DBBeforeBegin, events.DBAfterBegin,
		events.DBBeforeRollback, events.DBAfterRollback,
	}, recorder.kinds())
	assert.Equal(t, events.DBPayload{TxID: tx.ID()}, recorder.events[4].Data)
	assert.Equal(t, events.DBPayload{TxID: second.ID()}, recorder.events[8].Data)
}

func TestDB_TracedByDBHandler(t *testing.T) {
	db, recorder := setupDB(t)
	recorder.reset()
	instrumentor := performance.NewTestInstrumentor()
	root := instrumentor.Root()
	h := instrumentation.NewDBHandler(instrumentation.Dependencies{
		Current:  func() performance.Span { return root },
		Reporter: error_reporting.NewTestErrorReporter(),
	}, config.DBOptions{})
	for _, kind := range events.DBKinds {
		db.EventsManager().On(kind, h.Handle)
	}
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "INSERT INTO users (name) VALUES (?)", "dave")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	rows, err := db.QueryContext(ctx, "SELECT name FROM users")
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	assert.Empty(t, h.OpenSpans())
	for _, op := range []string{"db.sql.transaction.begin", "db.sql.exec", "db.sql.transaction.commit", "db.sql.query"} {
		spans := instrumentor.SpanRecorder.SpansWithOperation(op)
		require.Len(t, spans, 1, op)
		assert.Equal(t, "sqlite", spans[0].Data()["db.system"], op)
		assert.Equal(t, 1, spans[0].FinishCount, op)
	}
	assert.Equal(t, "COMMIT", instrumentor.SpanRecorder.SpansWithOperation("db.sql.transaction.commit")[0].Description)
}
