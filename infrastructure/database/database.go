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

// Package database wraps database/sql so statements and transactions are announced as events.
package database

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/snyk/sentry-instrumentation/internal/events"
)

// ServiceName is the service db events are fired for.
const ServiceName = "db"

// DB is a *sql.DB that fires db events around every statement it runs.
type DB struct {
	db     *sql.DB
	driver string
	mutex  sync.RWMutex
	events *events.Manager
	txSeq  atomic.Uint64
}

// Open opens a database the way sql.Open does and wraps it.
func Open(driverName string, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s database", driverName)
	}
	return New(db, driverName), nil
}

// New wraps db. driverName is reported as the SQL dialect.
func New(db *sql.DB, driverName string) *DB {
	return &DB{db: db, driver: driverName}
}

func (d *DB) DialectType() string {
	return d.driver
}

func (d *DB) EventsManager() *events.Manager {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.events
}

func (d *DB) SetEventsManager(manager *events.Manager) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.events = manager
}

// Unwrap returns the wrapped database. Statements run on it directly are not traced.
func (d *DB) Unwrap() *sql.DB {
	return d.db
}

func (d *DB) fire(ctx context.Context, kind events.Kind, payload events.DBPayload) {
	d.EventsManager().Fire(ctx, events.Event{Kind: kind, Service: ServiceName, Data: payload, Subject: d})
}

func (d *DB) PingContext(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	payload := events.DBPayload{SQL: query, Args: args}
	d.fire(ctx, events.DBBeforeQuery, payload)
	defer d.fire(ctx, events.DBAfterQuery, payload)
	return d.db.QueryContext(ctx, query, args...)
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	payload := events.DBPayload{SQL: query, Args: args}
	d.fire(ctx, events.DBBeforeQuery, payload)
	defer d.fire(ctx, events.DBAfterQuery, payload)
	return d.db.QueryRowContext(ctx, query, args...)
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	payload := events.DBPayload{SQL: query, Args: args}
	d.fire(ctx, events.DBBeforeExec, payload)
	defer d.fire(ctx, events.DBAfterExec, payload)
	return d.db.ExecContext(ctx, query, args...)
}

func (d *DB) PrepareContext(ctx context.Context, query string) (*Stmt, error) {
	payload := events.DBPayload{SQL: query}
	d.fire(ctx, events.DBBeforePrepare, payload)
	stmt, err := d.db.PrepareContext(ctx, query)
	d.fire(ctx, events.DBAfterPrepare, payload)
	if err != nil {
		return nil, err
	}
	return &Stmt{stmt: stmt, query: query, db: d}, nil
}

// BeginTx starts a transaction. Its id is unique for the lifetime of d.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	id := strconv.FormatUint(d.txSeq.Add(1), 10)
	payload := events.DBPayload{TxID: id}
	d.fire(ctx, events.DBBeforeBegin, payload)
	tx, err := d.db.BeginTx(ctx, opts)
	d.fire(ctx, events.DBAfterBegin, payload)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, id: id, db: d, ctx: ctx}, nil
}

// Stmt is a prepared statement whose executions are announced with its query text.
type Stmt struct {
	stmt  *sql.Stmt
	query string
	db    *DB
}

func (s *Stmt) QueryContext(ctx context.Context, args ...any) (*sql.Rows, error) {
	payload := events.DBPayload{SQL: s.query, Args: args}
	s.db.fire(ctx, events.DBBeforeQuery, payload)
	defer s.db.fire(ctx, events.DBAfterQuery, payload)
	return s.stmt.QueryContext(ctx, args...)
}

func (s *Stmt) ExecContext(ctx context.Context, args ...any) (sql.Result, error) {
	payload := events.DBPayload{SQL: s.query, Args: args}
	s.db.fire(ctx, events.DBBeforeExec, payload)
	defer s.db.fire(ctx, events.DBAfterExec, payload)
	return s.stmt.ExecContext(ctx, args...)
}

func (s *Stmt) Close() error {
	return s.stmt.Close()
}

// Tx is a transaction. Statements run through it are announced like those of the DB.
type Tx struct {
	tx  *sql.Tx
	id  string
	db  *DB
	ctx context.Context
}

func (t *Tx) ID() string {
	return t.id
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	payload := events.DBPayload{SQL: query, Args: args}
	t.db.fire(ctx, events.DBBeforeQuery, payload)
	defer t.db.fire(ctx, events.DBAfterQuery, payload)
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	payload := events.DBPayload{SQL: query, Args: args}
	t.db.fire(ctx, events.DBBeforeExec, payload)
	defer t.db.fire(ctx, events.DBAfterExec, payload)
	return t.tx.ExecContext(ctx, query, args...)
}

// Commit commits the transaction. The events carry the context the transaction was begun with.
func (t *Tx) Commit() error {
	payload := events.DBPayload{TxID: t.id}
	t.db.fire(t.ctx, events.DBBeforeCommit, payload)
	defer t.db.fire(t.ctx, events.DBAfterCommit, payload)
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	payload := events.DBPayload{TxID: t.id}
	t.db.fire(t.ctx, events.DBBeforeRollback, payload)
	defer t.db.fire(t.ctx, events.DBAfterRollback, payload)
	return t.tx.Rollback()
}
