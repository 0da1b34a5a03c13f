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
	"encoding/json"
	"fmt"

	"github.com/snyk/sentry-instrumentation/application/config"
	"github.com/snyk/sentry-instrumentation/internal/correlation"
	"github.com/snyk/sentry-instrumentation/internal/events"
)

type DBOperation string

const (
	OpDBPrepare  DBOperation = "db.sql.prepare"
	OpDBQuery    DBOperation = "db.sql.query"
	OpDBExec     DBOperation = "db.sql.exec"
	OpDBBegin    DBOperation = "db.sql.transaction.begin"
	OpDBCommit   DBOperation = "db.sql.transaction.commit"
	OpDBRollback DBOperation = "db.sql.transaction.rollback"
)

const dataDBSystem = "db.system"

var dbOperations = map[events.Kind]DBOperation{
	events.DBBeforePrepare:  OpDBPrepare,
	events.DBAfterPrepare:   OpDBPrepare,
	events.DBBeforeQuery:    OpDBQuery,
	events.DBAfterQuery:     OpDBQuery,
	events.DBBeforeExec:     OpDBExec,
	events.DBAfterExec:      OpDBExec,
	events.DBBeforeBegin:    OpDBBegin,
	events.DBAfterBegin:     OpDBBegin,
	events.DBBeforeCommit:   OpDBCommit,
	events.DBAfterCommit:    OpDBCommit,
	events.DBBeforeRollback: OpDBRollback,
	events.DBAfterRollback:  OpDBRollback,
}

var transactionStatements = map[DBOperation]string{
	OpDBBegin:    "BEGIN",
	OpDBCommit:   "COMMIT",
	OpDBRollback: "ROLLBACK",
}

// DBHandler traces the statements and transactions of the database service.
type DBHandler struct {
	handler
	options config.DBOptions
}

func NewDBHandler(deps Dependencies, options config.DBOptions) *DBHandler {
	return &DBHandler{handler: newHandler(deps), options: options}
}

func (h *DBHandler) Handle(_ context.Context, ev events.Event) {
	op, ok := dbOperations[ev.Kind]
	if !ok {
		return
	}
	payload, ok := ev.Data.(events.DBPayload)
	if !ok {
		h.logger.Debug().Str("method", "DBHandler.Handle").Str("kind", string(ev.Kind)).Msg("unexpected payload")
		return
	}
	if ev.Kind.IsBefore() {
		h.OnBefore(op, payload, ev.Subject)
	} else {
		h.OnAfter(op, payload)
	}
}

// OnBefore opens a span for op. subject is the database connection, used to tell the dialect.
func (h *DBHandler) OnBefore(op DBOperation, payload events.DBPayload, subject any) {
	defer h.recoverPanic("DBHandler.OnBefore")

	description := payload.SQL
	if statement, ok := transactionStatements[op]; ok {
		description = statement
	}
	h.correlator.Open(h.current, correlation.Request{
		Descriptor:  dbDescriptor(op, payload),
		Op:          string(op),
		Description: description,
		Metadata: func() map[string]any {
			data := map[string]any{
				dataDBSystem: h.classifier.DBSystem(subject),
			}
			if h.options.CaptureBacktrace {
				data[dataCodeStacktrace] = captureBacktrace(3)
			}
			return data
		},
	})
}

func (h *DBHandler) OnAfter(op DBOperation, payload events.DBPayload) {
	defer h.recoverPanic("DBHandler.OnAfter")

	h.correlator.Close(dbDescriptor(op, payload), nil)
}

// dbDescriptor identifies a statement by its text and arguments and a transaction step by its
// operation and transaction id.
func dbDescriptor(op DBOperation, payload events.DBPayload) string {
	if _, ok := transactionStatements[op]; ok {
		return string(op) + "#" + payload.TxID
	}
	return payload.SQL + serializeArgs(payload.Args)
}

func serializeArgs(args []any) string {
	if len(args) == 0 {
		return "[]"
	}
	if b, err := json.Marshal(args); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%#v", args)
}
