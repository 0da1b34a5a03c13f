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
	"fmt"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

const (
	CacheSystemRedis     = "redis"
	CacheSystemMemory    = "memory"
	CacheSystemApcu      = "apcu"
	CacheSystemMemcached = "memcached"
	CacheSystemStream    = "stream"
	CacheSystemCustom    = "custom"

	DBSystemMySQL      = "mysql"
	DBSystemPostgreSQL = "postgresql"
	DBSystemSQLite     = "sqlite"
	DBSystemOther      = "other_sql"
)

// BackendKinder is implemented by collaborators that know which storage engine they talk to.
type BackendKinder interface {
	BackendKind() string
}

// Dialecter is implemented by database collaborators that know their SQL dialect or driver.
type Dialecter interface {
	DialectType() string
}

var dialects = map[string]string{
	"mysql":      DBSystemMySQL,
	"postgresql": DBSystemPostgreSQL,
	"postgres":   DBSystemPostgreSQL,
	"pgx":        DBSystemPostgreSQL,
	"sqlite":     DBSystemSQLite,
	"sqlite3":    DBSystemSQLite,
}

// Classifier labels the backend behind a collaborator. A collaborator answering BackendKind or
// DialectType wins over the registry, which maps Go type names to labels. The registry is safe
// to share between requests.
type Classifier struct {
	labels *xsync.MapOf[string, string]
}

func NewClassifier() *Classifier {
	return &Classifier{labels: xsync.NewMapOf[string, string]()}
}

// Register labels every collaborator of the same dynamic type as subject.
func (c *Classifier) Register(subject any, label string) {
	c.labels.Store(typeName(subject), label)
}

// RegisterType labels collaborators by Go type name as printed by %T, e.g. "*redis.Client".
func (c *Classifier) RegisterType(name string, label string) {
	c.labels.Store(name, label)
}

// CacheSystem returns the cache engine label for subject, CacheSystemCustom when unknown.
func (c *Classifier) CacheSystem(subject any) string {
	if kinder, ok := subject.(BackendKinder); ok {
		if kind := strings.TrimSpace(kinder.BackendKind()); kind != "" {
			return kind
		}
	}
	if label, ok := c.lookup(subject); ok {
		return label
	}
	return CacheSystemCustom
}

// DBSystem returns the SQL dialect label for subject, DBSystemOther when unknown.
func (c *Classifier) DBSystem(subject any) string {
	if dialecter, ok := subject.(Dialecter); ok {
		if label, known := dialects[strings.ToLower(dialecter.DialectType())]; known {
			return label
		}
	}
	if label, ok := c.lookup(subject); ok {
		return label
	}
	return DBSystemOther
}

func (c *Classifier) lookup(subject any) (string, bool) {
	if subject == nil || c == nil {
		return "", false
	}
	return c.labels.Load(typeName(subject))
}

func typeName(subject any) string {
	return fmt.Sprintf("%T", subject)
}
