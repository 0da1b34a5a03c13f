/*
 * © 2022-2026 Snyk Limited
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

// Package config implements the configuration functionality
package config

import (
	"strings"

	"github.com/pkg/errors"
)

const DefaultCacheService = "cache"

var (
	Version     = "SNAPSHOT"
	Development = "true"

	// ErrMissingDsn means there is no backend to send spans to; nothing can be instrumented.
	ErrMissingDsn = errors.New("sentry-instrumentation: no valid sentry dsn found in options")
)

type CacheOptions struct {
	Enabled          bool
	CaptureBacktrace bool
	// Services lists the names of the cache services to instrument.
	Services []string
}

type DBOptions struct {
	Enabled          bool
	CaptureBacktrace bool
}

type ViewOptions struct {
	Enabled                 bool
	CaptureRenderParameters bool
}

// Config is handed to every component at construction time. It is not shared through package
// state.
type Config struct {
	Dsn              string
	Environment      string
	Release          string
	Debug            bool
	TracesSampleRate float64

	Cache CacheOptions
	DB    DBOptions
	View  ViewOptions
}

// Default returns the configuration used when no file overrides it: everything traced,
// backtraces captured, render parameters left out.
func Default() *Config {
	return &Config{
		Environment:      environment(),
		Release:          Version,
		Debug:            IsDevelopment(),
		TracesSampleRate: 1,
		Cache: CacheOptions{
			Enabled:          true,
			CaptureBacktrace: true,
			Services:         []string{DefaultCacheService},
		},
		DB: DBOptions{
			Enabled:          true,
			CaptureBacktrace: true,
		},
		View: ViewOptions{
			Enabled: true,
		},
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Dsn) == "" {
		return ErrMissingDsn
	}
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return errors.Errorf("sentry-instrumentation: traces sample rate %v is not between 0 and 1", c.TracesSampleRate)
	}
	return nil
}

func IsDevelopment() bool {
	return Development == "true"
}

func environment() string {
	if IsDevelopment() {
		return "development"
	}
	return "production"
}
