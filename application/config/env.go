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

package config

import (
	"maps"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/subosito/gotenv"
)

const (
	DsnKey              = "SENTRY_DSN"
	EnvironmentKey      = "SENTRY_ENVIRONMENT"
	ReleaseKey          = "SENTRY_RELEASE"
	TracesSampleRateKey = "SENTRY_TRACES_SAMPLE_RATE"
)

// LoadEnv overrides c with the SENTRY_* variables found in the given .env files and the process
// environment. Later files win over earlier ones and process variables win over all files.
func (c *Config) LoadEnv(files ...string) error {
	env := gotenv.Env{}
	for _, file := range files {
		fileEnv, err := gotenv.Read(file)
		if err != nil {
			return errors.Wrapf(err, "reading env file %s", file)
		}
		maps.Copy(env, fileEnv)
	}
	for _, key := range []string{DsnKey, EnvironmentKey, ReleaseKey, TracesSampleRateKey} {
		if value, ok := os.LookupEnv(key); ok {
			env[key] = value
		}
	}
	return c.applyEnv(env)
}

func (c *Config) applyEnv(env gotenv.Env) error {
	if value, ok := env[DsnKey]; ok && value != "" {
		c.Dsn = value
	}
	if value, ok := env[EnvironmentKey]; ok && value != "" {
		c.Environment = value
	}
	if value, ok := env[ReleaseKey]; ok && value != "" {
		c.Release = value
	}
	if value, ok := env[TracesSampleRateKey]; ok && value != "" {
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", TracesSampleRateKey)
		}
		c.TracesSampleRate = rate
	}
	return nil
}
