/*
 * © 2022-2026 Snyk Limited All rights reserved.
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

package testutil

import (
	"os"
	"runtime"
	"testing"

	"github.com/rs/zerolog"

	"github.com/snyk/sentry-instrumentation/application/config"
)

const (
	integTestEnvVar = "INTEG_TESTS"
	// TestDsn points at a project that never receives anything; tests swap the transport.
	TestDsn = "https://public@example.com/1"
)

// IntegTest skips unless INTEG_TESTS and SENTRY_DSN are set and returns a config reporting to
// that DSN.
func IntegTest(t *testing.T) *config.Config {
	t.Helper()
	if os.Getenv(integTestEnvVar) == "" {
		t.Logf("%s is not set", integTestEnvVar)
		t.SkipNow()
	}
	c := config.Default()
	if err := c.LoadEnv(); err != nil {
		t.Fatal(err)
	}
	if c.Dsn == "" {
		t.Logf("SENTRY_DSN is not set")
		t.SkipNow()
	}
	return c
}

// UnitTest returns the default config with a test DSN and quiets logging below warnings.
func UnitTest(t *testing.T) *config.Config {
	t.Helper()
	level := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
	})
	c := config.Default()
	c.Dsn = TestDsn
	return c
}

func NotOnWindows(t *testing.T, reason string) {
	t.Helper()
	if //goland:noinspection GoBoolExpressions
	runtime.GOOS == "windows" {
		t.Skipf("Not on windows, because %s", reason)
	}
}

func SetEnvOrFail(t *testing.T, key string, value string) {
	t.Helper()
	t.Setenv(key, value)
}
