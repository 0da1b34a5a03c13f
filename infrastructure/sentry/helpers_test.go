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

package sentry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/require"

	"github.com/snyk/sentry-instrumentation/internal/testutil"
)

const testDsn = testutil.TestDsn

type transportMock = testutil.RecordingTransport

func testHub(t *testing.T) (*sentry.Hub, *transportMock) {
	t.Helper()
	c := testutil.UnitTest(t)
	transport := &transportMock{}
	hub, err := NewHub(c, transport)
	require.NoError(t, err)
	return hub, transport
}
