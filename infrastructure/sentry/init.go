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
	"sync/atomic"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/snyk/sentry-instrumentation/application/config"
)

var initialized atomic.Bool

// Initialize binds a client built from c to the process wide hub. Later calls return that hub
// without touching it.
func Initialize(c *config.Config) (*sentry.Hub, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !initialized.CompareAndSwap(false, true) {
		return sentry.CurrentHub(), nil
	}
	err := sentry.Init(clientOptions(c, nil))
	if err != nil {
		initialized.Store(false)
		log.Error().Str("method", "Initialize").Msg(err.Error())
		return nil, errors.Wrap(err, "initializing sentry")
	}
	log.Info().Str("environment", c.Environment).Msg("Tracing initialized")
	return sentry.CurrentHub(), nil
}

// NewHub returns a hub with its own client, independent of the process wide one. A nil
// transport uses the default HTTP transport.
func NewHub(c *config.Config, transport sentry.Transport) (*sentry.Hub, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	client, err := sentry.NewClient(clientOptions(c, transport))
	if err != nil {
		return nil, errors.Wrap(err, "creating sentry client")
	}
	return sentry.NewHub(client, sentry.NewScope()), nil
}

func clientOptions(c *config.Config, transport sentry.Transport) sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              c.Dsn,
		Environment:      c.Environment,
		Release:          c.Release,
		Debug:            c.Debug,
		EnableTracing:    true,
		TracesSampleRate: c.TracesSampleRate,
		AttachStacktrace: true,
		Transport:        transport,
	}
}
