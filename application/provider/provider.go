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

// Package provider wires the instrumentation together and owns the root span of every request.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zoobzio/clockz"

	"github.com/snyk/sentry-instrumentation/application/config"
	"github.com/snyk/sentry-instrumentation/domain/instrumentation"
	"github.com/snyk/sentry-instrumentation/domain/observability/error_reporting"
	"github.com/snyk/sentry-instrumentation/domain/observability/performance"
	"github.com/snyk/sentry-instrumentation/internal/correlation"
	"github.com/snyk/sentry-instrumentation/internal/events"
	sentryinfra "github.com/snyk/sentry-instrumentation/infrastructure/sentry"
)

const (
	ServiceDB   = "db"
	ServiceView = "view"
)

type handlerFactory func(deps instrumentation.Dependencies) instrumentation.Handler

// Provider instruments the services it was given and starts one Scope per request. It is safe
// for concurrent use; everything request specific lives in the Scope.
type Provider struct {
	config       *config.Config
	hub          *sentry.Hub
	instrumentor performance.Instrumentor
	reporter     error_reporting.ErrorReporter
	events       *events.Manager
	classifier   *instrumentation.Classifier
	observer     correlation.Observer
	clock        clockz.Clock
	logger       *zerolog.Logger

	services     map[string]any
	serviceOrder []string

	factories    map[string]handlerFactory
	factoryOrder []string
	listening    map[listenKey]bool
}

type listenKey struct {
	manager *events.Manager
	source  string
}

type Option func(p *Provider)

// WithHub makes the provider report to hub instead of the process wide one.
func WithHub(hub *sentry.Hub) Option {
	return func(p *Provider) {
		p.hub = hub
	}
}

func WithInstrumentor(instrumentor performance.Instrumentor) Option {
	return func(p *Provider) {
		p.instrumentor = instrumentor
	}
}

func WithErrorReporter(reporter error_reporting.ErrorReporter) Option {
	return func(p *Provider) {
		p.reporter = reporter
	}
}

// WithEventsManager sets the manager handed to services that do not have one yet.
func WithEventsManager(m *events.Manager) Option {
	return func(p *Provider) {
		p.events = m
	}
}

func WithClassifier(classifier *instrumentation.Classifier) Option {
	return func(p *Provider) {
		p.classifier = classifier
	}
}

func WithObserver(observer correlation.Observer) Option {
	return func(p *Provider) {
		p.observer = observer
	}
}

func WithClock(clock clockz.Clock) Option {
	return func(p *Provider) {
		p.clock = clock
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithService registers a collaborator under name. Cache services are looked up by the names in
// the cache options, the database under "db" and the view under "view".
func WithService(name string, service any) Option {
	return func(p *Provider) {
		if _, ok := p.services[name]; !ok {
			p.serviceOrder = append(p.serviceOrder, name)
		}
		p.services[name] = service
	}
}

// New validates c, connects to the tracing backend and attaches handlers to the registered
// services. Without a DSN nothing is instrumented and config.ErrMissingDsn is returned.
func New(c *config.Config, opts ...Option) (*Provider, error) {
	if c == nil {
		c = config.Default()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		config:    c,
		clock:     clockz.RealClock,
		logger:    &log.Logger,
		services:  map[string]any{},
		factories: map[string]handlerFactory{},
		listening: map[listenKey]bool{},
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.instrumentor == nil || p.reporter == nil {
		hub := p.hub
		if hub == nil {
			var err error
			hub, err = sentryinfra.Initialize(c)
			if err != nil {
				return nil, err
			}
		}
		if p.instrumentor == nil {
			p.instrumentor = sentryinfra.NewInstrumentor(hub)
		}
		if p.reporter == nil {
			p.reporter = sentryinfra.NewSentryErrorReporter(hub)
		}
	}
	if p.events == nil {
		p.events = events.NewManager(p.logger)
	}
	if p.classifier == nil {
		p.classifier = instrumentation.NewClassifier()
	}

	p.attach()
	return p, nil
}

func (p *Provider) attach() {
	p.attachCache()
	p.attachDB()
	p.attachView()
}

func (p *Provider) attachCache() {
	if !p.config.Cache.Enabled {
		return
	}
	options := p.config.Cache
	for _, name := range options.Services {
		p.attachService(name, "cache", events.CacheKinds, func(deps instrumentation.Dependencies) instrumentation.Handler {
			return instrumentation.NewCacheHandler(deps, options)
		})
	}
}

func (p *Provider) attachDB() {
	if !p.config.DB.Enabled {
		return
	}
	options := p.config.DB
	p.attachService(ServiceDB, "db", events.DBKinds, func(deps instrumentation.Dependencies) instrumentation.Handler {
		return instrumentation.NewDBHandler(deps, options)
	})
}

func (p *Provider) attachView() {
	if !p.config.View.Enabled {
		return
	}
	options := p.config.View
	p.attachService(ServiceView, "view", events.ViewKinds, func(deps instrumentation.Dependencies) instrumentation.Handler {
		return instrumentation.NewViewHandler(deps, options)
	})
}

// attachService listens to the events of the service registered under name. A service that
// cannot announce its operations is reported and left uninstrumented.
func (p *Provider) attachService(name string, source string, kinds []events.Kind, factory handlerFactory) {
	service, ok := p.services[name]
	if !ok {
		p.logger.Debug().Str("method", "Provider.attachService").Str("service", name).Msg("service not registered, not instrumenting")
		return
	}
	aware, ok := service.(events.EventsAware)
	if !ok {
		msg := fmt.Sprintf("sentry-instrumentation: service %s needs to implement events.EventsAware", name)
		p.logger.Warn().Str("method", "Provider.attachService").Str("service", name).Msg(msg)
		p.reporter.CaptureMessage(msg)
		return
	}

	manager := aware.EventsManager()
	if manager == nil {
		manager = p.events
		aware.SetEventsManager(manager)
	}
	key := listenKey{manager: manager, source: source}
	if !p.listening[key] {
		for _, kind := range kinds {
			manager.On(kind, p.dispatch)
		}
		p.listening[key] = true
	}

	if _, exists := p.factories[name]; !exists {
		p.factoryOrder = append(p.factoryOrder, name)
	}
	p.factories[name] = factory
	p.logger.Debug().Str("method", "Provider.attachService").Str("service", name).Msg("instrumenting service")
}

// dispatch hands ev to the handler of the request that fired it. Events outside a request are
// dropped.
func (p *Provider) dispatch(ctx context.Context, ev events.Event) {
	scope := FromContext(ctx)
	if scope == nil {
		return
	}
	scope.handle(ctx, ev)
}

// Instrumented lists the names of the services whose events are traced.
func (p *Provider) Instrumented() []string {
	return append([]string(nil), p.factoryOrder...)
}

// EventsManager is the manager handed to services that had none.
func (p *Provider) EventsManager() *events.Manager {
	return p.events
}

func (p *Provider) Classifier() *instrumentation.Classifier {
	return p.classifier
}

// Flush waits up to timeout for pending reports to be sent.
func (p *Provider) Flush(timeout time.Duration) {
	if p.hub != nil {
		p.hub.Flush(timeout)
		return
	}
	p.reporter.FlushErrorReporting()
}
