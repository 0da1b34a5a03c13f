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

// Package metrics counts the spans the instrumentation opens, closes and sweeps.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "sentry_instrumentation"
	subsystem = "spans"
)

// Collector implements correlation.Observer on top of prometheus counters.
type Collector struct {
	opened   *prometheus.CounterVec
	closed   *prometheus.CounterVec
	orphaned *prometheus.CounterVec
}

func NewCollector() *Collector {
	return &Collector{
		opened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "opened_total",
			Help:      "The number of child spans opened by a before notification",
		}, []string{"op"}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "closed_total",
			Help:      "The number of child spans closed by their matching after notification",
		}, []string{"op"}),
		orphaned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orphaned_total",
			Help:      "The number of child spans finished by the end of request sweep",
		}, []string{"op"}),
	}
}

// Register adds the counters to registerer.
func (c *Collector) Register(registerer prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{c.opened, c.closed, c.orphaned} {
		if err := registerer.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) SpanOpened(op string) {
	c.opened.WithLabelValues(op).Inc()
}

func (c *Collector) SpanClosed(op string) {
	c.closed.WithLabelValues(op).Inc()
}

func (c *Collector) SpanOrphaned(op string) {
	c.orphaned.WithLabelValues(op).Inc()
}

// Handler serves the metrics of gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
