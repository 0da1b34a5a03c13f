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

// Package view renders handlebars templates and announces every render as an event.
package view

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"

	"github.com/aymerick/raymond"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/snyk/sentry-instrumentation/internal/events"
)

const (
	ServiceName      = "view"
	DefaultExtension = ".hbs"
)

// Renderer renders the templates found under one directory. Parsed templates are kept for the
// lifetime of the renderer.
type Renderer struct {
	dir       string
	extension string
	helpers   map[string]any
	templates *xsync.MapOf[string, *raymond.Template]
	mutex     sync.RWMutex
	events    *events.Manager
}

type Option func(r *Renderer)

func WithExtension(extension string) Option {
	return func(r *Renderer) {
		r.extension = extension
	}
}

// WithHelper makes helper available to every template as name.
func WithHelper(name string, helper any) Option {
	return func(r *Renderer) {
		r.helpers[name] = helper
	}
}

func NewRenderer(dir string, opts ...Option) *Renderer {
	r := &Renderer{
		dir:       dir,
		extension: DefaultExtension,
		helpers:   map[string]any{"json": jsonHelper},
		templates: xsync.NewMapOf[string, *raymond.Template](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) EventsManager() *events.Manager {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.events
}

func (r *Renderer) SetEventsManager(manager *events.Manager) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = manager
}

// Path resolves a template name to the file rendered for it.
func (r *Renderer) Path(name string) string {
	return filepath.Join(r.dir, name+r.extension)
}

// Render executes the template called name with params.
func (r *Renderer) Render(ctx context.Context, name string, params map[string]any) (string, error) {
	payload := events.RenderPayload{Path: r.Path(name), Params: params}
	manager := r.EventsManager()
	manager.Fire(ctx, events.Event{Kind: events.ViewBeforeRender, Service: ServiceName, Data: payload, Subject: r})
	defer manager.Fire(ctx, events.Event{Kind: events.ViewAfterRender, Service: ServiceName, Data: payload, Subject: r})

	tpl, err := r.template(payload.Path)
	if err != nil {
		return "", err
	}
	out, err := tpl.Exec(params)
	if err != nil {
		return "", errors.Wrapf(err, "cannot render %s", name)
	}
	return out, nil
}

func (r *Renderer) template(path string) (*raymond.Template, error) {
	if tpl, ok := r.templates.Load(path); ok {
		return tpl, nil
	}
	tpl, err := raymond.ParseFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse template %s", path)
	}
	tpl.RegisterHelpers(r.helpers)
	actual, _ := r.templates.LoadOrStore(path, tpl)
	return actual, nil
}

func jsonHelper(v any) raymond.SafeString {
	data, err := json.Marshal(v)
	if err != nil {
		return raymond.SafeString(err.Error())
	}
	return raymond.SafeString(data)
}
