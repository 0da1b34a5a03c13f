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
	"sort"
	"strings"

	"github.com/snyk/sentry-instrumentation/application/config"
	"github.com/snyk/sentry-instrumentation/internal/correlation"
	"github.com/snyk/sentry-instrumentation/internal/events"
)

const (
	OpViewRender = "view.render"

	dataViewParams = "view.params"
)

// ViewHandler traces template rendering.
type ViewHandler struct {
	handler
	options config.ViewOptions
}

func NewViewHandler(deps Dependencies, options config.ViewOptions) *ViewHandler {
	return &ViewHandler{handler: newHandler(deps), options: options}
}

func (h *ViewHandler) Handle(_ context.Context, ev events.Event) {
	payload, ok := ev.Data.(events.RenderPayload)
	if !ok {
		return
	}
	switch ev.Kind {
	case events.ViewBeforeRender:
		h.OnBefore(payload, ev.Subject)
	case events.ViewAfterRender:
		h.OnAfter(payload)
	}
}

func (h *ViewHandler) OnBefore(payload events.RenderPayload, _ any) {
	defer h.recoverPanic("ViewHandler.OnBefore")

	h.correlator.Open(h.current, correlation.Request{
		Descriptor:  payload.Path,
		Op:          OpViewRender,
		Description: payload.Path,
		Metadata: func() map[string]any {
			data := map[string]any{}
			if h.options.CaptureRenderParameters {
				data[dataViewParams] = paramNames(payload.Params)
			}
			return data
		},
	})
}

func (h *ViewHandler) OnAfter(payload events.RenderPayload) {
	defer h.recoverPanic("ViewHandler.OnAfter")

	h.correlator.Close(payload.Path, nil)
}

// paramNames lists the names of the parameters passed to a template, never their values.
func paramNames(params map[string]any) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
