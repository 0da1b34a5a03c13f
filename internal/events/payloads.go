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

package events

// CachePayload identifies the cache item(s) an operation addresses. Hit and ItemSize are
// outcome data, set on "after" events once known, except ItemSize on beforeSet.
type CachePayload struct {
	Keys     []string
	Hit      *bool
	ItemSize *int
}

// DBPayload identifies a statement by its SQL text and bound arguments, or a transaction by ID.
type DBPayload struct {
	SQL  string
	Args []any
	TxID string
}

// RenderPayload identifies a view by its resolved template path.
type RenderPayload struct {
	Path   string
	Params map[string]any
}

func Bool(b bool) *bool { return &b }

func Int(i int) *int { return &i }
