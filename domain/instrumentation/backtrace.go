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
	"fmt"
	"runtime"
	"strings"
)

const maxBacktraceFrames = 50

// captureBacktrace formats the caller's stack as "at <file>:<line>" lines. skip counts frames
// above the caller of captureBacktrace to leave out. Frames without file or line are dropped.
func captureBacktrace(skip int) string {
	pcs := make([]uintptr, maxBacktraceFrames)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])

	var lines []string
	for {
		frame, more := frames.Next()
		if frame.File != "" && frame.Line != 0 {
			lines = append(lines, fmt.Sprintf("at %s:%d", frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return strings.Join(lines, "\n")
}
