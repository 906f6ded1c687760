// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// defaultWidth is used whenever stdout is not a terminal (e.g. when output
// is piped to a file or CI log).
const defaultWidth = 100

// terminalWidth determines how many columns are available for wrapping
// diagnostic snippets, falling back to defaultWidth when fd is not a TTY.
// Grounded on the teacher's pkg/util/termio terminal-sizing convention.
func terminalWidth(fd int) int {
	if !term.IsTerminal(fd) {
		return defaultWidth
	}

	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultWidth
	}

	return width
}

// Print renders every diagnostic in the bag to w, one per line, wrapping the
// message body to the terminal width when w is stdout and stdout is a TTY.
func Print(w io.Writer, source *File, bag *Bag) {
	width := defaultWidth
	if f, ok := w.(*os.File); ok {
		width = terminalWidth(int(f.Fd()))
	}

	for _, d := range bag.Items() {
		printOne(w, source, d, width)
	}
}

func printOne(w io.Writer, source *File, d Diagnostic, width int) {
	fmt.Fprintf(w, "%s[%s]: %s\n", d.Severity, d.Code, wrap(d.Message, width))

	if d.HasSpan && source != nil {
		line := source.FindFirstEnclosingLine(d.Span)
		fmt.Fprintf(w, "  --> %s:%d\n", source.Filename(), line.Number())
		fmt.Fprintf(w, "      %s\n", line.String())
	}

	for _, n := range d.Notes {
		fmt.Fprintf(w, "  note: %s\n", wrap(n.Message, width))
	}
}

func wrap(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}

	words := strings.Fields(s)
	var (
		b     strings.Builder
		lineN int
	)

	for i, word := range words {
		if lineN > 0 && lineN+1+len(word) > width {
			b.WriteString("\n      ")
			lineN = 0
		} else if i > 0 {
			b.WriteString(" ")
			lineN++
		}

		b.WriteString(word)
		lineN += len(word)
	}

	return b.String()
}
