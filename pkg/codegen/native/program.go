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
package native

import (
	"fmt"
	"io"
	"strings"
)

// Function is one emitted function's textual instruction stream.
type Function struct {
	Name  string
	Lines []string
}

// Program is the assembled textual SSA output of one MirModule (spec.md
// §4.5, §6). Function order follows the module's function order; if a
// deterministic byte-for-byte output is required beyond that, sort
// Functions first.
type Program struct {
	Functions []*Function
}

// WriteTo implements io.WriterTo for Program, writing every function's
// lines in order and returning the number of bytes written.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, fn := range p.Functions {
		wn, err := fn.WriteTo(w)
		total += wn
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteTo implements io.WriterTo for Function.
func (f *Function) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range f.Lines {
		n, err := fmt.Fprintln(w, indent(line))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// indent adds one tab of indentation to everything but a label or a
// top-level define/declare line, matching the usual textual-SSA style.
func indent(line string) string {
	if strings.HasSuffix(line, ":") || strings.HasPrefix(line, "define ") ||
		strings.HasPrefix(line, "declare ") || line == "}" {
		return line
	}
	return "\t" + line
}

// String renders the program via WriteTo.
func (p *Program) String() string {
	var b strings.Builder
	_, _ = p.WriteTo(&b)
	return b.String()
}

// String renders one function via WriteTo.
func (f *Function) String() string {
	var b strings.Builder
	_, _ = f.WriteTo(&b)
	return b.String()
}
