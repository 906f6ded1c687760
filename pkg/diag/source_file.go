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

import "os"

// File represents one source file, retained only so diagnostics can be
// rendered against the original text. Grounded on the teacher's
// pkg/util/source.File.
type File struct {
	filename string
	contents []rune
}

// ReadFile loads a source file from disk.
func ReadFile(filename string) (*File, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return NewFile(filename, bytes), nil
}

// NewFile constructs a File directly from an in-memory buffer.
func NewFile(filename string, contents []byte) *File {
	return &File{filename: filename, contents: []rune(string(contents))}
}

// Filename returns the name this file was constructed with.
func (f *File) Filename() string { return f.filename }

// Contents returns the full text of this file.
func (f *File) Contents() []rune { return f.contents }

// SyntaxError constructs a Diagnostic anchored to span within this file.
func (f *File) SyntaxError(code string, span Span, msg string) Diagnostic {
	return New(code, msg).WithSpan(span)
}

// Line describes one physical line of a File.
type Line struct {
	text   []rune
	span   Span
	number int
}

// Number returns the 1-indexed line number.
func (l Line) Number() int { return l.number }

// String returns the text of this line.
func (l Line) String() string {
	return string(l.text[l.span.Start():l.span.End()])
}

// FindFirstEnclosingLine returns the first physical line enclosing the start
// of span. If span starts beyond the end of the file, the last line is
// returned.
func (f *File) FindFirstEnclosingLine(span Span) Line {
	index := span.Start()
	num := 1
	start := 0

	for i := 0; i < len(f.contents); i++ {
		if i == index {
			return Line{f.contents, Span{start, endOfLine(index, f.contents)}, num}
		} else if f.contents[i] == '\n' {
			num++
			start = i + 1
		}
	}

	return Line{f.contents, Span{start, len(f.contents)}, num}
}

func endOfLine(index int, text []rune) int {
	for i := index; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}

	return len(text)
}
