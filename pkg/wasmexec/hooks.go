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
package wasmexec

import (
	"bytes"
	"time"
)

// IoHooks abstracts every piece of host I/O a running guest program can
// reach (spec.md §4.7 "Host I/O is abstracted behind a vtable of
// closures"). Any nil field falls back to the in-memory defaults installed
// by newDefaultHooks, so a caller only needs to override what a given test
// actually exercises.
type IoHooks struct {
	OpenFile  func(path string, flags int32) (fd int32, err error)
	ReadFile  func(fd int32, buf []byte) (n int32, err error)
	WriteFile func(fd int32, buf []byte) (n int32, err error)
	CloseFile func(fd int32) error

	SocketOpen  func(addr string) (fd int32, err error)
	SocketRead  func(fd int32, buf []byte) (n int32, err error)
	SocketWrite func(fd int32, buf []byte) (n int32, err error)

	Now   func() time.Time
	Sleep func(d time.Duration)
}

// defaultIoHooks serves stdin/stdout/stderr from built-in byte buffers when
// the caller supplies no hooks (spec.md §4.7 "When unset, built-in byte
// buffers serve stdin/stdout/stderr").
type defaultIoHooks struct {
	stdin          bytes.Reader
	stdout, stderr bytes.Buffer
}

// Well-known file descriptors, matching POSIX convention.
const (
	fdStdin  = 0
	fdStdout = 1
	fdStderr = 2
)

func newDefaultHooks() *defaultIoHooks { return &defaultIoHooks{} }

func (d *defaultIoHooks) write(fd int32, buf []byte) (int32, bool) {
	switch fd {
	case fdStdout:
		d.stdout.Write(buf)
		return int32(len(buf)), true
	case fdStderr:
		d.stderr.Write(buf)
		return int32(len(buf)), true
	}
	return 0, false
}

func (d *defaultIoHooks) read(fd int32, buf []byte) (int32, bool) {
	if fd != fdStdin {
		return 0, false
	}
	n, _ := d.stdin.Read(buf)
	return int32(n), true
}
