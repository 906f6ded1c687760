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
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// ExecOptions configures one execution: a watchdog bounds steps and
// wall-clock time; the remaining knobs are optional. The zero value runs
// with no step/wall-clock/memory limit, empty stdin, and the default
// byte-buffer IoHooks.
type ExecOptions struct {
	StepLimit      uint64
	WallClockLimit time.Duration
	IoHooks        *IoHooks

	// MemoryLimitPages caps linear-memory growth; 0 means unlimited.
	MemoryLimitPages uint32
	// Stdin seeds the default byte-buffer stdin when no IoHooks are set.
	Stdin []byte
}

// ExecResult is what one execute_wasm(_with_options) call reports back:
// the function's return values on success, or trap details when execution
// stopped abnormally, plus whatever the guest wrote to stdout/stderr
// through the default IoHooks.
type ExecResult struct {
	Results  []uint64
	ExitCode int // 0 on normal return; 101/134 on trap
	Trapped  bool
	Message  string

	Stdout []byte
	Stderr []byte
}

// ExecuteWasm decodes data and calls its exported function entryFunc with
// args, using default options.
func ExecuteWasm(data []byte, entryFunc string, args []uint64) (*ExecResult, error) {
	return ExecuteWasmWithOptions(data, entryFunc, args, ExecOptions{})
}

// ExecuteWasmWithOptions is ExecuteWasm with caller-supplied step/
// wall-clock limits and IoHooks.
func ExecuteWasmWithOptions(data []byte, entryFunc string, args []uint64, opts ExecOptions) (*ExecResult, error) {
	module, err := Decode(data)
	if err != nil {
		return nil, err
	}
	funcIx, ok := module.ExportedFunc(entryFunc)
	if !ok {
		return nil, fmt.Errorf("wasmexec: module has no exported function %q", entryFunc)
	}

	m := NewMachine(module, &opts)
	results, err := m.Call(funcIx, args)

	res := &ExecResult{
		Results: results,
		Stdout:  m.stdio.stdout.Bytes(),
		Stderr:  m.stdio.stderr.Bytes(),
	}
	if err == nil {
		return res, nil
	}
	if trap, ok := err.(Trap); ok {
		res.Trapped = true
		res.ExitCode = trap.ExitCode
		res.Message = trap.Message
		log.WithFields(log.Fields{"function": entryFunc, "exit_code": trap.ExitCode}).Warn(trap.Message)
		return res, nil
	}
	return nil, err
}
