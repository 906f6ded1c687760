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
	"math"
	"math/big"
)

// callImport hosts the `chic_rt` surface pkg/codegen/wasm's
// newRuntimeImports declares (spec.md §6 "Runtime ABI"). funcIx is an index
// into the import space, i.e. always < len(m.module.Imports).
func (m *Machine) callImport(funcIx uint32, args []uint64) ([]uint64, error) {
	imp := m.module.Imports[funcIx]
	if imp.Module != "chic_rt" {
		return nil, fmt.Errorf("wasmexec: unknown import module %q", imp.Module)
	}
	switch imp.Name {
	case "chic_rt_panic":
		return nil, Trap{ExitCode: ExitCodePanic, Message: m.readMessage(int32(args[0]))}
	case "chic_rt_abort":
		return nil, Trap{ExitCode: ExitCodeAbort, Message: m.readMessage(int32(args[0]))}
	case "chic_rt_throw":
		m.pending = pendingException{set: true, payload: int32(args[0]), typeID: int64(args[1])}
		return nil, nil
	case "chic_rt_rethrow":
		if !m.pending.set {
			return nil, Trap{ExitCode: ExitCodeAbort, Message: "rethrow with no active exception"}
		}
		return nil, nil
	case "chic_rt_pending_exception":
		if m.pending.set {
			return []uint64{1}, nil
		}
		return []uint64{0}, nil
	case "chic_rt_yield":
		if m.hooks != nil && m.hooks.Sleep != nil {
			m.hooks.Sleep(0)
		}
		return nil, nil
	case "chic_rt_await":
		// Scheduler entry point: block the current task on future. The
		// single-threaded cooperative model resolves every non-cancelled
		// future synchronously, so this degenerates to one poll.
		future := int32(args[1])
		if m.cancel[future] {
			return []uint64{0}, nil
		}
		return []uint64{1}, nil
	case "chic_rt_await_poll":
		token := int32(args[0])
		if m.cancel[token] {
			return []uint64{0}, nil // cancelled tasks never report ready
		}
		return []uint64{1}, nil // cooperative scheduler: every task completes synchronously
	case "chic_rt_async_spawn":
		// Tasks are pointers into linear memory; spawning returns the task
		// pointer itself as its handle (spec.md §5).
		return []uint64{uint64(uint32(args[0]))}, nil
	case "chic_rt_async_cancel":
		m.cancel[int32(args[0])] = true
		return nil, nil
	case "chic_rt_async_token_new":
		m.nextToken++
		return []uint64{uint64(uint32(m.nextToken))}, nil
	case "chic_rt_async_token_state":
		if m.cancel[int32(args[0])] {
			return []uint64{1}, nil
		}
		return []uint64{0}, nil
	case "chic_rt_async_token_cancel":
		m.cancel[int32(args[0])] = true
		return nil, nil
	case "chic_rt_async_scope":
		// Scopes delimit structured-concurrency regions; with every task
		// resolving synchronously there is nothing to track per scope.
		return nil, nil
	case "chic_rt_async_block_on":
		// block_on drives the task to completion; synchronous resolution
		// means the task pointer doubles as its completed handle.
		return []uint64{uint64(uint32(args[0]))}, nil
	case "chic_rt_async_spawn_local":
		return []uint64{uint64(uint32(args[0]))}, nil
	case "chic_rt_async_task_header":
		return []uint64{uint64(uint32(args[0]))}, nil
	case "chic_rt_async_task_result":
		src, dst, n := int32(args[0]), int32(args[1]), int32(args[2])
		if n > 0 && src >= 0 && dst >= 0 && int(src)+int(n) <= len(m.memory) && int(dst)+int(n) <= len(m.memory) {
			copy(m.memory[dst:dst+n], m.memory[src:src+n])
		}
		return nil, nil
	case "chic_rt_string_as_slice":
		// Strings already live in linear memory as NUL-terminated bytes;
		// the slice view starts at the same pointer.
		return []uint64{uint64(uint32(args[0]))}, nil
	case "chic_rt_assert_failed":
		return nil, Trap{ExitCode: ExitCodePanic, Message: "assertion failed: " + m.readMessage(int32(args[0]))}
	case "chic_rt_string_interpolate":
		return []uint64{uint64(uint32(args[0]))}, nil // no template engine: echo the format pointer back
	case "chic_rt_numeric_op":
		r, err := numericOp(int32(args[0]), int32(args[1]), int32(args[2]))
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(uint32(r))}, nil
	case "chic_rt_decimal_op":
		return []uint64{uint64(uint32(decimalOp(int32(args[0]), int32(args[1]), int32(args[2]))))}, nil
	case "chic_rt_i128_op":
		a := m.i128Load(int32(args[0]))
		b := m.i128Load(int32(args[1]))
		r, err := i128Op(a, b, int32(args[2]))
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(uint32(m.i128Store(r)))}, nil
	case "chic_rt_i128_unop":
		a := m.i128Load(int32(args[0]))
		if int32(args[1]) == 1 {
			a.Not(a)
		} else {
			a.Neg(a)
		}
		return []uint64{uint64(uint32(m.i128Store(a)))}, nil
	case "chic_rt_i128_cmp":
		a := m.i128Load(int32(args[0]))
		b := m.i128Load(int32(args[1]))
		return []uint64{uint64(uint32(int32(a.Cmp(b))))}, nil
	case "chic_rt_i128_from_i64":
		v := new(big.Int)
		if int32(args[1]) == 1 {
			v.SetInt64(int64(args[0]))
		} else {
			v.SetUint64(args[0])
		}
		return []uint64{uint64(uint32(m.i128Store(v)))}, nil
	case "chic_rt_i128_to_i64":
		a := m.i128Load(int32(args[0]))
		low := new(big.Int).Mod(a, i64Modulus)
		return []uint64{low.Uint64()}, nil
	default:
		return nil, fmt.Errorf("wasmexec: unhandled chic_rt import %q", imp.Name)
	}
}

// i128Load reads the 16-byte little-endian two's-complement value at ptr
// as a signed big.Int (spec.md §4.6: int128 values are 16-byte linear
// memory slots).
func (m *Machine) i128Load(ptr int32) *big.Int {
	if ptr < 0 || int(ptr)+16 > len(m.memory) {
		return new(big.Int)
	}
	buf := make([]byte, 16)
	for i := 0; i < 16; i++ {
		buf[15-i] = m.memory[int(ptr)+i] // big-endian for SetBytes
	}
	v := new(big.Int).SetBytes(buf)
	if buf[0]&0x80 != 0 {
		v.Sub(v, i128Modulus)
	}
	return v
}

// i128Store allocates a fresh 16-byte slot at the end of linear memory,
// writes v mod 2^128 little-endian, and returns the slot's address.
func (m *Machine) i128Store(v *big.Int) int32 {
	ptr := int32(len(m.memory))
	m.memory = append(m.memory, make([]byte, 16)...)
	w := new(big.Int).Mod(v, i128Modulus)
	bytes := w.Bytes() // big-endian, minimal length
	for i, bb := range bytes {
		m.memory[int(ptr)+len(bytes)-1-i] = bb
	}
	return ptr
}

// i128Modulus is 2^128; i64Modulus is 2^64.
var (
	i128Modulus = new(big.Int).Lsh(big.NewInt(1), 128)
	i64Modulus  = new(big.Int).Lsh(big.NewInt(1), 64)
)

// i128Op dispatches the op codes pkg/codegen/wasm's i128OpCode assigns;
// the two tables must stay in step. Division semantics are signed and
// truncate toward zero, like the scalar integer opcodes.
func i128Op(a, b *big.Int, op int32) (*big.Int, error) {
	r := new(big.Int)
	switch op {
	case 0:
		return r.Add(a, b), nil
	case 1:
		return r.Sub(a, b), nil
	case 2:
		return r.Mul(a, b), nil
	case 3:
		if b.Sign() == 0 {
			return nil, Trap{ExitCode: ExitCodePanic, Message: "int128 division by zero"}
		}
		return r.Quo(a, b), nil
	case 4:
		if b.Sign() == 0 {
			return nil, Trap{ExitCode: ExitCodePanic, Message: "int128 remainder by zero"}
		}
		return r.Rem(a, b), nil
	case 5:
		return r.And(a, b), nil
	case 6:
		return r.Or(a, b), nil
	case 7:
		return r.Xor(a, b), nil
	case 8:
		return r.Lsh(a, uint(b.Uint64()&127)), nil
	case 9:
		return r.Rsh(a, uint(b.Uint64()&127)), nil
	default:
		return nil, fmt.Errorf("wasmexec: unknown i128 op %d", op)
	}
}

// numericOp implements the checked/saturating/wrapping scalar intrinsics
// (mir.NumericIntrinsicKind numbering) on 32-bit operands. Checked
// overflow traps; saturating clamps; wrapping wraps; overflowing returns
// the wrapped value.
func numericOp(a, b, kind int32) (int32, error) {
	wide := int64(a)
	switch kind {
	case 0, 1, 2: // checked add/sub/mul
		switch kind {
		case 0:
			wide += int64(b)
		case 1:
			wide -= int64(b)
		case 2:
			wide *= int64(b)
		}
		if wide > math.MaxInt32 || wide < math.MinInt32 {
			return 0, Trap{ExitCode: ExitCodePanic, Message: "checked arithmetic overflowed"}
		}
		return int32(wide), nil
	case 3, 4: // saturating add/sub
		if kind == 3 {
			wide += int64(b)
		} else {
			wide -= int64(b)
		}
		if wide > math.MaxInt32 {
			return math.MaxInt32, nil
		}
		if wide < math.MinInt32 {
			return math.MinInt32, nil
		}
		return int32(wide), nil
	case 5: // wrapping add
		return a + b, nil
	case 6: // wrapping sub
		return a - b, nil
	case 7: // overflowing add: wrapped value; the overflow flag is not modeled
		return a + b, nil
	default:
		return 0, fmt.Errorf("wasmexec: unknown numeric intrinsic kind %d", kind)
	}
}

// readMessage reads a NUL-terminated UTF-8 string out of linear memory
// starting at ptr, the convention pkg/codegen/wasm's string constants use
// (spec.md §4.6 "string literals are laid out as NUL-terminated UTF-8 in
// the data segment").
func (m *Machine) readMessage(ptr int32) string {
	if ptr < 0 || int(ptr) >= len(m.memory) {
		return fmt.Sprintf("<invalid message pointer %d>", ptr)
	}
	end := int(ptr)
	for end < len(m.memory) && m.memory[end] != 0 {
		end++
	}
	return string(m.memory[ptr:end])
}

// decimalOp implements the fixed-point arithmetic chic_rt_decimal_op
// dispatches on (spec.md §3 "decimal values lower to a scaled i64 pair";
// the interpreter collapses this to scale-4 i32 arithmetic, sufficient to
// exercise the vectorized/non-vectorized decimal paths pkg/mir/builder
// lowers). op: 0=add, 1=sub, 2=mul, 3=div.
func decimalOp(a, b, op int32) int32 {
	const scale = 10000
	switch op {
	case 0:
		return a + b
	case 1:
		return a - b
	case 2:
		return int32((int64(a) * int64(b)) / scale)
	case 3:
		if b == 0 {
			return 0
		}
		return int32((int64(a) * scale) / int64(b))
	default:
		return 0
	}
}
