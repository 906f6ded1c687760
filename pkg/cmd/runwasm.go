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
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chic-lang/chic-core/pkg/codegen/wasm"
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/mir/builder"
	"github.com/chic-lang/chic-core/pkg/symtab"
	"github.com/chic-lang/chic-core/pkg/wasmexec"
)

var runWasmCmd = &cobra.Command{
	Use:   "run-wasm [flags]",
	Short: "compile the sample programs to WASM and execute them with pkg/wasmexec.",
	Long: `Lower each sample program's MIR through the WASM backend, encode the
resulting module, and execute it with the built-in interpreter
(pkg/wasmexec), printing each sample's result or trap.`,
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		samples, err := selectSamples(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}

		bag := diag.NewBag()
		table := layout.NewTable(bag)
		module := mir.NewModule(table)
		symbols := symtab.NewIndex(bag)

		for _, s := range samples {
			module.AddFunction(builder.Build(bag, symbols, table, s.Decl).Function)
		}
		printDiagnostics(bag)
		if bag.HasErrors() {
			os.Exit(1)
		}

		prog, errs := wasm.Emit(module)
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		if len(errs) > 0 {
			os.Exit(1)
		}
		blob := prog.Encode()

		opts := wasmexec.ExecOptions{StepLimit: GetUint64(cmd, "step-limit"), WallClockLimit: time.Duration(GetUint64(cmd, "timeout-ms")) * time.Millisecond}
		failed := false
		for _, s := range samples {
			res, err := wasmexec.ExecuteWasmWithOptions(blob, s.Decl.Name, s.WasmArgs, opts)
			if err != nil {
				fmt.Printf("%s: %s\n", s.Decl.Name, err)
				failed = true
				continue
			}
			if res.Trapped {
				fmt.Printf("%s: trapped (exit %d): %s\n", s.Decl.Name, res.ExitCode, res.Message)
				continue
			}
			fmt.Printf("%s%v => %v\n", s.Decl.Name, s.WasmArgs, res.Results)
		}
		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runWasmCmd)
	runWasmCmd.Flags().Uint64("step-limit", 1_000_000, "abort a sample after this many executed instructions")
	runWasmCmd.Flags().Uint64("timeout-ms", 1000, "abort a sample after this many wall-clock milliseconds")
}
