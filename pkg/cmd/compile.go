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

	"github.com/spf13/cobra"

	"github.com/chic-lang/chic-core/pkg/codegen/native"
	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir"
	"github.com/chic-lang/chic-core/pkg/mir/builder"
	"github.com/chic-lang/chic-core/pkg/mir/verify"
	"github.com/chic-lang/chic-core/pkg/symtab"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags]",
	Short: "lower the built-in sample programs to native textual SSA.",
	Long: `Build each sample program's MIR (pkg/mir/builder), verify it
(pkg/mir/verify), and print the pkg/codegen/native textual SSA backend's
output to stdout.`,
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

		failed := false
		for _, s := range samples {
			res := builder.Build(bag, symbols, table, s.Decl)
			module.AddFunction(res.Function)
			if res.Function.Body == nil {
				continue
			}
			for _, verr := range verify.VerifyBody(res.Function.Body) {
				failed = true
				fmt.Fprintf(os.Stderr, "%s: %s\n", s.Decl.Name, verr.Error())
			}
		}

		printDiagnostics(bag)
		if failed || bag.HasErrors() {
			os.Exit(1)
		}

		prog, errs := native.Emit(module)
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		if len(errs) > 0 {
			os.Exit(1)
		}
		if _, err := prog.WriteTo(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
