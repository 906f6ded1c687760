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

	"github.com/chic-lang/chic-core/pkg/diag"
	"github.com/chic-lang/chic-core/pkg/layout"
	"github.com/chic-lang/chic-core/pkg/mir/builder"
	"github.com/chic-lang/chic-core/pkg/mir/verify"
	"github.com/chic-lang/chic-core/pkg/symtab"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [flags]",
	Short: "run structural verification and the fallible-value pass over the sample programs.",
	Long: `Build each sample program's MIR, run VerifyBody (spec.md §3/§8
structural invariants) and CheckFallibleValues (spec.md §4.4.2), and
report every problem found. Exits non-zero if any sample fails.`,
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		samples, err := selectSamples(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}

		bag := diag.NewBag()
		table := layout.NewTable(bag)
		symbols := symtab.NewIndex(bag)

		failed := false
		for _, s := range samples {
			fn := builder.Build(bag, symbols, table, s.Decl).Function
			if fn.Body == nil {
				continue // extern: nothing to verify
			}
			for _, verr := range verify.VerifyBody(fn.Body) {
				failed = true
				fmt.Printf("%s: %s\n", s.Decl.Name, verr.Error())
			}
			verify.CheckFallibleValues(fn, table, bag)
		}

		printDiagnostics(bag)
		if failed || bag.HasErrors() {
			os.Exit(1)
		}
		fmt.Println("all samples verified clean")
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
