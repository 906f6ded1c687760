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
)

// GetFlag gets an expected bool flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return r
}

// GetString gets an expected string flag, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return r
}

// GetUint64 gets an expected uint64 flag, or exits if an error arises.
func GetUint64(cmd *cobra.Command, flag string) uint64 {
	r, err := cmd.Flags().GetUint64(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return r
}

// selectSamples returns every built-in sample, or just the one named by
// --sample when that flag is set.
func selectSamples(cmd *cobra.Command) ([]Sample, error) {
	name := GetString(cmd, "sample")
	if name == "" {
		return Samples, nil
	}
	for _, s := range Samples {
		if s.Decl.Name == name {
			return []Sample{s}, nil
		}
	}
	return nil, fmt.Errorf("unknown sample %q", name)
}

// printDiagnostics writes every diagnostic in bag to stderr, one per line,
// in Diagnostic.Error's "CODE: start:end: message" form (pkg/diag logs
// through logrus as diagnostics are added; this is the plain summary
// printed once a pipeline stage finishes).
func printDiagnostics(bag *diag.Bag) {
	for _, d := range bag.Items() {
		fmt.Fprintln(os.Stderr, d.Error())
	}
}
