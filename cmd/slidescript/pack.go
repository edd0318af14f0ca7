/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slidescript/internal/presentation"
	"slidescript/internal/stylepack"
)

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Share styles, effects and templates between presentations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "export <manifest> <zip>",
			Short: "Write the style, effect and template files of a presentation to a zip",
			Args:  usageArgs(cobra.ExactArgs(2)),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := presentation.Open(args[0])
				if err != nil {
					return err
				}
				if err := stylepack.Export(p, args[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "pack written to", args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "install <manifest> <zip>",
			Short: "Add the files of a pack to a presentation",
			Args:  usageArgs(cobra.ExactArgs(2)),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := presentation.Open(args[0])
				if err != nil {
					return err
				}
				n, err := stylepack.Install(p, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d files installed into %s\n", n, p.Root)
				return nil
			},
		},
	)
	return cmd
}
