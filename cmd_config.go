// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/Mufi-Lang/mufi-bucket/pkg/cliutil"
)

func init() {
	argparser.AddCommand(&cobra.Command{
		Use:   "config [flags] >.bucketctl.yaml",
		Short: "Print the effective configuration",
		Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		Long: "Print the configuration that the other commands use, as YAML: the " +
			"built-in defaults, overridden by the config file if there is one.  The " +
			"output is itself a valid config file.",

		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := cfg.Dump()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(bs)
			return err
		},
	})
}
