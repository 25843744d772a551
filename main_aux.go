// Copyright (C) 2021  Ambassador Labs
// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

//go:build aux

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/Mufi-Lang/mufi-bucket/pkg/cliutil"
)

// genDocs returns a hidden command that regenerates a directory of documentation.
func genDocs(use, short string, gen func(root *cobra.Command, dir string) error) *cobra.Command {
	return &cobra.Command{
		Hidden: true,
		Use:    use,
		Short:  short,
		Args:   cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := os.RemoveAll(dir); err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o777); err != nil {
				return err
			}
			root := cmd.Root()
			root.DisableAutoGenTag = true
			return gen(root, dir)
		},
	}
}

func init() {
	// completion
	argparser.CompletionOptions.DisableDefaultCmd = false
	next := argparser.PersistentPreRunE
	argparser.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if completionCmd, _, err := cmd.Root().Find([]string{"completion"}); err == nil {
			completionCmd.Hidden = true
		}
		return next(cmd, args)
	}

	argparser.AddCommand(
		genDocs("man OUT_DIRECTORY", "Generate man pages",
			func(root *cobra.Command, dir string) error {
				return doc.GenManTree(root, &doc.GenManHeader{
					Source: "Mufi-Lang",
					Manual: root.Name(),
				}, dir)
			}),
		genDocs("mddoc OUT_DIRECTORY", "Generate markdown documentation",
			doc.GenMarkdownTree),
	)
}
