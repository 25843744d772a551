// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mufi-Lang/mufi-bucket/pkg/cliutil"
	"github.com/Mufi-Lang/mufi-bucket/pkg/hashes"
)

func init() {
	var flags struct {
		Tag         string
		Version     string
		Repo        string
		URLTemplate string
	}
	cmd := &cobra.Command{
		Use:   "hashes [flags] --tag=TAG >ARCHITECTURE.json",
		Short: "Hash the release assets of a pinned tag",
		Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		Long: "Download the Windows assets of one upstream release, named by tag rather " +
			"than \"latest\", and print the manifest's \"architecture\" object for them " +
			"on one line.  Nothing is written; paste the output in to the manifest by hand." +
			"\n\n" +
			"This is for releases that the update command can't see, such as a moving " +
			"pre-release tag.",

		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.Tag == "" {
				return cliutil.FlagErrorFunc(cmd, fmt.Errorf("--tag is required"))
			}
			tmpl := hashes.Template{
				URL:     flags.URLTemplate,
				Repo:    flags.Repo,
				Tag:     flags.Tag,
				Version: flags.Version,
			}
			if tmpl.Version == "" {
				tmpl.Version = strings.TrimLeft(flags.Tag, "v")
			}
			if tmpl.Repo == "" {
				tmpl.Repo = cfg.Upstream
			}
			if tmpl.URL == "" {
				tmpl.URL = cfg.URLTemplate
			}

			arch, err := hashes.Generate(cmd.Context(), downloadClient(), tmpl,
				cfg.Architectures, cfg.HashAlgorithm, cfg.Concurrency)
			if err != nil {
				return err
			}
			out, err := hashes.Dumps(arch)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
			return err
		},
	}
	cmd.Flags().StringVar(&flags.Tag, "tag", "",
		"Hash the assets of the release tagged `TAG`")
	cmd.Flags().StringVar(&flags.Version, "version", "",
		"The `VERSION` in the asset filenames (default TAG with any leading \"v\"s removed)")
	cmd.Flags().StringVar(&flags.Repo, "repo", "",
		"The upstream `OWNER/NAME` (default from the config file)")
	cmd.Flags().StringVar(&flags.URLTemplate, "url-template", "",
		"Asset URL `TEMPLATE`, with {repo}, {tag}, {version}, and {target} placeholders "+
			"(default \""+hashes.DefaultURLTemplate+"\")")

	argparser.AddCommand(cmd)
}
