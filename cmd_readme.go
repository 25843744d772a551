// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/Mufi-Lang/mufi-bucket/pkg/cliutil"
	"github.com/Mufi-Lang/mufi-bucket/pkg/readme"
)

func init() {
	var flags struct {
		Offline bool
	}
	cmd := &cobra.Command{
		Use:   "readme [flags] [README.md]",
		Short: "Check the README's commands, links, and badges",
		Args:  cliutil.WrapPositionalArgs(cobra.MaximumNArgs(1)),
		Long: "Check that the README's `scoop bucket add` and `scoop install` commands " +
			"are valid and install apps that the bucket has; that every hyperlink " +
			"resolves; and that every workflow badge points at a workflow file in this " +
			"repository." +
			"\n\n" +
			"The --offline flag skips the hyperlink check, which is the only check that " +
			"needs the network.",

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			filename := cfg.Path(cfg.Readme)
			if len(args) > 0 {
				filename = args[0]
			}
			markdown, err := os.ReadFile(filename)
			if err != nil {
				return err
			}
			doc, err := readme.Parse(markdown)
			if err != nil {
				return err
			}
			root := filepath.Dir(filename)
			dlog.Debugf(ctx, "%s: %d links, %d badges, %d command lines",
				filename, len(doc.Links), len(doc.Badges), len(doc.Commands))

			var errs derror.MultiError
			collect := func(what string, err error) {
				if err == nil {
					dlog.Infof(ctx, "%s: %s: ok", filename, what)
					return
				}
				if multi, ok := err.(derror.MultiError); ok { //nolint:errorlint // not wrapped
					errs = append(errs, multi...)
				} else {
					errs = append(errs, err)
				}
			}

			collect("commands", readme.CheckCommands(doc, readme.CommandRules{
				Bucket:  readme.DirBucket(cfg.Path(cfg.BucketDir)),
				RepoURL: cfg.BucketURL(),
			}))
			collect("badges", readme.CheckBadges(doc, cfg.Bucket, root))
			if flags.Offline {
				dlog.Infof(ctx, "%s: links: skipped (--offline)", filename)
			} else {
				collect("links", readme.CheckLinks(ctx, downloadClient(), doc, root, cfg.Concurrency))
			}

			if len(errs) > 0 {
				return errs
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.Offline, "offline", false,
		"Skip checking that hyperlinks resolve")

	argparser.AddCommand(cmd)
}
