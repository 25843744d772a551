// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/Mufi-Lang/mufi-bucket/pkg/archmap"
	"github.com/Mufi-Lang/mufi-bucket/pkg/cliutil"
	"github.com/Mufi-Lang/mufi-bucket/pkg/gitutil"
	"github.com/Mufi-Lang/mufi-bucket/pkg/updater"
)

func init() {
	var flags struct {
		DryRun         bool
		AllowDowngrade bool
		Force          bool
		Commit         bool
		Arch           archmap.Mappings
	}
	cmd := &cobra.Command{
		Use:   "update [flags]",
		Short: "Update the app manifest to the latest upstream release",
		Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		Long: "Look up the latest release of the upstream repository.  If its version " +
			"differs from the manifest's, download each Windows release asset, hash it, " +
			"and rewrite the manifest's \"version\" and \"architecture\" fields.  Other " +
			"fields are left as they are.  If the versions match but an architecture has " +
			"no hash (or an all-zero one), the assets are hashed anyway; --force does that " +
			"unconditionally." +
			"\n\n" +
			"Release assets are matched to Scoop architectures by name; see --arch.  " +
			"If any download fails, the manifest is not modified." +
			"\n\n" +
			"This is what the excavator workflow runs, with --commit.",

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if flags.DryRun && flags.Commit {
				return cliutil.FlagErrorFunc(cmd, fmt.Errorf("--dry-run and --commit are mutually exclusive"))
			}

			manifestPath := cfg.Path(cfg.Manifest)
			if _, err := os.Stat(manifestPath); err != nil {
				return fmt.Errorf("manifest: %w", err)
			}
			mappings := cfg.Architectures
			if cmd.Flags().Changed("arch") && len(flags.Arch) > 0 {
				mappings = flags.Arch
			}

			u := &updater.Updater{
				Releases:       githubClient(),
				Downloader:     downloadClient(),
				Repo:           cfg.Upstream,
				ManifestPath:   manifestPath,
				Mappings:       mappings,
				HashAlgorithm:  cfg.HashAlgorithm,
				DryRun:         flags.DryRun,
				AllowDowngrade: flags.AllowDowngrade,
				Force:          flags.Force,
				Out:            cmd.OutOrStdout(),
				Concurrency:    cfg.Concurrency,
			}
			result, err := u.Update(ctx)
			if err != nil {
				return err
			}
			if !result.Written || !flags.Commit {
				return nil
			}

			// git runs in cfg.Root, so give it the path relative to that.
			dirty, err := gitutil.HasChanges(ctx, cfg.Root, cfg.Manifest)
			if err != nil {
				return err
			}
			if !dirty {
				dlog.Infof(ctx, "%s: no changes to commit", cfg.Manifest)
				return nil
			}
			msg := gitutil.CommitMessage(cfg.App, result.Version)
			dlog.Infof(ctx, "Committing: %s", msg)
			return gitutil.Commit(ctx, cfg.Root, msg, cfg.Manifest)
		},
	}
	cmd.Flags().BoolVarP(&flags.DryRun, "dry-run", "n", false,
		"Print the new \"version\" and \"architecture\" fields instead of writing the manifest")
	cmd.Flags().BoolVar(&flags.AllowDowngrade, "allow-downgrade", false,
		"Update even if the latest release's version is older than the manifest's")
	cmd.Flags().BoolVar(&flags.Force, "force", false,
		"Re-download and re-hash even if the manifest is already at the latest version")
	cmd.Flags().BoolVar(&flags.Commit, "commit", false,
		"Commit the manifest with git after writing it")
	cmd.Flags().Var(archmap.NewFlag(&flags.Arch), "arch",
		"Use the .zip asset whose name contains FRAGMENT for Scoop architecture ARCH, given "+
			"as `FRAGMENT=ARCH`; may be repeated (default from the config file, or "+
			archmap.Default.String()+")")

	argparser.AddCommand(cmd)
}
