// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/Mufi-Lang/mufi-bucket/pkg/cliutil"
	"github.com/Mufi-Lang/mufi-bucket/pkg/scoop/manifest"
)

func init() {
	cmd := &cobra.Command{
		Use:   "lint [flags] [MANIFEST.json...]",
		Short: "Check app manifests for problems",
		Args:  cliutil.WrapPositionalArgs(cobra.ArbitraryArgs),
		Long: "Check that each manifest parses, has a version, and has a well-formed URL " +
			"for each architecture.  A hash that is present must be well-formed and not " +
			"an all-zero placeholder; a missing hash is only a warning, since Scoop " +
			"installs without one, and the next update fills it in.  With no arguments, " +
			"every *.json file in the bucket directory is checked.",

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			filenames := args
			if len(filenames) == 0 {
				var err error
				filenames, err = filepath.Glob(filepath.Join(cfg.Path(cfg.BucketDir), "*.json"))
				if err != nil {
					return err
				}
				if len(filenames) == 0 {
					return fmt.Errorf("no manifests found in %s", cfg.Path(cfg.BucketDir))
				}
			}

			var errs derror.MultiError
			for _, filename := range filenames {
				m, err := manifest.Load(filename)
				if err == nil {
					err = m.Validate()
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", filename, err))
					continue
				}
				if arch, err := m.Architecture(); err == nil {
					if unhashed := arch.Unhashed(); len(unhashed) > 0 {
						dlog.Warnf(ctx, "%s: no hash for %s; run the update command to fill it in",
							filename, strings.Join(unhashed, ", "))
					}
				}
				dlog.Infof(ctx, "%s: ok (version %s)", filename, m.Version())
			}
			if len(errs) > 0 {
				return errs
			}
			return nil
		},
	}

	argparser.AddCommand(cmd)
}
