// Copyright (C) 2021  Ambassador Labs
// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

package cliutil_test

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/Mufi-Lang/mufi-bucket/pkg/cliutil"
)

const updateLong = "Look up the latest release of the upstream repository.  " +
	"If it is newer than the manifest's version, hash each release asset and " +
	"rewrite the manifest's version and architecture fields."

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [flags]",
		Args:  cobra.NoArgs,
		Short: "Update the app manifest to the latest release",
		Long:  updateLong,
		RunE:  func(*cobra.Command, []string) error { return nil },
	}
	cmd.Flags().BoolP("dry-run", "n", false, "Print the updated fields instead of writing the manifest")
	cmd.Flags().Bool("commit", false, "Commit the manifest after writing it")
	return cmd
}

//nolint:paralleltest // can't use .Parallel() with .Setenv()
func TestHelpTemplate(t *testing.T) {
	type testcase struct {
		Columns      string
		InputCmd     *cobra.Command
		ExpectedHelp string
	}
	testcases := map[string]testcase{
		"wrapped": {
			Columns:  "80",
			InputCmd: newUpdateCmd(),
			ExpectedHelp: "" +
				// 0      1         2         3         4         5         6         7         8
				// 345678901234567890123456789012345678901234567890123456789012345678901234567890
				"Usage: update [flags]\n" +
				"Update the app manifest to the latest release\n" +
				"\n" +
				"Look up the latest release of the upstream repository.  If it is newer\n" +
				"than the manifest's version, hash each release asset and rewrite the\n" +
				"manifest's version and architecture fields.\n" +
				"\n" +
				"Flags:\n" +
				"      --commit    Commit the manifest after writing it\n" +
				"  -n, --dry-run   Print the updated fields instead of writing the manifest\n" +
				"",
		},
		"unwrapped": {
			Columns:  "0",
			InputCmd: newUpdateCmd(),
			ExpectedHelp: "" +
				"Usage: update [flags]\n" +
				"Update the app manifest to the latest release\n" +
				"\n" +
				updateLong + "\n" +
				"\n" +
				"Flags:\n" +
				"      --commit    Commit the manifest after writing it\n" +
				"  -n, --dry-run   Print the updated fields instead of writing the manifest\n" +
				"",
		},
		"subcommands": {
			Columns: "80",
			InputCmd: func() *cobra.Command {
				cmd := &cobra.Command{
					Use:   "bucketctl {[flags]|SUBCOMMAND...}",
					Short: "Maintain a Scoop bucket",
					Annotations: map[string]string{
						cliutil.AnnotationEnvironment: "" +
							"  GITHUB_TOKEN   Token for the GitHub API\n" +
							"  COLUMNS        Width to wrap help text to",
					},
					Args: cliutil.OnlySubcommands,
					RunE: cliutil.RunSubcommands,
				}
				cmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")
				cmd.AddCommand(&cobra.Command{
					Use:   "lint [flags] [MANIFEST...]",
					Short: "Check manifests for problems",
					RunE:  func(*cobra.Command, []string) error { return nil },
				})
				cmd.AddCommand(&cobra.Command{
					Use:   "readme [flags] [README.md]",
					Short: "Check the README's install commands and badges, and probe every hyperlink it contains",
					RunE:  func(*cobra.Command, []string) error { return nil },
				})
				return cmd
			}(),
			ExpectedHelp: "" +
				// 0      1         2         3         4         5         6         7         8
				// 345678901234567890123456789012345678901234567890123456789012345678901234567890
				"Usage: bucketctl {[flags]|SUBCOMMAND...}\n" +
				"Maintain a Scoop bucket\n" +
				"\n" +
				"Available Commands:\n" +
				"  lint          Check manifests for problems\n" +
				"  readme        Check the README's install commands and badges, and probe\n" +
				"                every hyperlink it contains\n" +
				"\n" +
				"Flags:\n" +
				"  -v, --verbose   Log at debug level\n" +
				"\n" +
				"Environment:\n" +
				"  GITHUB_TOKEN   Token for the GitHub API\n" +
				"  COLUMNS        Width to wrap help text to\n" +
				"\n" +
				"Use \"bucketctl [command] --help\" for more information about a command.\n" +
				"",
		},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Setenv("COLUMNS", tcData.Columns)
			tcData.InputCmd.SetHelpTemplate(cliutil.HelpTemplate)

			var out strings.Builder
			tcData.InputCmd.SetOutput(&out)
			tcData.InputCmd.HelpFunc()(tcData.InputCmd, []string{"--help"})

			assert.Equal(t, tcData.ExpectedHelp, out.String())
		})
	}
}
