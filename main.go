// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

// Command bucketctl maintains the MufiZ Scoop bucket: it keeps the app manifest in sync with
// upstream releases, and checks the manifests and the README.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Mufi-Lang/mufi-bucket/pkg/cliutil"
	"github.com/Mufi-Lang/mufi-bucket/pkg/config"
	"github.com/Mufi-Lang/mufi-bucket/pkg/download"
	"github.com/Mufi-Lang/mufi-bucket/pkg/github"
)

//nolint:gochecknoglobals // set by the persistent flags
var (
	globalFlags struct {
		ConfigFile string
		Verbose    bool
	}
	cfg    config.Config
	logger = logrus.New()
)

var argparser = &cobra.Command{
	Use:   "bucketctl {[flags]|SUBCOMMAND...}",
	Short: "Maintain the MufiZ Scoop bucket",
	Annotations: map[string]string{
		cliutil.AnnotationEnvironment: "" +
			"  GITHUB_TOKEN   Token for the GitHub API; raises the API rate limit\n" +
			"  COLUMNS        Width to wrap help text to",
	},

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,

	PersistentPreRunE: loadConfig,

	SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
	SilenceUsage:  true, // our FlagErrorFunc will handle it
}

func init() {
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)

	argparser.PersistentFlags().StringVar(&globalFlags.ConfigFile, "config", "",
		"Read settings from `FILE` (default \""+config.DefaultFilename+"\" if it exists)")
	argparser.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false,
		"Log at debug level")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if globalFlags.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	var err error
	cfg, err = config.Load(globalFlags.ConfigFile)
	if err != nil {
		return err
	}
	dlog.Debugf(cmd.Context(), "config: root=%q manifest=%q upstream=%q", cfg.Root, cfg.Manifest, cfg.Upstream)
	return nil
}

func githubClient() *github.Client {
	return &github.Client{
		BaseURL:   cfg.GitHubAPI,
		UserAgent: cfg.UserAgent,
		Token:     os.Getenv("GITHUB_TOKEN"),
	}
}

func downloadClient() *download.Client {
	return &download.Client{
		UserAgent: cfg.UserAgent,
	}
}

func main() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	logger.SetLevel(logrus.InfoLevel)
	ctx := dlog.WithLogger(context.Background(), dlog.WrapLogrus(logger))

	if code := execute(ctx); code != 0 {
		cliutil.Exit(code)
	}
}

// execute runs the command line and returns the process exit code.  Usage errors never get
// here; FlagErrorFunc exits with ExitUsage on its own.
func execute(ctx context.Context) int {
	if err := argparser.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(argparser.ErrOrStderr(), "%s: error: %v\n", argparser.CommandPath(), err)
		return cliutil.ExitFailure
	}
	return 0
}
