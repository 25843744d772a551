// Copyright (C) 2020  Ambassador Labs (for Telepresence)
// Copyright (C) 2021-2022  Ambassador Labs (for ocibuild)
// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0
//
// Based on
// https://github.com/telepresenceio/telepresence/blob/3b63073ceafae6b548c664a83f7ac90497eab2ae/pkg/client/cli/command.go

package cliutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitFailure = 1 // the command ran, and failed
	ExitUsage   = 2 // the command was invoked incorrectly
)

// Exit is os.Exit; tests replace it.
//
//nolint:gochecknoglobals // for testing
var Exit = os.Exit

// OnlySubcommands is a cobra.PositionalArgs that is similar to cobra.NoArgs, but suggests the
// nearest subcommand names.
func OnlySubcommands(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	err := fmt.Errorf("invalid subcommand %q", args[0])
	if cmd.SuggestionsMinimumDistance <= 0 {
		cmd.SuggestionsMinimumDistance = 2
	}
	if suggestions := cmd.SuggestionsFor(args[0]); len(suggestions) > 0 {
		err = fmt.Errorf("%w\nDid you mean one of these?\n\t%s", err, strings.Join(suggestions, "\n\t"))
	}
	return FlagErrorFunc(cmd, err)
}

// WrapPositionalArgs routes a cobra.PositionalArgs' errors through FlagErrorFunc, so that bad
// positional arguments are reported the same way as bad flags.
func WrapPositionalArgs(inner cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return FlagErrorFunc(cmd, inner(cmd, args))
	}
}

// RunSubcommands is the RunE for a command that only groups subcommands.  It must be set even
// though there is nothing to run: without a RunE, cobra treats a typo'd subcommand as success.
func RunSubcommands(cmd *cobra.Command, args []string) error {
	cmd.SetOut(cmd.ErrOrStderr())
	cmd.HelpFunc()(cmd, args)
	Exit(ExitUsage)
	return nil
}

// FlagErrorFunc is for (*cobra.Command).SetFlagErrorFunc; it reports usage errors GNU-style and
// exits with ExitUsage.  It does not return (unless Exit has been replaced), so every error
// that comes out of (*cobra.Command).Execute is an execution error.
func FlagErrorFunc(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}

	// A multi-line message gets a blank line before the "See --help" line.
	errStr := strings.TrimRight(err.Error(), "\n")
	if strings.Contains(errStr, "\n") {
		errStr += "\n"
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\nSee '%s --help' for more information.\n",
		cmd.CommandPath(), errStr, cmd.CommandPath())
	Exit(ExitUsage)
	return err
}
