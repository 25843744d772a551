// Copyright (C) 2020  Ambassador Labs (for Telepresence)
// Copyright (C) 2021  Ambassador Labs (for ocibuild)
//
// SPDX-License-Identifier: Apache-2.0
//
// Based on
// https://github.com/telepresenceio/telepresence/blob/b6dfa04ff014915b47386191cc3d8b1352522fea/pkg/client/cli/command_group.go#L35-L63

package cliutil

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

// GetTerminalWidth returns the width that help text should be wrapped to; 0 means "don't
// wrap".
func GetTerminalWidth() int {
	// $COLUMNS wins if the shell or the user sets it.
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil {
		return cols
	}

	// Size of stdout, not stdin: it's stdout that the help is written to.
	if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return cols
	}

	// A terminal that won't report its size gets the traditional 80.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return 80
	}

	// Not a terminal (a pipe, a file): don't wrap.
	return 0
}
