// Package gitutil runs the handful of git commands the excavator needs to commit an update.
package gitutil

import (
	"context"
	"os"
	"strings"

	"github.com/datawire/dlib/dexec"
)

func git(ctx context.Context, dir string, args ...string) *dexec.Cmd {
	cmd := dexec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr
	return cmd
}

// HasChanges reports whether any of paths differ from HEAD (including being untracked).
func HasChanges(ctx context.Context, dir string, paths ...string) (bool, error) {
	out, err := git(ctx, dir, append([]string{"status", "--porcelain", "--"}, paths...)...).Output()
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// Commit stages paths and commits them with message.
func Commit(ctx context.Context, dir, message string, paths ...string) error {
	if err := git(ctx, dir, append([]string{"add", "--"}, paths...)...).Run(); err != nil {
		return err
	}
	return git(ctx, dir, "commit", "--message="+message, "--").Run()
}

// CommitMessage is the excavator's commit message convention.
func CommitMessage(app, version string) string {
	return app + ": Update to version " + version
}
