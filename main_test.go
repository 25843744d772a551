// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datawire/dlib/dexec"
	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mufi-Lang/mufi-bucket/pkg/cliutil"
	"github.com/Mufi-Lang/mufi-bucket/pkg/scoop/manifest"
	"github.com/Mufi-Lang/mufi-bucket/pkg/testutil"
)

// resetFlags puts every flag back to its default.  cobra keeps flag values (and their
// Changed bits) between calls to Execute, which would leak one test's flags in to the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		if flag.Changed {
			_ = flag.Value.Set(flag.DefValue)
			flag.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

type result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runMain executes bucketctl in-process the way main() does, and reports the exit code that
// the process would have had.  The argparser is global, so these tests can't be parallel.
func runMain(t *testing.T, args ...string) result {
	t.Helper()
	ctx := dlog.NewTestContext(t, false)

	exitCode := -1
	origExit := cliutil.Exit
	cliutil.Exit = func(code int) {
		if exitCode < 0 {
			exitCode = code
		}
	}
	defer func() { cliutil.Exit = origExit }()

	resetFlags(argparser)
	var stdout, stderr strings.Builder
	argparser.SetArgs(args)
	argparser.SetOut(&stdout)
	argparser.SetErr(&stderr)
	defer func() {
		argparser.SetOut(nil)
		argparser.SetErr(nil)
	}()

	code := execute(ctx)
	if exitCode >= 0 {
		code = exitCode
	}
	return result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: code}
}

// run is runMain with no config file, returning an error if the command failed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	res := runMain(t, append([]string{"--config="}, args...)...)
	if res.ExitCode != 0 {
		return res.Stdout, fmt.Errorf("exit %d: %s", res.ExitCode, res.Stderr)
	}
	return res.Stdout, nil
}

// The tests run in the repository root, so these check the real README and bucket.

//nolint:paralleltest // global argparser
func TestRepoReadme(t *testing.T) {
	_, err := run(t, "readme", "--offline")
	assert.NoError(t, err)
}

//nolint:paralleltest // global argparser
func TestRepoManifests(t *testing.T) {
	_, err := run(t, "lint")
	assert.NoError(t, err)
}

//nolint:paralleltest // global argparser
func TestLint(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{
    "version": "",
    "architecture": {
        "64bit": {"url": "ftp://example.com/a.zip", "hash": "abc"},
        "arm64": {"url": "https://example.com/b.zip", "hash": "0000000000000000000000000000000000000000000000000000000000000000"}
    }
}`), 0o644))

	_, err := run(t, "lint", bad)
	require.Error(t, err)
	assert.ErrorContains(t, err, "bucketctl: error: ")
	assert.ErrorContains(t, err, bad+": ")
	assert.ErrorContains(t, err, `missing "version"`)
	assert.ErrorContains(t, err, "all-zero placeholder digest")
}

//nolint:paralleltest // global argparser
func TestConfigRoundTrip(t *testing.T) {
	first, err := run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, first, "upstream: Mufi-Lang/MufiZ\n")

	filename := filepath.Join(t.TempDir(), ".bucketctl.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(first), 0o644))

	second, err := run(t, "config", "--config="+filename)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

const bucketManifest = `{
    "version": "0.9.0",
    "description": "The Mufi Programming Language",
    "homepage": "https://github.com/Mufi-Lang/MufiZ",
    "architecture": {
        "64bit": {
            "url": "https://example.com/mufiz_0.9.0_x86_64-windows.zip",
            "hash": "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
        }
    },
    "bin": "mufiz.exe"
}
`

func contentHash(path string) string {
	sum := sha256.Sum256([]byte("content of " + path))
	return hex.EncodeToString(sum[:])
}

// bucket is a scratch bucket whose config points at fake GitHub API and download servers.
type bucket struct {
	Dir      string
	Config   string
	Manifest string
	Assets   *httptest.Server
}

// newBucket sets up a bucket whose upstream's latest release is tag, with one asset per name.
// Asset paths listed in broken return 404.
func newBucket(t *testing.T, tag string, names []string, broken ...string) *bucket {
	t.Helper()
	b := &bucket{Dir: t.TempDir()}

	b.Assets = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, name := range broken {
			if r.URL.Path == "/"+tag+"/"+name {
				http.NotFound(w, r)
				return
			}
		}
		_, _ = w.Write([]byte("content of " + r.URL.Path))
	}))
	t.Cleanup(b.Assets.Close)

	type asset struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	}
	release := struct {
		TagName string  `json:"tag_name"`
		Assets  []asset `json:"assets"`
	}{TagName: tag}
	for _, name := range names {
		release.Assets = append(release.Assets, asset{
			Name:               name,
			BrowserDownloadURL: b.Assets.URL + "/" + tag + "/" + name,
		})
	}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/Mufi-Lang/MufiZ/releases/latest" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Not Found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(release)
	}))
	t.Cleanup(api.Close)

	require.NoError(t, os.MkdirAll(filepath.Join(b.Dir, "bucket"), 0o755))
	b.Manifest = filepath.Join(b.Dir, "bucket", "MufiZ.json")
	require.NoError(t, os.WriteFile(b.Manifest, []byte(bucketManifest), 0o644))

	b.Config = filepath.Join(b.Dir, ".bucketctl.yaml")
	require.NoError(t, os.WriteFile(b.Config, []byte(""+
		"upstream: Mufi-Lang/MufiZ\n"+
		"manifest: bucket/MufiZ.json\n"+
		"githubAPI: "+api.URL+"\n"+
		"urlTemplate: "+b.Assets.URL+"/{tag}/mufiz_{version}_{target}.zip\n"+
		"concurrency: 1\n"), 0o644))
	return b
}

func (b *bucket) run(t *testing.T, args ...string) result {
	t.Helper()
	return runMain(t, append([]string{"--config=" + b.Config}, args...)...)
}

func (b *bucket) assertUnchanged(t *testing.T) {
	t.Helper()
	bs, err := os.ReadFile(b.Manifest)
	require.NoError(t, err)
	testutil.AssertEqualText(t, bucketManifest, string(bs))
}

func (b *bucket) architecture(t *testing.T) manifest.Architecture {
	t.Helper()
	m, err := manifest.Load(b.Manifest)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	arch, err := m.Architecture()
	require.NoError(t, err)
	return arch
}

var windowsAssets = []string{
	"mufiz_0.10.0_x86_64-windows.zip",
	"mufiz_0.10.0_x86-windows-gnu.zip",
	"mufiz_0.10.0_aarch64-windows.zip",
	"mufiz_0.10.0_x86_64-linux.zip",
}

//nolint:paralleltest // global argparser
func TestUpdate(t *testing.T) {
	b := newBucket(t, "v0.10.0", windowsAssets)

	res := b.run(t, "update")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	arch := b.architecture(t)
	assert.Equal(t, []string{"64bit", "32bit", "arm64"}, arch.Names())
	assert.Equal(t, contentHash("/v0.10.0/mufiz_0.10.0_aarch64-windows.zip"), arch["arm64"].Hash)

	m, err := manifest.Load(b.Manifest)
	require.NoError(t, err)
	assert.Equal(t, "0.10.0", m.Version())
}

//nolint:paralleltest // global argparser
func TestUpdateFillsMissingHashes(t *testing.T) {
	b := newBucket(t, "v0.10.0", windowsAssets)
	// The shape of the manifest as first committed: already at the latest version, but never
	// hashed.
	require.NoError(t, os.WriteFile(b.Manifest, []byte(`{
    "version": "0.10.0",
    "architecture": {
        "64bit": {"url": "https://example.com/mufiz_0.10.0_x86_64-windows.zip"},
        "arm64": {"url": "https://example.com/mufiz_0.10.0_aarch64-windows.zip"}
    }
}
`), 0o644))
	res := b.run(t, "lint", b.Manifest)
	require.Equal(t, 0, res.ExitCode, res.Stderr)

	res = b.run(t, "update")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	arch := b.architecture(t)
	assert.Empty(t, arch.Unhashed())
	assert.Equal(t, contentHash("/v0.10.0/mufiz_0.10.0_x86_64-windows.zip"), arch["64bit"].Hash)
}

//nolint:paralleltest // global argparser
func TestUpdateDryRun(t *testing.T) {
	b := newBucket(t, "v0.10.0", windowsAssets[:1])

	res := b.run(t, "update", "-n")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	b.assertUnchanged(t)
	testutil.AssertEqualText(t, `{
  "version": "0.10.0",
  "architecture": {
    "64bit": {
      "url": "`+b.Assets.URL+`/v0.10.0/mufiz_0.10.0_x86_64-windows.zip",
      "hash": "`+contentHash("/v0.10.0/mufiz_0.10.0_x86_64-windows.zip")+`"
    }
  }
}
`, res.Stdout)

	// The flag must not leak in to the next invocation.
	res = b.run(t, "update")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	assert.Empty(t, res.Stdout)
	assert.Len(t, b.architecture(t), 1)
}

//nolint:paralleltest // global argparser
func TestUpdateDryRunAndCommit(t *testing.T) {
	b := newBucket(t, "v0.10.0", windowsAssets)

	res := b.run(t, "update", "--dry-run", "--commit")
	assert.Equal(t, cliutil.ExitUsage, res.ExitCode)
	assert.Contains(t, res.Stderr, "--dry-run and --commit are mutually exclusive\n")
	assert.Contains(t, res.Stderr, "See 'bucketctl update --help' for more information.\n")
	b.assertUnchanged(t)
}

//nolint:paralleltest // global argparser
func TestUpdateArchOverride(t *testing.T) {
	b := newBucket(t, "v0.10.0", windowsAssets)

	res := b.run(t, "update", "--arch=x86_64-linux=64bit")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	arch := b.architecture(t)
	assert.Equal(t, []string{"64bit"}, arch.Names())
	assert.Equal(t, b.Assets.URL+"/v0.10.0/mufiz_0.10.0_x86_64-linux.zip", arch["64bit"].URL)
	assert.Equal(t, contentHash("/v0.10.0/mufiz_0.10.0_x86_64-linux.zip"), arch["64bit"].Hash)
}

//nolint:paralleltest // global argparser
func TestUpdateFailure(t *testing.T) {
	b := newBucket(t, "v0.10.0", windowsAssets, "mufiz_0.10.0_aarch64-windows.zip")

	res := b.run(t, "update")
	assert.Equal(t, cliutil.ExitFailure, res.ExitCode)
	assert.True(t, strings.HasPrefix(res.Stderr, "bucketctl: error: "), res.Stderr)
	assert.Contains(t, res.Stderr, "arm64")
	assert.Contains(t, res.Stderr, "404")
	b.assertUnchanged(t)
}

//nolint:paralleltest // global argparser
func TestUpdateCommit(t *testing.T) {
	if _, err := dexec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	b := newBucket(t, "v0.10.0", windowsAssets)
	ctx := dlog.NewTestContext(t, false)
	git := func(args ...string) string {
		t.Helper()
		cmd := dexec.CommandContext(ctx, "git", args...)
		cmd.Dir = b.Dir
		out, err := cmd.Output()
		require.NoError(t, err)
		return strings.TrimSpace(string(out))
	}
	git("init", "--quiet")
	git("config", "user.name", "Test")
	git("config", "user.email", "test@example.com")
	git("config", "commit.gpgsign", "false")
	git("add", "--", ".")
	git("commit", "--quiet", "--message=initial")

	res := b.run(t, "update", "--commit")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	assert.Equal(t, "mufiz: Update to version 0.10.0", git("log", "-1", "--format=%s"))
	assert.Equal(t, "", git("status", "--porcelain"))

	// Rewritten with identical content: nothing to commit.
	res = b.run(t, "update", "--commit", "--force")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	assert.Equal(t, "2", git("rev-list", "--count", "HEAD"))

	// Already up to date: nothing is written at all.
	res = b.run(t, "update", "--commit")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	assert.Equal(t, "2", git("rev-list", "--count", "HEAD"))
}

//nolint:paralleltest // global argparser
func TestHashes(t *testing.T) {
	b := newBucket(t, "v0.10.0", nil)

	res := b.run(t, "hashes", "--tag=v0.10.0")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	base := b.Assets.URL + "/v0.10.0/mufiz_0.10.0_"
	assert.Equal(t, `{"64bit": {"url": "`+base+`x86_64-windows.zip", "hash": "`+contentHash("/v0.10.0/mufiz_0.10.0_x86_64-windows.zip")+`"}, `+
		`"32bit": {"url": "`+base+`x86-windows-gnu.zip", "hash": "`+contentHash("/v0.10.0/mufiz_0.10.0_x86-windows-gnu.zip")+`"}, `+
		`"arm64": {"url": "`+base+`aarch64-windows.zip", "hash": "`+contentHash("/v0.10.0/mufiz_0.10.0_aarch64-windows.zip")+`"}}`+"\n",
		res.Stdout)

	res = b.run(t, "hashes", "--tag=next-experimental", "--version=0.10.0")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	assert.Contains(t, res.Stdout, `"`+b.Assets.URL+`/next-experimental/mufiz_0.10.0_x86_64-windows.zip"`)

	// --version from the previous run must not stick.
	res = b.run(t, "hashes", "--tag=vv2.0")
	require.Equal(t, 0, res.ExitCode, res.Stderr)
	assert.Contains(t, res.Stdout, `"`+b.Assets.URL+`/vv2.0/mufiz_2.0_x86_64-windows.zip"`)
	b.assertUnchanged(t)
}

//nolint:paralleltest // global argparser
func TestHashesRequiresTag(t *testing.T) {
	b := newBucket(t, "v0.10.0", nil)

	res := b.run(t, "hashes")
	assert.Equal(t, cliutil.ExitUsage, res.ExitCode)
	assert.Contains(t, res.Stderr, "bucketctl hashes: --tag is required\n")
	assert.Empty(t, res.Stdout)
}
