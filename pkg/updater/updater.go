// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

// Package updater brings a bucket manifest up to date with the latest upstream release.
package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/datawire/dlib/dlog"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"

	"github.com/Mufi-Lang/mufi-bucket/pkg/archmap"
	"github.com/Mufi-Lang/mufi-bucket/pkg/github"
	"github.com/Mufi-Lang/mufi-bucket/pkg/scoop/hash"
	"github.com/Mufi-Lang/mufi-bucket/pkg/scoop/manifest"
)

type ReleaseSource interface {
	LatestRelease(ctx context.Context, repo string) (*github.Release, error)
}

type Hasher interface {
	Hash(ctx context.Context, url, algo string) (hash.Hash, int64, error)
}

var ErrDowngrade = errors.New("refusing to downgrade")

type Updater struct {
	Releases     ReleaseSource
	Downloader   Hasher
	Repo         string
	ManifestPath string
	Mappings     archmap.Mappings
	// HashAlgorithm defaults to sha256.
	HashAlgorithm  string
	DryRun         bool
	AllowDowngrade bool
	// Force re-downloads and re-hashes even if the manifest is already at the latest version.
	Force bool
	// Out receives the dry-run preview.
	Out io.Writer
	// Concurrency bounds the number of simultaneous downloads; 0 means one per architecture.
	Concurrency int
}

type Result struct {
	PreviousVersion string
	Version         string
	Architecture    manifest.Architecture
	UpToDate        bool
	Written         bool
}

// Update fetches the latest release, and if it is newer than the manifest, downloads and
// hashes each architecture's asset and rewrites the manifest.  A manifest that is already at
// the latest version is still re-hashed if any architecture lacks a usable hash, or if Force
// is set.  Any download failure aborts the update without touching the manifest.
func (u *Updater) Update(ctx context.Context) (*Result, error) {
	mappings := u.Mappings
	if len(mappings) == 0 {
		mappings = archmap.Default
	}

	dlog.Infof(ctx, "Fetching latest release information for %s...", u.Repo)
	release, err := u.Releases.LatestRelease(ctx, u.Repo)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	version := release.Version()
	dlog.Infof(ctx, "Latest version: %s", version)

	m, err := manifest.Load(u.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	result := &Result{
		PreviousVersion: m.Version(),
		Version:         version,
	}
	dlog.Infof(ctx, "Current version: %s", displayVersion(result.PreviousVersion))

	if version == result.PreviousVersion {
		arch, err := m.Architecture()
		unhashed := arch.Unhashed()
		switch {
		case u.Force:
			dlog.Infof(ctx, "Manifest is already at version %s; re-hashing anyway", version)
		case err != nil:
			dlog.Warnf(ctx, "Manifest is already at version %s, but its architectures can't be read (%v); re-hashing", version, err)
		case len(arch) == 0:
			dlog.Warnf(ctx, "Manifest is already at version %s, but has no architectures; hashing", version)
		case len(unhashed) > 0:
			dlog.Warnf(ctx, "Manifest is already at version %s, but %s lack a usable hash; re-hashing",
				version, strings.Join(unhashed, ", "))
		default:
			dlog.Infof(ctx, "Manifest is already up to date!")
			result.UpToDate = true
			return result, nil
		}
	}
	if isOlder(version, result.PreviousVersion) && !u.AllowDowngrade {
		return nil, fmt.Errorf("%w: latest release %s is older than manifest version %s",
			ErrDowngrade, version, result.PreviousVersion)
	}
	dlog.Infof(ctx, "Updating from version %s to %s", displayVersion(result.PreviousVersion), version)

	urls := mappings.FindAssets(release.Assets)
	if len(urls) == 0 {
		return nil, fmt.Errorf("release %s has no assets matching %v", release.TagName, mappings)
	}
	if missing := mappings.Missing(urls); len(missing) > 0 {
		dlog.Warnf(ctx, "Expected %d assets, found %d (found: %s; missing: %s)",
			len(mappings.Archs()), len(urls), strings.Join(sortedKeys(urls), ", "),
			strings.Join(missing, ", "))
	}

	arch, err := u.hashAssets(ctx, urls)
	if err != nil {
		return nil, err
	}
	result.Architecture = arch

	if err := m.SetVersion(version); err != nil {
		return nil, err
	}
	if err := m.SetArchitecture(arch); err != nil {
		return nil, err
	}

	if u.DryRun {
		dlog.Infof(ctx, "DRY RUN: not writing %s", u.ManifestPath)
		if err := u.preview(version, arch); err != nil {
			return nil, err
		}
		return result, nil
	}

	dlog.Infof(ctx, "Saving updated manifest...")
	if err := m.Save(u.ManifestPath); err != nil {
		return nil, fmt.Errorf("save manifest: %w", err)
	}
	result.Written = true
	dlog.Infof(ctx, "Updated %s to version %s", u.ManifestPath, version)
	return result, nil
}

func (u *Updater) hashAssets(ctx context.Context, urls map[string]string) (manifest.Architecture, error) {
	arch := make(manifest.Architecture, len(urls))
	var mu sync.Mutex

	grp, grpCtx := errgroup.WithContext(ctx)
	if u.Concurrency > 0 {
		grp.SetLimit(u.Concurrency)
	}
	for _, archName := range sortedKeys(urls) {
		archName, url := archName, urls[archName]
		grp.Go(func() error {
			dlog.Infof(grpCtx, "Processing %s architecture...", archName)
			sum, size, err := u.Downloader.Hash(grpCtx, url, u.HashAlgorithm)
			if err != nil {
				dlog.Errorf(grpCtx, "  x Failed to process %s", archName)
				return fmt.Errorf("%s: %w", archName, err)
			}
			dlog.Infof(grpCtx, "  %s: %s (%d bytes)", archName, sum, size)
			mu.Lock()
			arch[archName] = manifest.Entry{URL: url, Hash: sum.String()}
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return arch, nil
}

func (u *Updater) preview(version string, arch manifest.Architecture) error {
	if u.Out == nil {
		return nil
	}
	encoder := json.NewEncoder(u.Out)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Version      string                `json:"version"`
		Architecture manifest.Architecture `json:"architecture"`
	}{version, arch})
}

// isOlder reports whether a is a lower version than b.  Versions that aren't semver-ish are
// never considered older, so that odd upstream tags still go through.
func isOlder(a, b string) bool {
	a, b = "v"+a, "v"+b
	if !semver.IsValid(a) || !semver.IsValid(b) {
		return false
	}
	return semver.Compare(a, b) < 0
}

func displayVersion(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
