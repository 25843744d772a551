// Package hashes computes the "architecture" block for a pinned release, for manifests whose
// version is not tracked by the automatic updater (pre-releases and experimental tags).
package hashes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/datawire/dlib/dlog"
	"golang.org/x/sync/errgroup"

	"github.com/Mufi-Lang/mufi-bucket/pkg/archmap"
	"github.com/Mufi-Lang/mufi-bucket/pkg/scoop/hash"
	"github.com/Mufi-Lang/mufi-bucket/pkg/scoop/manifest"
)

const DefaultURLTemplate = "https://github.com/{repo}/releases/download/{tag}/mufiz_{version}_{target}.zip"

type Hasher interface {
	Hash(ctx context.Context, url, algo string) (hash.Hash, int64, error)
}

// Template describes where a release's assets live.  URL may use the placeholders {repo},
// {tag}, {version}, and {target}; {target} is replaced by each mapping's fragment.
type Template struct {
	URL     string
	Repo    string
	Tag     string
	Version string
}

func (t Template) Expand(target string) string {
	return strings.NewReplacer(
		"{repo}", t.Repo,
		"{tag}", t.Tag,
		"{version}", t.Version,
		"{target}", target,
	).Replace(t.URL)
}

// Generate downloads the asset for every mapping and returns the resulting architecture
// block.  When several mappings name the same architecture, the first one in mapping order is
// used and the rest are never fetched.  At most concurrency downloads run at once; zero means
// no limit.
func Generate(ctx context.Context, hasher Hasher, tmpl Template, mappings archmap.Mappings, algo string, concurrency int) (manifest.Architecture, error) {
	if tmpl.URL == "" {
		tmpl.URL = DefaultURLTemplate
	}
	if tmpl.Tag == "" || tmpl.Version == "" {
		return nil, fmt.Errorf("both a tag and a version are required")
	}
	if len(mappings) == 0 {
		mappings = archmap.Default
	}

	urls := make(map[string]string, len(mappings))
	var order []string
	for _, m := range mappings {
		if _, dup := urls[m.Arch]; dup {
			dlog.Debugf(ctx, "%s: ignoring %q, already mapped", m.Arch, m.Fragment)
			continue
		}
		urls[m.Arch] = tmpl.Expand(m.Fragment)
		order = append(order, m.Arch)
	}

	arch := make(manifest.Architecture, len(order))
	var mu sync.Mutex
	grp, grpCtx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		grp.SetLimit(concurrency)
	}
	for _, archName := range order {
		archName, url := archName, urls[archName]
		grp.Go(func() error {
			sum, _, err := hasher.Hash(grpCtx, url, algo)
			if err != nil {
				return fmt.Errorf("%s: %w", archName, err)
			}
			dlog.Debugf(grpCtx, "%s: %s", archName, sum)
			mu.Lock()
			defer mu.Unlock()
			arch[archName] = manifest.Entry{URL: url, Hash: sum.String()}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return arch, nil
}
