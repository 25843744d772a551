package readme

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/sets"
)

type Prober interface {
	Probe(ctx context.Context, url string) (int, error)
}

// URLs returns every distinct link target and badge image in the document, sorted.
func (doc *Document) URLs() []string {
	urls := sets.NewString()
	for _, link := range doc.Links {
		urls.Insert(link.Href)
	}
	for _, badge := range doc.Badges {
		urls.Insert(badge.Src)
		if badge.Href != "" {
			urls.Insert(badge.Href)
		}
	}
	return urls.List()
}

// CheckLinks verifies that every URL in the document resolves.  Remote URLs must answer
// HTTP 200; relative URLs must name a file under root.  At most `concurrency` probes are in
// flight at once.
func CheckLinks(ctx context.Context, prober Prober, doc *Document, root string, concurrency int) error {
	var (
		mu   sync.Mutex
		errs derror.MultiError
	)
	addErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		grp.SetLimit(concurrency)
	}
	for _, target := range doc.URLs() {
		target := target
		u, err := url.Parse(target)
		if err != nil {
			addErr(fmt.Errorf("link %q: %w", target, err))
			continue
		}
		switch u.Scheme {
		case "http", "https":
			grp.Go(func() error {
				status, err := prober.Probe(grpCtx, target)
				switch {
				case err != nil:
					addErr(fmt.Errorf("link %q: %w", target, err))
				case status != http.StatusOK:
					addErr(fmt.Errorf("link %q: HTTP %d %s", target, status, http.StatusText(status)))
				default:
					dlog.Debugf(grpCtx, "link %q: OK", target)
				}
				return nil
			})
		case "mailto":
		case "":
			if u.Path == "" {
				// in-page anchor
				continue
			}
			if err := checkLocal(root, u.Path); err != nil {
				addErr(fmt.Errorf("link %q: %w", target, err))
			}
		default:
			addErr(fmt.Errorf("link %q: unsupported scheme %q", target, u.Scheme))
		}
	}
	_ = grp.Wait()

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return errs
	}
	return nil
}

func checkLocal(root, relpath string) error {
	// GitHub resolves "/foo" against the repository root.
	relpath = strings.TrimPrefix(relpath, "/")
	cleaned := filepath.Clean(filepath.FromSlash(relpath))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("points outside the repository")
	}
	_, err := os.Stat(filepath.Join(root, cleaned))
	return err
}
