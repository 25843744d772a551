package readme

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/datawire/dlib/derror"
	"k8s.io/apimachinery/pkg/util/sets"
)

// workflowRef is a reference to a GitHub Actions workflow, parsed from a URL of the form
// https://github.com/OWNER/REPO/actions/workflows/FILE[/badge.svg].
type workflowRef struct {
	Repo string
	File string
}

func parseWorkflowURL(str string) (workflowRef, bool) {
	u, err := url.Parse(str)
	if err != nil || !strings.EqualFold(u.Host, "github.com") {
		return workflowRef{}, false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 5 || parts[2] != "actions" || parts[3] != "workflows" {
		return workflowRef{}, false
	}
	ref := workflowRef{
		Repo: parts[0] + "/" + parts[1],
		File: parts[4],
	}
	if len(parts) > 6 || (len(parts) == 6 && parts[5] != "badge.svg") {
		return workflowRef{}, false
	}
	return ref, true
}

// CheckBadges verifies that every GitHub Actions workflow that the document refers to, by
// badge image or by link, belongs to repo and exists under root/.github/workflows.
func CheckBadges(doc *Document, repo, root string) error {
	var errs derror.MultiError
	checked := sets.NewString()
	check := func(str string) {
		if checked.Has(str) {
			return
		}
		checked.Insert(str)
		ref, ok := parseWorkflowURL(str)
		if !ok {
			return
		}
		if !strings.EqualFold(ref.Repo, repo) {
			errs = append(errs, fmt.Errorf("workflow %q: belongs to %s, not %s", str, ref.Repo, repo))
			return
		}
		if _, err := os.Stat(filepath.Join(root, ".github", "workflows", ref.File)); err != nil {
			errs = append(errs, fmt.Errorf("workflow %q: %w", str, err))
		}
	}
	for _, badge := range doc.Badges {
		check(badge.Src)
		if badge.Href != "" {
			check(badge.Href)
		}
	}
	for _, link := range doc.Links {
		check(link.Href)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
