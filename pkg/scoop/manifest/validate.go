package manifest

import (
	"fmt"
	"net/url"

	"github.com/datawire/dlib/derror"

	"github.com/Mufi-Lang/mufi-bucket/pkg/scoop/hash"
)

// Validate checks the fields that Scoop needs in order to install the app.  All problems are
// reported, not just the first.  A missing hash is allowed (see Architecture.Unhashed), but an
// all-zero placeholder hash is not.
func (m *Manifest) Validate() error {
	var errs derror.MultiError

	var version string
	if ok, err := m.Get("version", &version); err != nil {
		errs = append(errs, err)
	} else if !ok || version == "" {
		errs = append(errs, fmt.Errorf("missing %q", "version"))
	}

	arch, err := m.Architecture()
	switch {
	case err != nil:
		errs = append(errs, err)
	case len(arch) == 0:
		// Architecture-independent manifests carry url/hash at the top level.
		var entry Entry
		if _, err := m.Get("url", &entry.URL); err != nil {
			errs = append(errs, err)
		}
		if _, err := m.Get("hash", &entry.Hash); err != nil {
			errs = append(errs, err)
		}
		errs = append(errs, validateEntry("", entry)...)
	default:
		for _, name := range arch.Names() {
			if !isKnownArch(name) {
				errs = append(errs, fmt.Errorf("architecture %q: unknown architecture (want one of %q)",
					name, KnownArchitectures))
			}
			errs = append(errs, validateEntry(name, arch[name])...)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateEntry(archName string, entry Entry) []error {
	prefix := ""
	if archName != "" {
		prefix = fmt.Sprintf("architecture %q: ", archName)
	}
	var errs []error
	if entry.URL == "" {
		errs = append(errs, fmt.Errorf("%smissing %q", prefix, "url"))
	} else if u, err := url.Parse(entry.URL); err != nil {
		errs = append(errs, fmt.Errorf("%surl: %w", prefix, err))
	} else if u.Scheme != "https" && u.Scheme != "http" {
		errs = append(errs, fmt.Errorf("%surl %q: scheme must be http or https", prefix, entry.URL))
	}
	if entry.Hash != "" {
		if sum, err := hash.Parse(entry.Hash); err != nil {
			errs = append(errs, fmt.Errorf("%s%w", prefix, err))
		} else if sum.IsZero() {
			errs = append(errs, fmt.Errorf("%shash %q: all-zero placeholder digest", prefix, entry.Hash))
		}
	}
	return errs
}
