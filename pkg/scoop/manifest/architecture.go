package manifest

import (
	"bytes"
	"sort"

	"github.com/Mufi-Lang/mufi-bucket/pkg/scoop/hash"
)

// Scoop architecture names.
const (
	Arch64  = "64bit"
	Arch32  = "32bit"
	ArchARM = "arm64"
)

// KnownArchitectures lists the architectures Scoop understands, in the order manifests
// conventionally list them.
//
//nolint:gochecknoglobals // Would be 'const'.
var KnownArchitectures = []string{Arch64, Arch32, ArchARM}

// Entry is one architecture's download.  Scoop installs an entry without a hash (after a
// warning), so Hash may be empty.
type Entry struct {
	URL  string `json:"url"`
	Hash string `json:"hash,omitempty"`
}

// Hashed reports whether the entry carries a well-formed, non-placeholder hash.
func (e Entry) Hashed() bool {
	sum, err := hash.Parse(e.Hash)
	return err == nil && !sum.IsZero()
}

// Architecture maps a Scoop architecture name to its download.
type Architecture map[string]Entry

// Names returns the architecture names in canonical order: known architectures first, then
// anything else sorted.
func (a Architecture) Names() []string {
	names := make([]string, 0, len(a))
	for _, name := range KnownArchitectures {
		if _, ok := a[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range a {
		if !isKnownArch(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Unhashed returns the names, in Names() order, of the entries that need to be (re-)hashed.
func (a Architecture) Unhashed() []string {
	var names []string
	for _, name := range a.Names() {
		if !a[name].Hashed() {
			names = append(names, name)
		}
	}
	return names
}

// MarshalJSON writes the entries in Names() order rather than Go's sorted map order.
func (a Architecture) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range a.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := marshal(a[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isKnownArch(name string) bool {
	for _, known := range KnownArchitectures {
		if name == known {
			return true
		}
	}
	return false
}
