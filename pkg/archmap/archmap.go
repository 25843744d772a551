// Package archmap maps release asset filenames to Scoop architectures.
package archmap

import (
	"fmt"
	"strings"

	"github.com/Mufi-Lang/mufi-bucket/pkg/github"
	"github.com/Mufi-Lang/mufi-bucket/pkg/scoop/manifest"
)

// Mapping says that a release asset whose name contains Fragment is the download for Arch.
type Mapping struct {
	Fragment string `json:"fragment" yaml:"fragment"`
	Arch     string `json:"arch" yaml:"arch"`
}

func (m Mapping) String() string {
	return m.Fragment + "=" + m.Arch
}

// Mappings are tried in order; the first match wins.
type Mappings []Mapping

func (ms Mappings) String() string {
	strs := make([]string, 0, len(ms))
	for _, m := range ms {
		strs = append(strs, m.String())
	}
	return strings.Join(strs, ",")
}

// Default is the set of Zig target triples that MufiZ publishes Windows builds for.
//
//nolint:gochecknoglobals // Would be 'const'.
var Default = Mappings{
	{Fragment: "x86_64-windows", Arch: manifest.Arch64},
	{Fragment: "x86-windows-gnu", Arch: manifest.Arch32},
	{Fragment: "aarch64-windows", Arch: manifest.ArchARM},
}

// ParseMapping parses "FRAGMENT=ARCH".
func ParseMapping(str string) (Mapping, error) {
	parts := strings.SplitN(str, "=", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Mapping{}, fmt.Errorf("invalid mapping %q: must be FRAGMENT=ARCH", str)
	}
	return Mapping{Fragment: parts[0], Arch: parts[1]}, nil
}

// Match returns the architecture for a release asset name.  Only .zip assets match.
func (ms Mappings) Match(assetName string) (string, bool) {
	if !strings.HasSuffix(assetName, ".zip") {
		return "", false
	}
	for _, m := range ms {
		if strings.Contains(assetName, m.Fragment) {
			return m.Arch, true
		}
	}
	return "", false
}

// Archs returns the distinct architectures, in mapping order.
func (ms Mappings) Archs() []string {
	var archs []string
	seen := make(map[string]struct{}, len(ms))
	for _, m := range ms {
		if _, dup := seen[m.Arch]; !dup {
			seen[m.Arch] = struct{}{}
			archs = append(archs, m.Arch)
		}
	}
	return archs
}

// FindAssets returns the download URL for each architecture found among assets.  If several
// assets match one architecture, the last one listed wins.
func (ms Mappings) FindAssets(assets []github.Asset) map[string]string {
	urls := make(map[string]string)
	for _, asset := range assets {
		arch, ok := ms.Match(asset.Name)
		if !ok {
			continue
		}
		urls[arch] = asset.BrowserDownloadURL
	}
	return urls
}

// Missing returns the architectures in ms that have no entry in found.
func (ms Mappings) Missing(found map[string]string) []string {
	var missing []string
	for _, arch := range ms.Archs() {
		if _, ok := found[arch]; !ok {
			missing = append(missing, arch)
		}
	}
	return missing
}
