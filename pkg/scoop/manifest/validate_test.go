package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mufi-Lang/mufi-bucket/pkg/scoop/manifest"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	type testcase struct {
		Input      string
		ExpectErrs []string
	}
	testcases := map[string]testcase{
		"sample": {
			Input: sampleManifest,
		},
		"no-architecture": {
			Input: `{"version": "1.0", "url": "https://example.com/x.zip", ` +
				`"hash": "sha1:aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"}`,
		},
		"missing-everything": {
			Input: `{}`,
			ExpectErrs: []string{
				`missing "version"`,
				`missing "url"`,
			},
		},
		"unhashed": {
			Input: `{"version": "1.0", "architecture": {
				"64bit": {"url": "https://example.com/x.zip"}
			}}`,
		},
		"placeholder-hash": {
			Input: `{"version": "1.0", "architecture": {
				"64bit": {"url": "https://example.com/x.zip", "hash": "0000000000000000000000000000000000000000000000000000000000000000"},
				"32bit": {"url": "https://example.com/y.zip", "hash": "sha1:0000000000000000000000000000000000000000"}
			}}`,
			ExpectErrs: []string{
				`architecture "64bit": hash "0000000000000000000000000000000000000000000000000000000000000000": all-zero placeholder digest`,
				`architecture "32bit": hash "sha1:0000000000000000000000000000000000000000": all-zero placeholder digest`,
			},
		},
		"bad-entries": {
			Input: `{"version": "1.0", "architecture": {
				"64bit": {"url": "ftp://example.com/x.zip", "hash": "abcd"},
				"ia64": {"url": "https://example.com/y.zip", "hash": "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"}
			}}`,
			ExpectErrs: []string{
				`architecture "64bit": url "ftp://example.com/x.zip": scheme must be http or https`,
				`architecture "64bit": hash "abcd": sha256 digest must be 32 bytes, got 2`,
				`architecture "ia64": unknown architecture`,
			},
		},
		"wrong-type": {
			Input:      `{"version": "1.0", "architecture": []}`,
			ExpectErrs: []string{`manifest field "architecture"`},
		},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			m, err := manifest.Parse([]byte(tcData.Input))
			require.NoError(t, err)
			err = m.Validate()
			if len(tcData.ExpectErrs) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, exp := range tcData.ExpectErrs {
				assert.Contains(t, err.Error(), exp)
			}
		})
	}
}

func TestUnhashed(t *testing.T) {
	t.Parallel()
	arch := manifest.Architecture{
		"arm64": {URL: "https://example.com/a.zip", Hash: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
		"32bit": {URL: "https://example.com/b.zip"},
		"64bit": {URL: "https://example.com/c.zip", Hash: "0000000000000000000000000000000000000000000000000000000000000000"},
	}
	assert.Equal(t, []string{"64bit", "32bit"}, arch.Unhashed())

	delete(arch, "64bit")
	delete(arch, "32bit")
	assert.Empty(t, arch.Unhashed())
}
