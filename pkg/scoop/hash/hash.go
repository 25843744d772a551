// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

// Package hash implements the checksum strings used in Scoop manifests.
//
// A Scoop hash is either a bare hex string (implying SHA-256) or "ALGO:HEX".
package hash

import (
	"crypto/md5"  //nolint:gosec // Scoop allows it
	"crypto/sha1" //nolint:gosec // Scoop allows it
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	gohash "hash"
	"io"
	"strings"

	ociv1 "github.com/google/go-containerregistry/pkg/v1"
)

const DefaultAlgorithm = "sha256"

// Algorithms is the set of algorithms Scoop accepts in a manifest "hash" field.
//
//nolint:gochecknoglobals // Would be 'const'.
var Algorithms = map[string]func() gohash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

type Hash struct {
	Algorithm string
	Hex       string
}

// Parse parses a Scoop hash string.  Hex digits are normalized to lower-case.
func Parse(str string) (Hash, error) {
	algo, hexStr := DefaultAlgorithm, str
	if i := strings.IndexByte(str, ':'); i >= 0 {
		algo, hexStr = strings.ToLower(str[:i]), str[i+1:]
	}
	newHash, ok := Algorithms[algo]
	if !ok {
		return Hash{}, fmt.Errorf("hash %q: unsupported algorithm %q", str, algo)
	}
	hexStr = strings.ToLower(hexStr)
	bs, err := hex.DecodeString(hexStr)
	if err != nil {
		return Hash{}, fmt.Errorf("hash %q: %w", str, err)
	}
	if want := newHash().Size(); len(bs) != want {
		return Hash{}, fmt.Errorf("hash %q: %s digest must be %d bytes, got %d",
			str, algo, want, len(bs))
	}
	return Hash{Algorithm: algo, Hex: hexStr}, nil
}

// String returns the form Scoop writes: SHA-256 bare, everything else prefixed.
func (h Hash) String() string {
	if h.Algorithm == "" || h.Algorithm == DefaultAlgorithm {
		return h.Hex
	}
	return h.Algorithm + ":" + h.Hex
}

// IsZero reports whether the digest is all zeros, as in a placeholder that was never filled
// in.
func (h Hash) IsZero() bool {
	return strings.Trim(h.Hex, "0") == ""
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Sum reads r to EOF and returns its digest under algo, along with the number of bytes read.
func Sum(algo string, r io.Reader) (Hash, int64, error) {
	if algo == "" {
		algo = DefaultAlgorithm
	}
	if algo == DefaultAlgorithm {
		digest, size, err := ociv1.SHA256(r)
		if err != nil {
			return Hash{}, size, err
		}
		return Hash{Algorithm: algo, Hex: digest.Hex}, size, nil
	}
	newHash, ok := Algorithms[algo]
	if !ok {
		return Hash{}, 0, fmt.Errorf("unsupported hash algorithm %q", algo)
	}
	hasher := newHash()
	size, err := io.Copy(hasher, r)
	if err != nil {
		return Hash{}, size, err
	}
	return Hash{Algorithm: algo, Hex: hex.EncodeToString(hasher.Sum(nil))}, size, nil
}
