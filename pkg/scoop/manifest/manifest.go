// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

// Package manifest reads and writes Scoop app manifests.
//
// A Manifest is kept as an ordered list of raw top-level fields, so that rewriting one
// field (say, "version") leaves every other field, and the order of the fields, exactly as
// the manifest author wrote them.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

type field struct {
	Key   string
	Value json.RawMessage
}

type Manifest struct {
	fields []field
}

// Parse parses a manifest.  The document must be a single JSON object.
func Parse(data []byte) (*Manifest, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	tok, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("manifest is not a JSON object")
	}
	m := new(Manifest)
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var val json.RawMessage
		if err := decoder.Decode(&val); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		m.setRaw(key, val)
	}
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after manifest object")
	}
	return m, nil
}

func Load(filename string) (*Manifest, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	m, err := Parse(bs)
	if err != nil {
		return nil, &fs.PathError{
			Op:   "parse manifest",
			Path: filename,
			Err:  err,
		}
	}
	return m, nil
}

// Keys returns the top-level keys in document order.
func (m *Manifest) Keys() []string {
	keys := make([]string, 0, len(m.fields))
	for _, f := range m.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// GetRaw returns the raw JSON of a top-level field.
func (m *Manifest) GetRaw(key string) (json.RawMessage, bool) {
	for _, f := range m.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Get decodes a top-level field in to ptr.  It returns false if the field is not set.
func (m *Manifest) Get(key string, ptr interface{}) (bool, error) {
	raw, ok := m.GetRaw(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, ptr); err != nil {
		return true, fmt.Errorf("manifest field %q: %w", key, err)
	}
	return true, nil
}

// Set encodes val and stores it under key.  An existing key keeps its position; a new key is
// appended.
func (m *Manifest) Set(key string, val interface{}) error {
	raw, err := marshal(val)
	if err != nil {
		return fmt.Errorf("manifest field %q: %w", key, err)
	}
	m.setRaw(key, raw)
	return nil
}

func (m *Manifest) setRaw(key string, raw json.RawMessage) {
	for i := range m.fields {
		if m.fields[i].Key == key {
			m.fields[i].Value = raw
			return
		}
	}
	m.fields = append(m.fields, field{Key: key, Value: raw})
}

func (m *Manifest) Delete(key string) {
	for i := range m.fields {
		if m.fields[i].Key == key {
			m.fields = append(m.fields[:i], m.fields[i+1:]...)
			return
		}
	}
}

// Version returns the "version" field, or "" if it is missing or not a string.
func (m *Manifest) Version() string {
	var version string
	if _, err := m.Get("version", &version); err != nil {
		return ""
	}
	return version
}

func (m *Manifest) SetVersion(version string) error {
	return m.Set("version", version)
}

// Architecture returns the "architecture" field.  A manifest without one returns a nil map.
func (m *Manifest) Architecture() (Architecture, error) {
	var arch Architecture
	if _, err := m.Get("architecture", &arch); err != nil {
		return nil, err
	}
	return arch, nil
}

// SetArchitecture replaces the "architecture" field wholesale.
func (m *Manifest) SetArchitecture(arch Architecture) error {
	return m.Set("architecture", arch)
}

// MarshalJSON renders the manifest with 4-space indentation and without HTML escaping.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, f := range m.fields {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := marshal(f.Key)
		if err != nil {
			return nil, err
		}
		compact.Write(key)
		compact.WriteByte(':')
		compact.Write(f.Value)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "    "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Save atomically replaces filename with the rendered manifest.
func (m *Manifest) Save(filename string) error {
	bs, err := m.MarshalJSON()
	if err != nil {
		return err
	}
	return writeFile(filename, append(bs, '\n'))
}

// marshal is json.Marshal without the HTML escaping; manifests carry URLs with '&' in them.
func marshal(val interface{}) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(val); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
