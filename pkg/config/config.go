// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

// Package config loads the optional .bucketctl.yaml file that describes the bucket.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	yaml2 "gopkg.in/yaml.v2"
	"sigs.k8s.io/yaml"

	"github.com/Mufi-Lang/mufi-bucket/pkg/archmap"
	"github.com/Mufi-Lang/mufi-bucket/pkg/hashes"
)

const DefaultFilename = ".bucketctl.yaml"

type Config struct {
	// Upstream is the GitHub repository that publishes the app's releases.
	Upstream string `json:"upstream,omitempty" yaml:"upstream"`
	// Bucket is the GitHub repository of this bucket.
	Bucket string `json:"bucket,omitempty" yaml:"bucket"`
	// App is the app's name in the bucket, as users pass it to `scoop install`.
	App string `json:"app,omitempty" yaml:"app"`

	BucketDir string `json:"bucketDir,omitempty" yaml:"bucketDir"`
	Manifest  string `json:"manifest,omitempty" yaml:"manifest"`
	Readme    string `json:"readme,omitempty" yaml:"readme"`

	GitHubAPI     string           `json:"githubAPI,omitempty" yaml:"githubAPI"`
	UserAgent     string           `json:"userAgent,omitempty" yaml:"userAgent"`
	HashAlgorithm string           `json:"hashAlgorithm,omitempty" yaml:"hashAlgorithm"`
	Architectures archmap.Mappings `json:"architectures,omitempty" yaml:"architectures"`
	URLTemplate   string           `json:"urlTemplate,omitempty" yaml:"urlTemplate"`
	Concurrency   int              `json:"concurrency,omitempty" yaml:"concurrency"`

	// Root is the directory that relative paths are resolved against: the directory
	// containing the config file, or the working directory if there is no file.
	Root string `json:"-" yaml:"-"`
}

func Default() Config {
	return Config{
		Upstream:      "Mufi-Lang/MufiZ",
		Bucket:        "Mufi-Lang/mufi-bucket",
		App:           "mufiz",
		BucketDir:     "bucket",
		Manifest:      "bucket/MufiZ.json",
		Readme:        "README.md",
		GitHubAPI:     "https://api.github.com",
		UserAgent:     "MufiZ-Bucket-Updater/1.0",
		HashAlgorithm: "sha256",
		Architectures: append(archmap.Mappings(nil), archmap.Default...),
		URLTemplate:   hashes.DefaultURLTemplate,
		Concurrency:   4,
		Root:          ".",
	}
}

// Load reads filename on top of Default().  If filename is empty, DefaultFilename is used if
// it exists.
func Load(filename string) (Config, error) {
	cfg := Default()
	explicit := filename != ""
	if !explicit {
		filename = DefaultFilename
	}
	yamlBytes, err := os.ReadFile(filename)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(yamlBytes, &cfg, yaml.DisallowUnknownFields); err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	cfg.Root = filepath.Dir(filename)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	switch {
	case cfg.Upstream == "":
		return fmt.Errorf("upstream must be set")
	case cfg.Manifest == "":
		return fmt.Errorf("manifest must be set")
	case cfg.Concurrency < 0:
		return fmt.Errorf("concurrency must not be negative")
	}
	for _, m := range cfg.Architectures {
		if m.Fragment == "" || m.Arch == "" {
			return fmt.Errorf("architectures: invalid mapping %q", m)
		}
	}
	return nil
}

// Path resolves a path from the config against Root.
func (cfg Config) Path(p string) string {
	if filepath.IsAbs(p) || cfg.Root == "" {
		return p
	}
	return filepath.Join(cfg.Root, filepath.FromSlash(p))
}

// BucketURL is the URL users pass to `scoop bucket add`.
func (cfg Config) BucketURL() string {
	if cfg.Bucket == "" {
		return ""
	}
	return "https://github.com/" + cfg.Bucket
}

// Dump renders the config as YAML.
func (cfg Config) Dump() ([]byte, error) {
	return yaml2.Marshal(cfg)
}
