// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rusthtml

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"strings"

	"github.com/open2b/rusthtml/compiler"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the name of the configuration file read by the rusthtml
// command.
const ConfigFile = "rusthtml.yaml"

// Config is the configuration of the compilation, read from a YAML file:
//
//	environment: Development
//	void_tags: [area, base, br, col, embed, hr, img, input, link, meta, source, track, wbr, "!DOCTYPE"]
//	buffer: html
//	package: views
//	extension: .rhtml
//	coalesce: true
//	fix_imports: false
type Config struct {
	Environment string   `yaml:"environment"`
	VoidTags    []string `yaml:"void_tags"`
	RawTextTags []string `yaml:"raw_text_tags"`
	Buffer      string   `yaml:"buffer"`
	Package     string   `yaml:"package"`
	Extension   string   `yaml:"extension"`
	Coalesce    bool     `yaml:"coalesce"`
	FixImports  bool     `yaml:"fix_imports"`
}

// DefaultConfig returns the configuration used when there is no
// configuration file. Fields missing from a configuration file have the
// values of the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Environment: "Production",
		VoidTags:    append([]string(nil), compiler.DefaultVoidTags...),
		RawTextTags: append([]string(nil), compiler.DefaultRawTextTags...),
		Buffer:      "html",
		Package:     "views",
		Extension:   ".rhtml",
		Coalesce:    true,
	}
}

// LoadConfig reads the configuration file at path. If the file does not
// exist, it returns the default configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// ParseConfig parses a configuration in YAML. Unknown fields are errors.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("rusthtml: invalid configuration: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// validate validates the configuration.
func (c *Config) validate() error {
	if !token.IsIdentifier(c.Buffer) {
		return fmt.Errorf("rusthtml: invalid configuration: buffer %q is not a Go identifier", c.Buffer)
	}
	if !token.IsIdentifier(c.Package) || c.Package == "_" {
		return fmt.Errorf("rusthtml: invalid configuration: package %q is not a valid package name", c.Package)
	}
	if len(c.Extension) < 2 || c.Extension[0] != '.' || strings.ContainsAny(c.Extension, `/\`) {
		return fmt.Errorf("rusthtml: invalid configuration: extension %q must start with a dot", c.Extension)
	}
	for _, name := range append(c.VoidTags, c.RawTextTags...) {
		if name == "" || strings.ContainsAny(name, " \t\r\n<>/") {
			return fmt.Errorf("rusthtml: invalid configuration: invalid tag name %q", name)
		}
	}
	return nil
}

// Registry returns a registry with the built-in directives and the tag
// tables of the configuration.
func (c *Config) Registry() *compiler.Registry {
	r := compiler.DefaultRegistry()
	r.SetVoidTags(c.VoidTags)
	r.SetRawTextTags(c.RawTextTags)
	return r
}
