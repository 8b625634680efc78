// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rusthtml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig([]byte("environment: Development\nbuffer: out\nvoid_tags: [br, img]\nfix_imports: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	expected := DefaultConfig()
	expected.Environment = "Development"
	expected.Buffer = "out"
	expected.VoidTags = []string{"br", "img"}
	expected.FixImports = true
	if diff := cmp.Diff(expected, config); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	r := config.Registry()
	if !r.IsVoid("img") || r.IsVoid("input") {
		t.Fatalf("unexpected void tags %v", r.VoidTags())
	}
}

func TestParseEmptyConfig(t *testing.T) {
	config, err := ParseConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultConfig(), config); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

var configErrorTests = []struct {
	src string
	err string
}{
	{"colour: red\n", "field colour not found"},
	{"buffer: 1x\n", `buffer "1x" is not a Go identifier`},
	{"package: _\n", `package "_" is not a valid package name`},
	{"package: my-views\n", `package "my-views" is not a valid package name`},
	{"extension: rhtml\n", `extension "rhtml" must start with a dot`},
	{"extension: ./x\n", `extension "./x" must start with a dot`},
	{"void_tags: [\"a b\"]\n", `invalid tag name "a b"`},
	{"raw_text_tags: [\"\"]\n", `invalid tag name ""`},
	{"coalesce: maybe\n", "invalid configuration"},
}

func TestConfigErrors(t *testing.T) {
	for _, test := range configErrorTests {
		_, err := ParseConfig([]byte(test.src))
		if err == nil {
			t.Errorf("source: %q, expected error %q, got nothing", test.src, test.err)
			continue
		}
		if !strings.Contains(err.Error(), test.err) {
			t.Errorf("source: %q, unexpected error %q, expecting %q", test.src, err, test.err)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	config, err := LoadConfig(filepath.Join(dir, ConfigFile))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultConfig(), config); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	name := filepath.Join(dir, ConfigFile)
	if err := os.WriteFile(name, []byte("package: pages\n"), 0644); err != nil {
		t.Fatal(err)
	}
	config, err = LoadConfig(name)
	if err != nil {
		t.Fatal(err)
	}
	if config.Package != "pages" {
		t.Fatalf("unexpected package %q, expecting \"pages\"", config.Package)
	}
	if err := os.WriteFile(name, []byte("package: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err = LoadConfig(name); err == nil || !strings.HasPrefix(err.Error(), name+": ") {
		t.Fatalf("unexpected error %v, expecting an error prefixed by the path", err)
	}
}
