// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/open2b/rusthtml"
	"github.com/open2b/rusthtml/compiler"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"
)

const filePerm = 0644

// modulePath is the path of the module of the runtime package imported by
// the generated files.
const modulePath = "github.com/open2b/rusthtml"

// newCompiler returns a compiler for the templates in dir. If configPath is
// empty, the configuration is read from the rusthtml.yaml file in dir.
func newCompiler(dir, configPath string, log *slog.Logger, cache compiler.Cache) (*rusthtml.Compiler, error) {
	if configPath == "" {
		configPath = filepath.Join(dir, rusthtml.ConfigFile)
	}
	config, err := rusthtml.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log.Debug("configuration", slog.String("path", configPath), slog.String("environment", config.Environment))
	return rusthtml.New(os.DirFS(dir), config, log, cache), nil
}

// generate executes command:
//
//	rusthtml generate
func generate(dir, configPath string, check bool, log *slog.Logger) error {
	st, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	c, err := newCompiler(dir, configPath, log, nil)
	if err != nil {
		return err
	}
	files, err := c.CompileAll(context.Background())
	if err != nil {
		return err
	}
	written, err := writeFiles(dir, files)
	if err != nil {
		return err
	}
	log.Info("generated", slog.Int("templates", len(files)), slog.Int("written", written))
	if err := checkModule(dir, log); err != nil {
		return err
	}
	if check && len(files) > 0 {
		return typeCheck(dir, log)
	}
	return nil
}

// writeFiles writes the generated files in dir. A file is not written if it
// already has the same content. It returns the number of written files.
func writeFiles(dir string, files []*rusthtml.File) (int, error) {
	n := 0
	for _, f := range files {
		name := filepath.Join(dir, filepath.FromSlash(f.Path))
		old, err := os.ReadFile(name)
		if err == nil && bytes.Equal(old, f.Source) {
			continue
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return n, err
		}
		if err := os.WriteFile(name, f.Source, filePerm); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// findModFile returns the path of the go.mod file of the module that
// contains dir, or the empty string if there is none.
func findModFile(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		name := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// checkModule checks that the module that contains dir requires the module
// of the runtime package. A missing requirement is reported as a warning,
// as it can be added by "go mod tidy".
func checkModule(dir string, log *slog.Logger) error {
	name, err := findModFile(dir)
	if err != nil || name == "" {
		if name == "" {
			log.Warn("no go.mod file found", slog.String("dir", dir))
		}
		return err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	file, err := modfile.ParseLax(name, data, nil)
	if err != nil {
		return err
	}
	if file.Module == nil {
		return fmt.Errorf("%s: missing module declaration", name)
	}
	if file.Module.Mod.Path == modulePath || strings.HasPrefix(file.Module.Mod.Path, modulePath+"/") {
		return nil
	}
	for _, r := range file.Require {
		if r.Mod.Path == modulePath {
			log.Debug("module", slog.String("path", file.Module.Mod.Path), slog.String("rusthtml", r.Mod.Version))
			return nil
		}
	}
	log.Warn("module does not require "+modulePath+", run 'go mod tidy'", slog.String("module", file.Module.Mod.Path))
	return nil
}

// typeCheck type checks the packages in dir.
func typeCheck(dir string, log *slog.Logger) error {
	conf := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedTypes,
		Dir:  dir,
	}
	pkgs, err := packages.Load(conf, "./...")
	if err != nil {
		return err
	}
	var errs []error
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			errs = append(errs, errors.New(e.Error()))
		}
	})
	log.Debug("type checked", slog.Int("packages", len(pkgs)), slog.Int("errors", len(errs)))
	return errors.Join(errs...)
}
