// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/open2b/rusthtml"
	"github.com/open2b/rusthtml/compiler"

	"github.com/fsnotify/fsnotify"
)

// debounce is the time waited after a change before compiling, so that
// the changes of a save are compiled once.
const debounce = 100 * time.Millisecond

// watch executes command:
//
//	rusthtml watch
func watch(dir, configPath string, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cache, err := compiler.NewWatchedCache(dir)
	if err != nil {
		return err
	}
	defer cache.Close()

	c, err := newCompiler(dir, configPath, log, cache)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watchDirs(watcher, dir); err != nil {
		return err
	}

	build := func() {
		start := time.Now()
		files, err := c.CompileAll(ctx)
		if err != nil {
			if ctx.Err() == nil {
				stderr("\033[1;31m" + err.Error() + "\033[0m")
			}
			return
		}
		written, err := writeFiles(dir, files)
		if err != nil {
			stderr("\033[1;31m" + err.Error() + "\033[0m")
			return
		}
		log.Info("compiled", slog.Int("templates", len(files)), slog.Int("written", written), slog.Duration("time", time.Since(start)))
	}
	build()

	var timer <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignored(dir, event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
					if err := watchDirs(watcher, event.Name); err != nil {
						log.Warn("cannot watch directory", slog.String("dir", event.Name), slog.Any("error", err))
					}
				}
			}
			log.Debug("changed", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			timer = time.After(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", slog.Any("error", err))
		case err := <-cache.Errors:
			log.Warn("cache error", slog.Any("error", err))
		case <-timer:
			timer = nil
			build()
		case <-ctx.Done():
			return nil
		}
	}
}

// watchDirs watches the directory dir and its subdirectories. Directories
// whose names start with '.' are not watched.
func watchDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(name)
	})
}

// ignored reports whether a change of the file name must be ignored: the
// generated Go files, the hidden files and the configuration file, which is
// read only at start.
func ignored(dir, name string) bool {
	if strings.HasSuffix(name, ".go") {
		return true
	}
	rel, err := filepath.Rel(dir, name)
	if err != nil {
		return true
	}
	for _, elem := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(elem, ".") && elem != "." && elem != ".." {
			return true
		}
	}
	return rel == rusthtml.ConfigFile
}
