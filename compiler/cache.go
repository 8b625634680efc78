// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/open2b/rusthtml/ast"

	"github.com/fsnotify/fsnotify"
)

// Fragment is the result of the parsing of an external content: its
// intermediate tokens and, for a template, the imports and the inject
// statements it declares.
type Fragment struct {
	Tokens  []IToken
	Imports []Import
	Injects [][]ast.Token
}

// Cache stores the fragments read by the directives that include external
// contents, so they are read and parsed only once. Keys are made of the
// kind of content and the resolved path, as in "markdown:docs/intro.md".
//
// A Cache is safe for concurrent use by multiple compilations. The
// fragments are shared: they must not be modified.
type Cache interface {
	Get(key string) (*Fragment, bool)
	Put(key string, f *Fragment)
}

// Kinds of the cached contents.
const (
	htmlContent     = "html"
	markdownContent = "markdown"
	templateContent = "rusthtml"
)

// cacheKey returns the key of the content of the given kind at path.
func cacheKey(kind, path string) string {
	return kind + ":" + path
}

// splitCacheKey returns the kind and the path of a key.
func splitCacheKey(key string) (kind, path string) {
	kind, path, _ = strings.Cut(key, ":")
	return kind, path
}

// MemoryCache is a Cache that keeps the fragments in memory. The zero value
// is an empty cache ready to use.
type MemoryCache struct {
	fragments map[string]*Fragment
	sync.Mutex
}

// Get returns the fragment with the given key.
func (c *MemoryCache) Get(key string) (*Fragment, bool) {
	c.Lock()
	f, ok := c.fragments[key]
	c.Unlock()
	return f, ok
}

// Put stores a fragment with the given key.
func (c *MemoryCache) Put(key string, f *Fragment) {
	c.Lock()
	if c.fragments == nil {
		c.fragments = map[string]*Fragment{key: f}
	} else {
		c.fragments[key] = f
	}
	c.Unlock()
}

// Len returns the number of fragments in the cache.
func (c *MemoryCache) Len() int {
	c.Lock()
	n := len(c.fragments)
	c.Unlock()
	return n
}

// Delete deletes the fragments, of any kind, of the content at path.
func (c *MemoryCache) Delete(path string) {
	c.Lock()
	for key := range c.fragments {
		if _, p := splitCacheKey(key); p == path {
			delete(c.fragments, key)
		}
	}
	c.Unlock()
}

// WatchedCache is a MemoryCache that watches the files of its fragments and
// deletes a fragment when its file is written, renamed or removed. Paths
// are resolved relative to a root directory of the operating system.
type WatchedCache struct {
	root    string
	watcher *fsnotify.Watcher
	cache   MemoryCache
	evicted chan string // if not nil, receives the evicted paths
	Errors  chan error

	sync.Mutex
	watched map[string]bool
}

// NewWatchedCache returns a WatchedCache for the files in the directory
// root. It must be closed when no longer used.
func NewWatchedCache(root string) (*WatchedCache, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	c := &WatchedCache{
		root:    root,
		watcher: watcher,
		watched: map[string]bool{},
		Errors:  make(chan error, 1),
	}
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					c.evict(event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				select {
				case c.Errors <- err:
				default:
				}
			}
		}
	}()
	return c, nil
}

// Get returns the fragment with the given key.
func (c *WatchedCache) Get(key string) (*Fragment, bool) {
	return c.cache.Get(key)
}

// Put stores a fragment with the given key and starts watching its file.
// If the file cannot be watched, the fragment is not stored.
func (c *WatchedCache) Put(key string, f *Fragment) {
	_, path := splitCacheKey(key)
	if err := c.watch(path); err != nil {
		select {
		case c.Errors <- err:
		default:
		}
		return
	}
	c.cache.Put(key, f)
}

// Close stops watching the files.
func (c *WatchedCache) Close() error {
	return c.watcher.Close()
}

func (c *WatchedCache) watch(path string) error {
	c.Lock()
	defer c.Unlock()
	if !c.watched[path] {
		err := c.watcher.Add(filepath.Join(c.root, filepath.FromSlash(path)))
		if err != nil {
			return err
		}
		c.watched[path] = true
	}
	return nil
}

// evict deletes the fragments of the file name, as reported by the watcher.
func (c *WatchedCache) evict(name string) {
	rel, err := filepath.Rel(c.root, name)
	if err != nil {
		return
	}
	path := filepath.ToSlash(rel)
	c.Lock()
	if c.watched[path] {
		// A renamed or removed file is no longer watched.
		_ = c.watcher.Remove(name)
		delete(c.watched, path)
	}
	evicted := c.evicted
	c.Unlock()
	c.cache.Delete(path)
	if evicted != nil {
		evicted <- path
	}
}
