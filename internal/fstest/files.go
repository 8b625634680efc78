// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fstest implements the file systems used by the tests of the
// templates: a map of files and txtar archives of test cases.
package fstest

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/tools/txtar"
)

// Files implements a file system that read the files from a map. Keys are
// slash-separated paths, directories are implicit.
type Files map[string]string

// FromArchive returns the files of a txtar archive. The comment of the
// archive is returned separately.
func FromArchive(a *txtar.Archive) (Files, string) {
	files := make(Files, len(a.Files))
	for _, f := range a.Files {
		files[f.Name] = string(f.Data)
	}
	return files, string(a.Comment)
}

// ParseArchive parses a txtar archive and returns its files and comment.
func ParseArchive(data []byte) (Files, string) {
	return FromArchive(txtar.Parse(data))
}

// ReadArchive reads the txtar archive at the path name of the operating
// system and returns its files and comment.
func ReadArchive(name string) (Files, string, error) {
	a, err := txtar.ParseFile(name)
	if err != nil {
		return nil, "", err
	}
	files, comment := FromArchive(a)
	return files, comment, nil
}

// Archives returns the paths of the txtar archives, with extension
// ".txtar", in the directory dir of the operating system, sorted.
func Archives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txtar") {
			names = append(names, path.Join(dir, e.Name()))
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no archives in %s", dir)
	}
	sort.Strings(names)
	return names, nil
}

func (fsys Files) Open(name string) (fs.File, error) {
	if fs.ValidPath(name) {
		if name == "." {
			return &filesDir{filesFile: filesFile{name: name, mode: fs.ModeDir}, fsys: fsys}, nil
		}
		data, ok := fsys[name]
		if ok {
			return &filesFile{name, data, 0, 0}, nil
		}
		prefix := name + "/"
		for n := range fsys {
			if strings.HasPrefix(n, prefix) {
				return &filesDir{filesFile: filesFile{name: name, mode: fs.ModeDir}, fsys: fsys}, nil
			}
		}
	}
	return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
}

type filesDir struct {
	filesFile
	fsys map[string]string
	n    int
}

func (d *filesDir) ReadDir(n int) ([]fs.DirEntry, error) {
	var dir string
	if d.name != "." {
		dir = d.name + "/"
	}
	var names []string
	hasDir := map[string]bool{}
	for name := range d.fsys {
		if !strings.HasPrefix(name, dir) {
			continue
		}
		if i := strings.IndexByte(name[len(dir):], '/'); i > 0 {
			name = name[:len(dir)+i]
			if hasDir[name] {
				continue
			}
			hasDir[name] = true
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if n > 0 {
		if len(names) <= d.n {
			return nil, io.EOF
		}
		names = names[d.n:]
		if len(names) > n {
			names = names[:n]
		}
		d.n += len(names)
	}
	entries := make([]fs.DirEntry, len(names))
	for i, name := range names {
		var mode fs.FileMode
		if hasDir[name] {
			mode = fs.ModeDir
		}
		entries[i] = &mapDirEntry{filesFileInfo{name: name, data: d.fsys[name], mode: mode}}
	}
	return entries, nil
}

// mapDirEntry implements fs.DirEntry.
type mapDirEntry struct {
	filesFileInfo
}

func (f *mapDirEntry) Type() fs.FileMode {
	return f.Mode()
}

func (f *mapDirEntry) Info() (fs.FileInfo, error) {
	return &f.filesFileInfo, nil
}

type filesFile struct {
	name   string
	data   string
	offset int
	mode   os.FileMode
}

func (f *filesFile) Stat() (os.FileInfo, error) {
	return (*filesFileInfo)(f), nil
}

func (f *filesFile) Read(p []byte) (int, error) {
	if f.offset < 0 {
		return 0, &os.PathError{Op: "read", Path: f.name, Err: os.ErrInvalid}
	}
	if f.offset == len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.offset:])
	f.offset += n
	return n, nil
}

func (f *filesFile) Close() error {
	f.offset = -1
	return nil
}

type filesFileInfo filesFile

func (i *filesFileInfo) Name() string       { return path.Base(i.name) }
func (i *filesFileInfo) Size() int64        { return int64(len(i.data)) }
func (i *filesFileInfo) Mode() os.FileMode  { return i.mode }
func (i *filesFileInfo) ModTime() time.Time { return time.Time{} }
func (i *filesFileInfo) IsDir() bool        { return i.mode&fs.ModeDir == fs.ModeDir }
func (i *filesFileInfo) Sys() interface{}   { return nil }
