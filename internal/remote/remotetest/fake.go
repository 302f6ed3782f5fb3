// Package remotetest provides an in-memory Session for tests.
package remotetest

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/wtnb75/sftpovw/internal/apperr"
	"github.com/wtnb75/sftpovw/internal/remote"
)

// Fake is an in-memory Session. Files maps slash-separated full paths to
// content; Dirs marks empty directories (parents of files are implied).
// Every call is recorded in Ops as "op arg [arg]".
type Fake struct {
	Files map[string][]byte
	Dirs  map[string]bool

	// WriteHook runs before Write stores anything; returning an error
	// aborts the write. The hook may mutate the fake itself to simulate a
	// partial write.
	WriteHook func(path string) error
	// RemoveHook runs before Remove deletes anything; returning an error
	// aborts the removal.
	RemoveHook func(path string) error
	// CheckFunc serves native digests. When nil, Check reports the
	// extension unsupported.
	CheckFunc func(algo, path string) (string, error)
	// ExecFunc serves Exec. When nil, Exec fails.
	ExecFunc func(command string) (remote.ExecResult, error)

	Ops    []string
	Closed bool
}

var _ remote.Session = (*Fake)(nil)

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{Files: map[string][]byte{}, Dirs: map[string]bool{}}
}

func (f *Fake) Write(p string, r io.Reader) (int64, error) {
	f.op("write", p)
	if f.WriteHook != nil {
		if err := f.WriteHook(p); err != nil {
			return 0, err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.Files[p] = data
	return int64(len(data)), nil
}

func (f *Fake) Read(p string, w io.Writer) (int64, error) {
	f.op("read", p)
	data, ok := f.Files[p]
	if !ok {
		return 0, notExist("open", p)
	}
	n, err := w.Write(data)
	return int64(n), err
}

func (f *Fake) Stat(p string) (os.FileInfo, error) {
	f.op("stat", p)
	if data, ok := f.Files[p]; ok {
		return fileInfo{name: path.Base(p), size: int64(len(data))}, nil
	}
	if f.isDir(p) {
		return fileInfo{name: path.Base(p), dir: true}, nil
	}
	return nil, notExist("stat", p)
}

func (f *Fake) Rename(oldpath, newpath string) error {
	f.op("rename", oldpath, newpath)
	data, ok := f.Files[oldpath]
	if !ok {
		return notExist("rename", oldpath)
	}
	delete(f.Files, oldpath)
	f.Files[newpath] = data
	return nil
}

func (f *Fake) Remove(p string) error {
	f.op("remove", p)
	if f.RemoveHook != nil {
		if err := f.RemoveHook(p); err != nil {
			return err
		}
	}
	if _, ok := f.Files[p]; !ok {
		return notExist("remove", p)
	}
	delete(f.Files, p)
	return nil
}

func (f *Fake) ReadDir(p string) ([]string, error) {
	f.op("readdir", p)
	norm := path.Clean(p)
	var names []string
	for q := range f.Files {
		if path.Dir(q) == norm {
			names = append(names, path.Base(q))
		}
	}
	for q := range f.Dirs {
		if path.Dir(q) == norm {
			names = append(names, path.Base(q))
		}
	}
	if len(names) == 0 && norm != "." && !f.isDir(norm) {
		return nil, notExist("readdir", p)
	}
	sort.Strings(names)
	return names, nil
}

func (f *Fake) Check(algo, p string) (string, error) {
	f.op("check", algo, p)
	if f.CheckFunc != nil {
		return f.CheckFunc(algo, p)
	}
	return "", fmt.Errorf("remotetest: check %s: %w", p, apperr.ErrCheckUnsupported)
}

func (f *Fake) Exec(command string) (remote.ExecResult, error) {
	f.op("exec", command)
	if f.ExecFunc == nil {
		return remote.ExecResult{}, fmt.Errorf("remotetest: exec not configured")
	}
	return f.ExecFunc(command)
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

func (f *Fake) isDir(p string) bool {
	if f.Dirs[path.Clean(p)] {
		return true
	}
	prefix := strings.TrimSuffix(p, "/") + "/"
	for name := range f.Files {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func (f *Fake) op(parts ...string) {
	f.Ops = append(f.Ops, strings.Join(parts, " "))
}

func notExist(op, p string) error {
	return &fs.PathError{Op: op, Path: p, Err: fs.ErrNotExist}
}

type fileInfo struct {
	name string
	size int64
	dir  bool
}

func (fi fileInfo) Name() string { return fi.name }
func (fi fileInfo) Size() int64  { return fi.size }
func (fi fileInfo) Mode() fs.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return fi.dir }
func (fi fileInfo) Sys() any           { return nil }
