// Package fs resolves tool paths against the session working directory and
// keeps them inside the project root.
package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// OutsideRootError reports a path that escapes the project root. It matches
// fs.ErrPermission.
type OutsideRootError struct {
	Path string
}

func (e *OutsideRootError) Error() string {
	return "Path is outside the project directory: " + e.Path
}

func (e *OutsideRootError) Is(target error) bool {
	return target == iofs.ErrPermission
}

// Workspace is the project tree tools may touch.
type Workspace struct {
	base afero.Fs
	root string
}

// NewWorkspace confines base to root. An empty root disables confinement.
func NewWorkspace(base afero.Fs, root string) *Workspace {
	if root != "" {
		root = filepath.Clean(root)
	}
	return &Workspace{base: base, root: root}
}

// Base returns the unconfined filesystem.
func (w *Workspace) Base() afero.Fs { return w.base }

// Root returns the project root.
func (w *Workspace) Root() string { return w.root }

// Resolve makes path absolute against workingDir and checks it stays inside
// the root.
func (w *Workspace) Resolve(workingDir, path string) (string, error) {
	resolved := path
	switch {
	case path == "":
		resolved = workingDir
	case !filepath.IsAbs(path) && workingDir != "":
		resolved = filepath.Join(workingDir, path)
	}
	if resolved == "" {
		resolved = "."
	}
	resolved = filepath.Clean(resolved)

	if !w.Contains(resolved) {
		return "", &OutsideRootError{Path: path}
	}
	return resolved, nil
}

// Contains reports whether abs lies inside the root.
func (w *Workspace) Contains(abs string) bool {
	if w.root == "" {
		return true
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// In returns a filesystem rooted at workingDir.
func (w *Workspace) In(workingDir string) *ContextualFs {
	return &ContextualFs{Fs: w.base, workspace: w, workingDir: workingDir}
}

// ContextualFs creates an afero.Fs that resolves paths relative to a working
// directory and rejects paths outside the workspace root.
type ContextualFs struct {
	afero.Fs
	workspace  *Workspace
	workingDir string
}

var _ afero.Fs = (*ContextualFs)(nil)

// NewContextualFs creates an unconfined ContextualFs with the given working directory
func NewContextualFs(baseFs afero.Fs, workingDir string) *ContextualFs {
	return NewWorkspace(baseFs, "").In(workingDir)
}

// Resolve returns the absolute form of path. Root violations are returned
// unwrapped so their message survives error reporting.
func (c *ContextualFs) Resolve(path string) (string, error) {
	return c.workspace.Resolve(c.workingDir, path)
}

// Override methods to resolve paths relative to working directory

func (c *ContextualFs) Open(name string) (afero.File, error) {
	p, err := c.Resolve(name)
	if err != nil {
		return nil, err
	}
	return c.Fs.Open(p)
}

func (c *ContextualFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	p, err := c.Resolve(name)
	if err != nil {
		return nil, err
	}
	return c.Fs.OpenFile(p, flag, perm)
}

func (c *ContextualFs) Remove(name string) error {
	p, err := c.Resolve(name)
	if err != nil {
		return err
	}
	return c.Fs.Remove(p)
}

func (c *ContextualFs) RemoveAll(path string) error {
	p, err := c.Resolve(path)
	if err != nil {
		return err
	}
	return c.Fs.RemoveAll(p)
}

func (c *ContextualFs) Rename(oldname, newname string) error {
	from, err := c.Resolve(oldname)
	if err != nil {
		return err
	}
	to, err := c.Resolve(newname)
	if err != nil {
		return err
	}
	return c.Fs.Rename(from, to)
}

func (c *ContextualFs) Stat(name string) (os.FileInfo, error) {
	p, err := c.Resolve(name)
	if err != nil {
		return nil, err
	}
	return c.Fs.Stat(p)
}

// LstatIfPossible does not follow symlinks when the base supports it.
func (c *ContextualFs) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	p, err := c.Resolve(name)
	if err != nil {
		return nil, false, err
	}
	if l, ok := c.Fs.(afero.Lstater); ok {
		return l.LstatIfPossible(p)
	}
	fi, err := c.Fs.Stat(p)
	return fi, false, err
}

func (c *ContextualFs) Create(name string) (afero.File, error) {
	p, err := c.Resolve(name)
	if err != nil {
		return nil, err
	}
	return c.Fs.Create(p)
}

func (c *ContextualFs) Mkdir(name string, perm os.FileMode) error {
	p, err := c.Resolve(name)
	if err != nil {
		return err
	}
	return c.Fs.Mkdir(p, perm)
}

func (c *ContextualFs) MkdirAll(path string, perm os.FileMode) error {
	p, err := c.Resolve(path)
	if err != nil {
		return err
	}
	return c.Fs.MkdirAll(p, perm)
}

// GetWorkingDir returns the current working directory
func (c *ContextualFs) GetWorkingDir() string {
	return c.workingDir
}
