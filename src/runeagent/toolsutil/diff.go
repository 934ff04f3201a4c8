package toolsutil

import (
	udiff "github.com/aymanbagabas/go-udiff"
)

// Diff returns a unified diff of a file change, empty when nothing changed.
func Diff(path, before, after string) string {
	if before == after {
		return ""
	}
	return udiff.Unified("a/"+path, "b/"+path, before, after)
}
