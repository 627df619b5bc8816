// ABOUTME: Confines caller-supplied ingestion directories to the documents root
// ABOUTME: Used by the HTTP and MCP surfaces before a rebuild is started
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideDocsDir is returned for a directory that escapes the documents root
var ErrOutsideDocsDir = errors.New("directory is outside the documents directory")

// ConfineDir resolves requested against root. An empty request means root itself;
// relative requests are joined to root and anything that cleans to a path outside root is refused.
func ConfineDir(root, requested string) (string, error) {
	if requested == "" {
		return root, nil
	}
	if root == "" {
		return "", fmt.Errorf("%s: %w", requested, ErrOutsideDocsDir)
	}

	target := filepath.Clean(requested)
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", requested, err)
	}

	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", requested, ErrOutsideDocsDir)
	}
	return target, nil
}
