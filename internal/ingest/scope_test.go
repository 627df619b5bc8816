// ABOUTME: Tests for confining ingestion directories to the documents root
// ABOUTME: Covers relative, absolute and traversal requests
package ingest

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestConfineDir(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name      string
		root      string
		requested string
		want      string
		wantErr   bool
	}{
		{"empty uses root", root, "", root, false},
		{"relative subdirectory", root, "notices", filepath.Join(root, "notices"), false},
		{"absolute inside root", root, filepath.Join(root, "fees"), filepath.Join(root, "fees"), false},
		{"root itself", root, root, root, false},
		{"parent traversal", root, "../etc", "", true},
		{"nested traversal", root, "notices/../../etc", "", true},
		{"absolute outside root", root, "/etc", "", true},
		{"sibling with shared prefix", root, root + "-other", "", true},
		{"no root configured", "", "/srv/docs", "", true},
		{"no root and no request", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfineDir(tt.root, tt.requested)
			if tt.wantErr {
				if !errors.Is(err, ErrOutsideDocsDir) {
					t.Errorf("ConfineDir() error = %v, want ErrOutsideDocsDir", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ConfineDir() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ConfineDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
