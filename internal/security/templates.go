// Package security confines template reads and filled output writes to the
// configured template directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
)

// TemplateStore reads official form templates from a single directory tree
type TemplateStore struct {
	dir     string
	maxSize int64
}

// NewTemplateStore creates a store rooted at dir. The directory does not have
// to exist yet; reads fail until it does. maxSize <= 0 disables the size limit.
func NewTemplateStore(dir string, maxSize int64) (*TemplateStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("template directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template directory: %w", err)
	}
	return &TemplateStore{dir: filepath.Clean(abs), maxSize: maxSize}, nil
}

// Dir returns the absolute template directory
func (s *TemplateStore) Dir() string {
	return s.dir
}

// Resolve maps a path relative to the template directory, or an absolute
// path inside it, to a cleaned absolute path. Paths that escape the
// directory, directly or through a symlink, are rejected.
func (s *TemplateStore) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", ferrors.New(ferrors.ErrorTypeInvalidRequest, "template path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	clean := filepath.Clean(path)

	if !within(clean, s.dir) {
		return "", ferrors.NewWithContext(ferrors.ErrorTypeInvalidRequest, "template path is outside the template directory", path)
	}

	// Symlinks are checked against the real directory so a link inside the
	// tree cannot point out of it. A path that does not exist yet is checked
	// through its nearest existing ancestor.
	realDir := s.dir
	if rd, err := filepath.EvalSymlinks(s.dir); err == nil {
		realDir = rd
	}
	if prefix, real, ok := existingAncestor(clean); ok && within(prefix, s.dir) && !within(real, realDir) {
		return "", ferrors.NewWithContext(ferrors.ErrorTypeInvalidRequest, "template path resolves outside the template directory", path)
	}
	return clean, nil
}

// existingAncestor finds the longest existing prefix of path and returns it
// with its symlinks resolved
func existingAncestor(path string) (string, string, bool) {
	for p := path; ; {
		if real, err := filepath.EvalSymlinks(p); err == nil {
			return p, real, true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", "", false
		}
		p = parent
	}
}

// Read returns the bytes of a template inside the directory
func (s *TemplateStore) Read(path string) ([]byte, error) {
	resolved, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, ferrors.NewWithContext(ferrors.ErrorTypeInvalidRequest, "template path is a directory", path)
	}
	if s.maxSize > 0 && info.Size() > s.maxSize {
		return nil, ferrors.NewWithContext(ferrors.ErrorTypeInvalidRequest,
			fmt.Sprintf("template exceeds the %d byte limit", s.maxSize), path)
	}

	b, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return b, nil
}

// Write stores a filled document inside the directory, creating parent
// directories as needed. Existing files are overwritten.
func (s *TemplateStore) Write(path string, data []byte) (string, error) {
	resolved, err := s.Resolve(path)
	if err != nil {
		return "", err
	}
	if resolved == s.dir {
		return "", ferrors.NewWithContext(ferrors.ErrorTypeInvalidRequest, "output path must name a file", path)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return resolved, nil
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
