package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ============================================================
// File Storage
// ============================================================

// FileStorage places exported diagrams under a root directory. Absolute
// paths supplied by the caller are respected as-is.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

// ExportPath resolves a caller-supplied path to the final export location,
// forcing the .drawio extension.
func (s *FileStorage) ExportPath(path string) string {
	if path == "" {
		path = "diagram.drawio"
	}
	if !strings.HasSuffix(path, ".drawio") {
		path += ".drawio"
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

// WriteDiagram saves the xml to the resolved path and returns the absolute
// location of the written file.
func (s *FileStorage) WriteDiagram(path, xml string) (string, error) {
	target := s.ExportPath(path)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("mkdir export dir: %w", err)
	}
	if err := os.WriteFile(target, []byte(xml), 0o644); err != nil {
		return "", fmt.Errorf("write diagram: %w", err)
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return target, nil
	}
	return abs, nil
}

// ReadDiagram loads a previously exported file.
func (s *FileStorage) ReadDiagram(path string) (string, error) {
	data, err := os.ReadFile(s.ExportPath(path))
	if err != nil {
		return "", fmt.Errorf("read diagram: %w", err)
	}
	return string(data), nil
}
