package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSkipDirs are the directories never scanned for test files.
var DefaultSkipDirs = []string{"__pycache__", "node_modules", "venv", "site-packages"}

// Scanner scans for test files in a directory
type Scanner struct {
	skipDirs map[string]bool
}

// NewScanner creates a new Scanner with the given directories to skip
func NewScanner(skipDirs []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap}
}

// IsTestFile reports whether a file name follows the test module naming
// convention: test_*.py or *_test.py.
func IsTestFile(name string) bool {
	if filepath.Ext(name) != ".py" {
		return false
	}

	base := strings.TrimSuffix(name, ".py")
	return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test")
}

// Scan finds all test files in the given root. A root that is a file is
// returned as is.
func (s *Scanner) Scan(root string) ([]string, error) {
	var testFiles []string

	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("test path does not exist: %s", root)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if s.skipDirs[name] {
				return filepath.SkipDir
			}

			return nil
		}

		if IsTestFile(d.Name()) {
			testFiles = append(testFiles, path)
		}

		return nil
	})

	return testFiles, err
}
