package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pako-23/testdeps/internal/resolver"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Collect gathers the test declarations found under the given paths.
// Directories are scanned for test modules, manifests are loaded and any
// other file is parsed as a test module. Files are read concurrently and
// their declarations are merged in path order.
func Collect(paths []string, skipDirs []string) ([]resolver.Declaration, error) {
	scanner := NewScanner(skipDirs)
	seen := map[string]bool{}
	files := []string{}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("test path does not exist: %s", path)
		}

		found := []string{filepath.Clean(path)}
		if info.IsDir() {
			if found, err = scanner.Scan(path); err != nil {
				return nil, fmt.Errorf("failed to scan %s: %w", path, err)
			}
		}

		for _, file := range found {
			if !seen[file] {
				seen[file] = true
				files = append(files, file)
			}
		}
	}
	sort.Strings(files)

	var (
		g       errgroup.Group
		results = make([][]resolver.Declaration, len(files))
		parser  = NewParser()
	)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			decls, err := load(parser, file)
			if err != nil {
				return err
			}

			log.Debugf("collected %d tests from %s", len(decls), file)
			results[i] = decls
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	decls := []resolver.Declaration{}
	for _, result := range results {
		decls = append(decls, result...)
	}

	return decls, nil
}

func load(parser *Parser, path string) ([]resolver.Declaration, error) {
	if IsManifest(path) {
		return LoadManifest(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return parser.Parse(path, file)
}
