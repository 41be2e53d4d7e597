package discovery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pako-23/testdeps/internal/resolver"
	"gopkg.in/yaml.v3"
)

// IsManifest reports whether a file is a dependency manifest.
func IsManifest(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

type manifestEntry struct {
	ID      string   `yaml:"id"`
	Scope   string   `yaml:"scope"`
	Depends []string `yaml:"depends"`
}

type manifest struct {
	Tests []manifestEntry `yaml:"tests"`
}

// LoadManifest reads the test declarations listed in a YAML or JSON
// manifest file.
func LoadManifest(path string) ([]resolver.Declaration, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	return ParseManifest(path, content)
}

// ParseManifest decodes the test declarations of a manifest.
func ParseManifest(path string, content []byte) ([]resolver.Declaration, error) {
	var m manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	decls := make([]resolver.Declaration, 0, len(m.Tests))
	for i, entry := range m.Tests {
		id, err := resolver.ParseTestID(entry.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: test %d: %w", path, i, err)
		}

		scope, err := resolver.ParseScope(entry.Scope)
		if err != nil {
			return nil, fmt.Errorf("%s: test %s: %w", path, id, err)
		}

		decls = append(decls, resolver.Declaration{ID: id, Scope: scope, Depends: entry.Depends})
	}

	return decls, nil
}
