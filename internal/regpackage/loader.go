package regpackage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var interfaceExtensions = []string{"", ".yaml", ".yml", ".json"}

// Loader finds interface files by name in a list of directories and caches the result.
type Loader struct {
	cache       sync.Map
	validator   *Validator
	searchPaths []string
}

func NewLoader(searchPaths []string) (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Loader{
		validator:   validator,
		searchPaths: searchPaths,
	}, nil
}

// Load resolves name against the search paths, trying the bare name and then the
// .yaml, .yml and .json extensions.
func (l *Loader) Load(name string) (*Package, error) {
	if cached, ok := l.cache.Load(name); ok {
		return cached.(*Package), nil
	}

	var data []byte
	var foundPath string

	for _, candidate := range l.candidates(name) {
		b, err := os.ReadFile(candidate)
		if err == nil {
			data = b
			foundPath = candidate
			break
		}
	}

	if data == nil {
		return nil, fmt.Errorf("interface not found: %s (searched in: %v)", name, l.searchPaths)
	}

	pkg, err := parseWith(l.validator, data)
	if err != nil {
		return nil, fmt.Errorf("validation failed for %s: %w", foundPath, err)
	}

	l.cache.Store(name, pkg)

	return pkg, nil
}

func (l *Loader) candidates(name string) []string {
	var out []string
	if filepath.IsAbs(name) {
		for _, ext := range interfaceExtensions {
			out = append(out, name+ext)
		}
		return out
	}
	for _, dir := range l.searchPaths {
		for _, ext := range interfaceExtensions {
			out = append(out, filepath.Join(dir, name+ext))
		}
	}
	return out
}

// Validator exposes the schema validator used by the loader.
func (l *Loader) Validator() *Validator {
	return l.validator
}

func (l *Loader) ClearCache() {
	l.cache.Range(func(key, value interface{}) bool {
		l.cache.Delete(key)
		return true
	})
}
