package dcmpix

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultPattern is the pattern used by FilenameGenerator when none is set.
const DefaultPattern = "%d"

// A FilenameGenerator builds Count file names made of Prefix followed by
// Pattern formatted with the file index.
type FilenameGenerator struct {
	Prefix  string
	Pattern string
	Count   int

	names []string
}

// Generate builds the names. It fails when the pattern does not produce
// Count distinct names.
func (g *FilenameGenerator) Generate() error {
	g.names = nil
	if g.Count < 0 {
		return ConfigurationError(fmt.Sprintf("negative number of filenames %d", g.Count))
	}
	pattern := g.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	verb := strings.Contains(pattern, "%")
	if !verb && g.Count > 1 {
		return ConfigurationError(fmt.Sprintf("pattern %q has no verb", pattern))
	}

	names := make([]string, g.Count)
	seen := make(map[string]struct{}, g.Count)
	for i := range names {
		suffix := pattern
		if verb {
			suffix = fmt.Sprintf(pattern, i)
			if strings.Contains(suffix, "%!") {
				return ConfigurationError(fmt.Sprintf("invalid pattern %q", pattern))
			}
		}
		name := g.Prefix + suffix
		if _, ok := seen[name]; ok {
			return ConfigurationError(fmt.Sprintf("pattern %q generates %s twice", pattern, name))
		}
		seen[name] = struct{}{}
		names[i] = name
	}
	g.names = names
	return nil
}

// Filename returns the i-th generated name. The boolean is false when i is
// out of range or Generate has not succeeded.
func (g *FilenameGenerator) Filename(i int) (string, bool) {
	if i < 0 || i >= len(g.names) {
		return "", false
	}
	return g.names[i], true
}

// Filenames returns a copy of the generated names.
func (g *FilenameGenerator) Filenames() []string {
	return append([]string(nil), g.names...)
}

// Filename splits a file path into its directory, name and extension.
type Filename string

// Path returns the directory of the file, with its trailing separator.
func (f Filename) Path() string {
	dir, _ := filepath.Split(string(f))
	return dir
}

// Name returns the last element of the path.
func (f Filename) Name() string {
	return filepath.Base(string(f))
}

// Extension returns the extension of the name, dot included.
func (f Filename) Extension() string {
	return filepath.Ext(string(f))
}

// IsIdentical reports whether both paths name the same file once cleaned.
func (f Filename) IsIdentical(o Filename) bool {
	a, errA := filepath.Abs(string(f))
	b, errB := filepath.Abs(string(o))
	if errA != nil || errB != nil {
		return filepath.Clean(string(f)) == filepath.Clean(string(o))
	}
	return a == b
}
