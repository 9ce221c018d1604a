package pairing

import (
	"path"
	"strings"
)

// Layout describes where production and test sources live and how a test
// file is named after the file it covers.
type Layout struct {
	SourceRoot   string   `mapstructure:"source_root" yaml:"source_root"`
	TestRoot     string   `mapstructure:"test_root" yaml:"test_root"`
	Extension    string   `mapstructure:"extension" yaml:"extension"`
	TestSuffixes []string `mapstructure:"test_suffixes" yaml:"test_suffixes"`
}

// DefaultLayout is the Maven convention
func DefaultLayout() Layout {
	return Layout{
		SourceRoot:   "src/main/java",
		TestRoot:     "src/test/java",
		Extension:    ".java",
		TestSuffixes: []string{"Test"},
	}
}

// IsProduction reports whether p is a production source file: it sits under
// the source root, has the configured extension, and is not under the test root.
func (l Layout) IsProduction(p string) bool {
	if !strings.HasSuffix(p, l.Extension) {
		return false
	}
	if i, _ := segmentIndex(p, l.SourceRoot); i < 0 {
		return false
	}
	i, _ := segmentIndex(p, l.TestRoot)
	return i < 0
}

// DeriveTestPaths returns the test path for p under each configured suffix.
// The first occurrence of the source root is replaced by the test root and
// the suffix is inserted before the extension.
func (l Layout) DeriveTestPaths(p string) []string {
	i, n := segmentIndex(p, l.SourceRoot)
	if i < 0 || !strings.HasSuffix(p, l.Extension) {
		return nil
	}

	testRoot := strings.Trim(path.Clean(l.TestRoot), "/")
	swapped := p[:i] + testRoot + p[i+n:]
	stem := strings.TrimSuffix(swapped, l.Extension)

	out := make([]string, 0, len(l.TestSuffixes))
	for _, suffix := range l.TestSuffixes {
		out = append(out, stem+suffix+l.Extension)
	}
	return out
}

// MatchTestPaths returns the changed paths that equal a derived test path of prodPath
func (l Layout) MatchTestPaths(changed []string, prodPath string) []string {
	derived := l.DeriveTestPaths(prodPath)
	if len(derived) == 0 {
		return nil
	}

	want := make(map[string]bool, len(derived))
	for _, d := range derived {
		want[d] = true
	}

	var out []string
	for _, c := range changed {
		if want[c] {
			out = append(out, c)
			delete(want, c)
		}
	}
	return out
}

// ProductionPaths filters changed paths down to production sources
func (l Layout) ProductionPaths(changed []string) []string {
	var out []string
	for _, c := range changed {
		if l.IsProduction(c) {
			out = append(out, c)
		}
	}
	return out
}

// segmentIndex finds root in p as a whole run of path segments. It returns
// the byte offset and length of the match in p, or -1.
func segmentIndex(p, root string) (int, int) {
	root = strings.Trim(path.Clean(root), "/")
	if root == "" || root == "." {
		return -1, 0
	}
	i := strings.Index("/"+p, "/"+root+"/")
	return i, len(root)
}
