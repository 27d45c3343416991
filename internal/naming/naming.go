// Package naming derives namespace names from file names.
package naming

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	suffixRe = regexp.MustCompile(`(_body|_test)?\.[hc]pp$`)
	bodyRe   = regexp.MustCompile(`(_body\.hpp|\.cpp)$`)
	testRe   = regexp.MustCompile(`_test\.cpp$`)
)

// FileNamespace returns the bare file namespace: the base name with the
// _body/_test suffix and the extension stripped.
func FileNamespace(path string) string {
	return suffixRe.ReplaceAllString(filepath.Base(path), "")
}

// OwnHeader returns the include target of the header that declares what the
// file defines, e.g. "quantities/si.hpp" for quantities/si_body.hpp.
func OwnHeader(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	return dir + "/" + FileNamespace(path) + ".hpp"
}

// IsHeader reports whether path is a .hpp file.
func IsHeader(path string) bool {
	return strings.HasSuffix(path, ".hpp")
}

// IsBody reports whether path holds definitions: a .cpp or a _body.hpp.
func IsBody(path string) bool {
	return bodyRe.MatchString(filepath.Base(path))
}

// IsTest reports whether path is a test translation unit.
func IsTest(path string) bool {
	return testRe.MatchString(filepath.Base(path))
}

// Convention computes qualified namespaces under a root namespace.
type Convention struct {
	Root string
}

// Project returns the namespace of the project (directory) containing path,
// e.g. principia::quantities.
func (c Convention) Project(path string) string {
	return c.Root + "::" + filepath.Base(filepath.Dir(path))
}

// Qualified returns the fully qualified file namespace of path, e.g.
// principia::quantities::si.
func (c Convention) Qualified(path string) string {
	return c.Project(path) + "::" + FileNamespace(path)
}
