// Package classify recognizes the structural statements of a C++ source line.
//
// Classification is purely lexical and looks at one line at a time. The
// extraction functions assume that Classify already accepted the line for
// the matching category.
package classify

import (
	"regexp"
	"strings"
)

// Category is the structural category of a line.
type Category int

const (
	Text Category = iota
	Include
	OpeningNamespace
	ClosingNamespace
	Class
	Constant
	Function
	Struct
	TypeAlias
	UsingDirective
	UsingDeclaration
)

var categoryNames = [...]string{
	Text:             "text",
	Include:          "include",
	OpeningNamespace: "namespace-open",
	ClosingNamespace: "namespace-close",
	Class:            "class",
	Constant:         "constant",
	Function:         "function",
	Struct:           "struct",
	TypeAlias:        "type-alias",
	UsingDirective:   "using-directive",
	UsingDeclaration: "using-declaration",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

const (
	closingNamespacePrefix = "}  // namespace"
	includePrefix          = `#include "`
	usingDirectivePrefix   = "using namespace "
)

var (
	classRe            = regexp.MustCompile(`^class \w+[ ;].*$`)
	structRe           = regexp.MustCompile(`^struct \w+[ ;].*$`)
	constantRe         = regexp.MustCompile(`^constexpr .* = .*$`)
	functionRe         = regexp.MustCompile(`^\w.+ [^: ]+\(.*$`)
	namespaceAliasRe   = regexp.MustCompile(`^namespace \w+ = .*$`)
	typeAliasRe        = regexp.MustCompile(`^using \w+ =( .*)?$`)
	usingDeclarationRe = regexp.MustCompile(`^using [\w:]+;$`)

	declarationTailRe = regexp.MustCompile(`[; ].*$`)
	constantHeadRe    = regexp.MustCompile(`^constexpr [^ ]+ `)
	constantTailRe    = regexp.MustCompile(` = .*$`)
	typeAliasTailRe   = regexp.MustCompile(` =.*$`)
	functionArgsRe    = regexp.MustCompile(`\(.*$`)
	functionHeadRe    = regexp.MustCompile(`^.+ `)
)

// Classify returns the category of line. ownHeader is the include target of
// the file's own header (e.g. "quantities/si.hpp"); including it is plain
// text, not a dependency.
func Classify(line, ownHeader string) Category {
	switch {
	case IsInclude(line) && !IsOwnHeaderInclude(line, ownHeader):
		return Include
	case IsOpeningNamespace(line):
		return OpeningNamespace
	case IsClosingNamespace(line):
		return ClosingNamespace
	case classRe.MatchString(line):
		return Class
	case constantRe.MatchString(line):
		return Constant
	case functionRe.MatchString(line):
		return Function
	case structRe.MatchString(line):
		return Struct
	case typeAliasRe.MatchString(line):
		return TypeAlias
	case IsUsingDirective(line):
		return UsingDirective
	case IsUsingDeclaration(line):
		return UsingDeclaration
	}
	return Text
}

// IsInclude matches an include of a project header; project headers end in
// .hpp.
func IsInclude(line string) bool {
	return strings.HasPrefix(line, includePrefix) && strings.HasSuffix(line, `.hpp"`)
}

// IsOwnHeaderInclude matches the include of the file's own header.
func IsOwnHeaderInclude(line, ownHeader string) bool {
	return ownHeader != "" && line == includePrefix+ownHeader+`"`
}

// IsOpeningNamespace matches "namespace foo {" but neither anonymous
// namespaces nor namespace aliases.
func IsOpeningNamespace(line string) bool {
	return line != "namespace {" &&
		strings.HasPrefix(line, "namespace ") &&
		!namespaceAliasRe.MatchString(line)
}

// IsClosingNamespace matches "}  // namespace foo". The closing line of an
// anonymous namespace has no name and does not match.
func IsClosingNamespace(line string) bool {
	return line != closingNamespacePrefix && strings.HasPrefix(line, closingNamespacePrefix)
}

// IsUsingDirective matches "using namespace a::b;".
func IsUsingDirective(line string) bool {
	return strings.HasPrefix(line, usingDirectivePrefix)
}

// IsUsingDeclaration matches an unindented "using a::b;" that is not a directive.
func IsUsingDeclaration(line string) bool {
	return !IsUsingDirective(line) && usingDeclarationRe.MatchString(line)
}

// IncludedPath returns the segments of the included path, without the .hpp
// extension.
func IncludedPath(line string) []string {
	path := strings.TrimSuffix(strings.TrimPrefix(line, includePrefix), `.hpp"`)
	return strings.Split(path, "/")
}

// OpeningNamespaceName returns the name opened by "namespace foo {".
func OpeningNamespaceName(line string) string {
	return strings.TrimSuffix(strings.TrimPrefix(line, "namespace "), " {")
}

// ClosingNamespaceName returns the name closed by "}  // namespace foo".
func ClosingNamespaceName(line string) string {
	return strings.TrimPrefix(line, closingNamespacePrefix+" ")
}

// ClassName returns the name of a class declaration or definition.
func ClassName(line string) string {
	return declarationTailRe.ReplaceAllString(strings.TrimPrefix(line, "class "), "")
}

// StructName returns the name of a struct declaration or definition.
func StructName(line string) string {
	return declarationTailRe.ReplaceAllString(strings.TrimPrefix(line, "struct "), "")
}

// ConstantName returns the name of a constant.
func ConstantName(line string) string {
	return constantTailRe.ReplaceAllString(constantHeadRe.ReplaceAllString(line, ""), "")
}

// FunctionName returns the last word before the opening parenthesis.
func FunctionName(line string) string {
	return functionHeadRe.ReplaceAllString(functionArgsRe.ReplaceAllString(line, ""), "")
}

// TypeAliasName returns the alias introduced by "using Foo = ...".
func TypeAliasName(line string) string {
	return typeAliasTailRe.ReplaceAllString(strings.TrimPrefix(line, "using "), "")
}

// UsingDirectiveNamespace returns the namespace named by a using-directive.
func UsingDirectiveNamespace(line string) string {
	return strings.TrimSuffix(strings.TrimPrefix(line, usingDirectivePrefix), ";")
}

// UsingDeclarationName returns the qualified name of a using-declaration.
func UsingDeclarationName(line string) string {
	return strings.TrimSuffix(strings.TrimPrefix(line, "using "), ";")
}
