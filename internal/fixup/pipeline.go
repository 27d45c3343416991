package fixup

import (
	"fmt"

	"github.com/dejo1307/renamespacer/internal/naming"
	"github.com/dejo1307/renamespacer/internal/tree"
)

// Pass is a named tree transformation.
type Pass struct {
	Name  string
	Apply func(t *tree.Tree) error
}

// Pipeline runs passes in registration order.
type Pipeline struct {
	name   string
	passes []Pass
	verify bool
}

// NewPipeline creates a pipeline with the given passes.
func NewPipeline(name string, passes ...Pass) *Pipeline {
	return &Pipeline{name: name, passes: passes}
}

// Name returns the pipeline identifier (e.g. "header").
func (p *Pipeline) Name() string {
	return p.name
}

// Register appends a pass to the pipeline.
func (p *Pipeline) Register(pass Pass) {
	p.passes = append(p.passes, pass)
}

// Passes returns the registered passes.
func (p *Pipeline) Passes() []Pass {
	return p.passes
}

// SetVerify makes Run check the tree invariants after every pass.
func (p *Pipeline) SetVerify(verify bool) *Pipeline {
	p.verify = verify
	return p
}

// Run applies every pass to t and stops at the first error.
func (p *Pipeline) Run(t *tree.Tree) error {
	for _, pass := range p.passes {
		if err := pass.Apply(t); err != nil {
			return fmt.Errorf("%s: %w", pass.Name, err)
		}
		if p.verify {
			if err := t.Check(); err != nil {
				return fmt.Errorf("after %s: %w", pass.Name, err)
			}
		}
	}
	return nil
}

// UsingDeclarationsPass wraps UsingDeclarations.
func UsingDeclarationsPass(r Resolver, conv naming.Convention, internalOnly bool) Pass {
	name := "using_declarations"
	if internalOnly {
		name = "internal_using_declarations"
	}
	return Pass{Name: name, Apply: func(t *tree.Tree) error {
		return UsingDeclarations(t, r, conv, internalOnly)
	}}
}

// LegacyInternalNamespacesPass wraps LegacyInternalNamespaces.
func LegacyInternalNamespacesPass() Pass {
	return Pass{Name: "legacy_internal_namespaces", Apply: LegacyInternalNamespaces}
}

// MissingInternalNamespacesPass wraps MissingInternalNamespaces.
func MissingInternalNamespacesPass(insertUsingDeclarations bool) Pass {
	return Pass{Name: "missing_internal_namespaces", Apply: func(t *tree.Tree) error {
		return MissingInternalNamespaces(t, insertUsingDeclarations)
	}}
}

// CompatibilityNamespacePass wraps CompatibilityNamespace.
func CompatibilityNamespacePass(conv naming.Convention) Pass {
	return Pass{Name: "compatibility_namespace", Apply: func(t *tree.Tree) error {
		return CompatibilityNamespace(t, conv)
	}}
}

// UselessInternalNamespacesPass wraps UselessInternalNamespaces.
func UselessInternalNamespacesPass() Pass {
	return Pass{Name: "useless_internal_namespaces", Apply: UselessInternalNamespaces}
}

// FileUsingDirectivePass wraps FileUsingDirective.
func FileUsingDirectivePass(conv naming.Convention) Pass {
	return Pass{Name: "file_using_directive", Apply: func(t *tree.Tree) error {
		return FileUsingDirective(t, conv)
	}}
}

// HeaderPipeline is applied to the public headers of the project.
//
// Using-declarations that MissingInternalNamespaces moves into a new internal
// namespace are resolved after the move, so that running the pipeline on its
// own output changes nothing.
func HeaderPipeline(r Resolver, conv naming.Convention) *Pipeline {
	return NewPipeline("header",
		UsingDeclarationsPass(r, conv, true),
		LegacyInternalNamespacesPass(),
		MissingInternalNamespacesPass(true),
		Pass{Name: "moved_using_declarations", Apply: func(t *tree.Tree) error {
			return UsingDeclarations(t, r, conv, true)
		}},
		CompatibilityNamespacePass(conv),
	)
}

// BodyPipeline is applied to the .cpp and _body.hpp files of the project,
// tests excepted.
func BodyPipeline(r Resolver, conv naming.Convention) *Pipeline {
	return NewPipeline("body",
		UsingDeclarationsPass(r, conv, false),
		LegacyInternalNamespacesPass(),
		MissingInternalNamespacesPass(false),
	)
}

// TestPipeline is applied to the _test.cpp files of the project.
func TestPipeline(r Resolver, conv naming.Convention) *Pipeline {
	return NewPipeline("test",
		UsingDeclarationsPass(r, conv, false),
		UselessInternalNamespacesPass(),
		FileUsingDirectivePass(conv),
	)
}

// ClientPipeline is applied to the files of the projects that use the
// project being renamespaced.
func ClientPipeline(r Resolver, conv naming.Convention, internalOnly bool) *Pipeline {
	return NewPipeline("client", UsingDeclarationsPass(r, conv, internalOnly))
}
