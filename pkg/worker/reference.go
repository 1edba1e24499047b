// Reference extraction and declaration-vs-usage classification.
//
// Every identifier-shaped token in the file is captured once by the
// references query. For each capture this file decides whether the
// token sits in a declaration context (in which case a Symbol for it was
// already produced by extractSymbols, and the occurrence is dropped) or
// is a usage (in which case it becomes a Reference, with a scope id and
// an isLocal flag computed by walking the enclosing scope chain).
package worker

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/smartindex/smartindex/pkg/parser"
	"github.com/smartindex/smartindex/pkg/parser/queries"
)

// extractReferences classifies every captured identifier as a declaration
// (skipped — already a Symbol) or a usage (emitted as a Reference).
// matches holds the references-query matches followed by the symbols-query
// matches: only "reference" captures become References, and the symbol
// matches supply the function-local declarations used for IsLocal.
func (e *Extractor) extractReferences(matches []queries.QueryMatch, sourceCode []byte, uri string, lang parser.Language) []Reference {
	locals := e.collectLocalDeclarations(matches, sourceCode, lang)

	refs := make([]Reference, 0, len(matches))
	for _, match := range matches {
		for _, capture := range match.Captures {
			if capture.Category != "reference" {
				continue
			}
			node := capture.Node
			if node == nil || e.isDeclarationContext(node) {
				continue
			}

			chain := e.scopeChain(node, sourceCode, lang)
			scopeID := strings.Join(chain, "::")

			refs = append(refs, Reference{
				Name:      capture.Text,
				URI:       uri,
				Line:      capture.Location.StartLine,
				Character: capture.Location.StartCharacter,
				ScopeId:   scopeID,
				IsLocal:   e.isLocalReference(capture.Text, scopeID, locals),
			})
		}
	}

	return refs
}

// isDeclarationContext reports whether node sits in a
// declaration-context slot: a
// function/class/interface/type-alias/enum name slot; a variable
// declarator's bound identifier; a class method/property key (when not
// computed); an object-literal property key (when not computed); an
// import specifier's local binding; or a function parameter binding.
func (e *Extractor) isDeclarationContext(node *ts.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}

	switch parent.GrammarName() {
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "interface_declaration",
		"type_alias_declaration", "enum_declaration", "method_definition":
		return fieldIs(parent, node, "name")

	case "variable_declarator":
		return fieldIs(parent, node, "name")

	case "public_field_definition":
		return fieldIs(parent, node, "name")

	case "field_definition":
		return fieldIs(parent, node, "property")

	case "pair":
		// Object-literal property key, only when not computed ([expr]: ...).
		return fieldIs(parent, node, "key")

	case "import_specifier":
		return fieldIs(parent, node, "name") || fieldIs(parent, node, "alias")

	case "namespace_import", "import_clause":
		return true

	case "required_parameter", "optional_parameter":
		return fieldIs(parent, node, "pattern") || fieldIs(parent, node, "name")

	case "formal_parameters":
		// Plain JS parameter with no type annotation: (a, b) => ...
		return node.GrammarName() == "identifier"
	}

	return false
}

// fieldIs reports whether node is the child of parent bound to field.
func fieldIs(parent, node *ts.Node, field string) bool {
	f := parent.ChildByFieldName(field)
	return f != nil && f.StartByte() == node.StartByte() && f.EndByte() == node.EndByte()
}

// collectLocalDeclarations walks every symbol-query match for variable
// declarators, recording which ones live directly inside a
// function/method body (as opposed to module or class top level), keyed
// by the "::"-joined scope chain of the function/method body they're
// declared in — the same chain a Reference nested in that body would
// compute for itself. IsLocal is true iff the referenced name is
// declared this way inside a function scope that encloses the reference.
// Parameter bindings are not recorded, so a reference to a parameter is
// not marked local.
func (e *Extractor) collectLocalDeclarations(matches []queries.QueryMatch, sourceCode []byte, lang parser.Language) map[string][]string {
	locals := make(map[string][]string)

	for _, match := range matches {
		nameCapture := e.findNameCapture(match.Captures)
		if nameCapture == nil {
			continue
		}
		if nameCapture.Category != "variable" {
			continue
		}
		if enclosingFunctionScope(nameCapture.Node) == nil {
			continue
		}
		scopeID := strings.Join(e.scopeChain(nameCapture.Node, sourceCode, lang), "::")
		locals[scopeID] = append(locals[scopeID], nameCapture.Text)
	}

	return locals
}

// enclosingFunctionScope walks up from node to the nearest enclosing
// function_declaration/method_definition/arrow or function expression,
// or nil if node is at module/class top level.
func enclosingFunctionScope(node *ts.Node) *ts.Node {
	current := node.Parent()
	for current != nil {
		switch current.GrammarName() {
		case "function_declaration", "generator_function_declaration",
			"method_definition", "function_expression", "arrow_function":
			return current
		}
		current = current.Parent()
	}
	return nil
}

// isLocalReference reports whether name is declared in a function scope
// that actually encloses refScopeID: a local declaration's scope chain
// must be refScopeID itself, or a strict prefix of it (the reference
// sits in that function's body or in a named scope nested inside it).
// A declaration scoped to an unrelated function never makes a
// same-named reference elsewhere local — the lookup is scope-chain
// aware, not a bare name search.
func (e *Extractor) isLocalReference(name, refScopeID string, locals map[string][]string) bool {
	for scopeID, names := range locals {
		if !scopeEncloses(scopeID, refScopeID) {
			continue
		}
		for _, n := range names {
			if n == name {
				return true
			}
		}
	}
	return false
}

// scopeEncloses reports whether declScopeID is refScopeID itself or an
// ancestor of it in the "::"-joined scope chain. An empty declScopeID
// (the declaring function contributed no named frame to the chain, e.g.
// an anonymous arrow function) only encloses an equally empty
// refScopeID, so an anonymous scope's locals never leak into a named
// sibling scope's references.
func scopeEncloses(declScopeID, refScopeID string) bool {
	if declScopeID == "" {
		return refScopeID == ""
	}
	if declScopeID == refScopeID {
		return true
	}
	return strings.HasPrefix(refScopeID, declScopeID+"::")
}
