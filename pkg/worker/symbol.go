// Symbol extraction implementation.
package worker

import (
	"hash/fnv"
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/smartindex/smartindex/pkg/parser"
	"github.com/smartindex/smartindex/pkg/parser/queries"
)

// declarationNodeTypes are the AST node kinds whose name-slot identifies a
// declaration's enclosing construct (used both to find the node that holds
// a declaration's modifiers/parameters and to walk the enclosing scope
// chain for ContainerName/ScopeId).
var declarationNodeTypes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"method_definition":              true,
	"class_declaration":              true,
	"interface_declaration":          true,
	"type_alias_declaration":         true,
	"enum_declaration":               true,
	"lexical_declaration":            true,
	"variable_declaration":           true,
	"public_field_definition":        true,
	"field_definition":               true,
}

// extractSymbols processes symbol query matches into Symbol structs.
func (e *Extractor) extractSymbols(matches []queries.QueryMatch, tree *ts.Tree, sourceCode []byte, uri string, lang parser.Language) []Symbol {
	symbols := make([]Symbol, 0, len(matches))

	for _, match := range matches {
		symbol := e.buildSymbol(match, sourceCode, uri, lang)
		if symbol != nil {
			symbols = append(symbols, *symbol)
		}
	}

	// Parameter bindings are declarations too but aren't
	// produced by the symbols query — they're walked directly off each
	// function/method declaration node already found above.
	symbols = append(symbols, e.extractParameterSymbols(matches, sourceCode, uri)...)

	return symbols
}

// buildSymbol creates a Symbol from query captures.
//
// The Symbol's own Line/Character always point at the identifier token,
// never at the enclosing declaration's full range — this index only
// ever needs to navigate to the name, not fetch the declaration body.
func (e *Extractor) buildSymbol(match queries.QueryMatch, sourceCode []byte, uri string, lang parser.Language) *Symbol {
	nameCapture := e.findNameCapture(match.Captures)
	if nameCapture == nil {
		return nil
	}

	name := nameCapture.Text
	kind := e.inferSymbolKind(nameCapture.Category)

	definitionNode := nameCapture.Node
	declarationNode := e.findDeclarationNode(definitionNode)

	symbol := &Symbol{
		Name:          name,
		Kind:          kind,
		URI:           uri,
		Line:          nameCapture.Location.StartLine,
		Character:     nameCapture.Location.StartCharacter,
		ContainerName: e.containerName(definitionNode, sourceCode, lang),
	}

	exportNode := e.findExportStatement(declarationNode, definitionNode)
	if exportNode != nil {
		symbol.Exported = true
		symbol.PubliclyAnnotated = e.hasPublicAnnotation(exportNode, sourceCode)
	}

	if kind == SymbolKindFunction || kind == SymbolKindMethod {
		if declarationNode != nil {
			symbol.SignatureHash = e.signatureHash(declarationNode, sourceCode)
		}
	}

	if dm := e.recognizeDomainMetadata(declarationNode, definitionNode, sourceCode); dm != nil {
		symbol.DomainMetadata = dm
	}

	return symbol
}

// findNameCapture finds the capture with Field == "name".
func (e *Extractor) findNameCapture(captures []queries.QueryCapture) *queries.QueryCapture {
	for i := range captures {
		if captures[i].Field == "name" {
			return &captures[i]
		}
	}
	return nil
}

// inferSymbolKind infers SymbolKind from capture category.
func (e *Extractor) inferSymbolKind(category string) SymbolKind {
	switch category {
	case "function":
		return SymbolKindFunction
	case "class":
		return SymbolKindClass
	case "interface":
		return SymbolKindInterface
	case "type":
		return SymbolKindTypeAlias
	case "enum":
		return SymbolKindEnum
	case "method":
		return SymbolKindMethod
	case "property":
		return SymbolKindProperty
	default:
		return SymbolKindVariable
	}
}

// findExportStatement walks up from declarationNode (falling back to
// nameNode when no declarationNode was found, e.g. a bare top-level
// identifier) looking for an enclosing export_statement within three
// ancestors, stopping at the first enclosing statement block (a function
// or block body) so a nested function's export keyword never leaks onto
// an inner local symbol.
func (e *Extractor) findExportStatement(declarationNode, nameNode *ts.Node) *ts.Node {
	start := declarationNode
	if start == nil {
		start = nameNode
	}
	if start == nil {
		return nil
	}
	current := start.Parent()
	depth := 0
	for current != nil && depth < 3 {
		if current.GrammarName() == "export_statement" {
			return current
		}
		if current.GrammarName() == "statement_block" {
			return nil
		}
		current = current.Parent()
		depth++
	}
	return nil
}

// hasPublicAnnotation reports whether the nearest preceding sibling
// comment of exportNode mentions "@public" or "@api". Only the comment
// immediately above the statement counts — the same "leading comment"
// convention doc generators use.
func (e *Extractor) hasPublicAnnotation(exportNode *ts.Node, sourceCode []byte) bool {
	prev := exportNode.PrevSibling()
	if prev == nil || prev.GrammarName() != "comment" {
		return false
	}
	text := string(prev.Utf8Text(sourceCode))
	return strings.Contains(text, "@public") || strings.Contains(text, "@api")
}

// findDeclarationNode walks up from an identifier to the declaration node
// that holds its modifiers/parameters (function_declaration,
// method_definition, etc.).
func (e *Extractor) findDeclarationNode(nameNode *ts.Node) *ts.Node {
	current := nameNode.Parent()
	depth := 0
	for current != nil && depth < 10 {
		if declarationNodeTypes[current.GrammarName()] {
			return current
		}
		current = current.Parent()
		depth++
	}
	return nil
}

// containerName walks up the scope chain from an identifier node and
// returns the "::"-joined names of enclosing classes/interfaces/
// functions/methods ("UserService::save").
// It never includes the identifier's own name.
func (e *Extractor) containerName(node *ts.Node, sourceCode []byte, lang parser.Language) string {
	chain := e.scopeChain(node, sourceCode, lang)
	// A class/function/method name token's parent is the scope it names;
	// that innermost frame is the symbol itself, not its container.
	if parent := node.Parent(); parent != nil && len(chain) > 0 && fieldIs(parent, node, "name") && e.scopeFrameName(parent, sourceCode, lang) != "" {
		chain = chain[:len(chain)-1]
	}
	return strings.Join(chain, "::")
}

// scopeChain returns the ordered (outermost-first) names of every
// enclosing class/interface/function/method scope above node.
func (e *Extractor) scopeChain(node *ts.Node, sourceCode []byte, lang parser.Language) []string {
	var chain []string
	current := node.Parent()
	for current != nil {
		if name := e.scopeFrameName(current, sourceCode, lang); name != "" {
			chain = append([]string{name}, chain...)
		}
		current = current.Parent()
	}
	return chain
}

// scopeFrameName returns the name of the scope node introduces (class,
// interface, function, or method), or "" if node isn't a scope boundary.
func (e *Extractor) scopeFrameName(node *ts.Node, sourceCode []byte, lang parser.Language) string {
	switch lang {
	case parser.LanguageTypeScript, parser.LanguageJavaScript:
		return e.tsScopeFrameName(node, sourceCode)
	}
	return ""
}

func (e *Extractor) tsScopeFrameName(node *ts.Node, sourceCode []byte) string {
	switch node.GrammarName() {
	case "class_declaration", "interface_declaration":
		if n := node.ChildByFieldName("name"); n != nil {
			return string(n.Utf8Text(sourceCode))
		}
	case "function_declaration", "generator_function_declaration":
		if n := node.ChildByFieldName("name"); n != nil {
			return string(n.Utf8Text(sourceCode))
		}
	case "method_definition":
		if n := node.ChildByFieldName("name"); n != nil {
			return string(n.Utf8Text(sourceCode))
		}
	}
	return ""
}

// signatureHash computes a short stable hash over a function/method's
// parameter names and arity, used to discriminate overloads sharing a
// stable Symbol ID.
func (e *Extractor) signatureHash(declarationNode *ts.Node, sourceCode []byte) string {
	paramsNode := declarationNode.ChildByFieldName("parameters")
	if paramsNode == nil {
		return ""
	}

	var names []string
	for i := uint(0); i < paramsNode.NamedChildCount(); i++ {
		param := paramsNode.NamedChild(i)
		if param == nil {
			continue
		}
		switch param.GrammarName() {
		case "required_parameter", "optional_parameter":
			nameNode := param.ChildByFieldName("pattern")
			if nameNode == nil {
				nameNode = param.ChildByFieldName("name")
			}
			if nameNode != nil {
				names = append(names, string(nameNode.Utf8Text(sourceCode)))
			}
		case "identifier":
			names = append(names, string(param.Utf8Text(sourceCode)))
		}
	}

	h := fnv.New32a()
	h.Write([]byte(strconv.Itoa(len(names))))
	h.Write([]byte("|"))
	h.Write([]byte(strings.Join(names, ",")))
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}

// extractParameterSymbols walks every function/method declaration node
// found while processing symbol matches and emits a Symbol for each
// parameter binding — parameters are declaration contexts like any
// other bound name.
func (e *Extractor) extractParameterSymbols(matches []queries.QueryMatch, sourceCode []byte, uri string) []Symbol {
	var out []Symbol
	seen := make(map[uint]bool)

	for _, match := range matches {
		nameCapture := e.findNameCapture(match.Captures)
		if nameCapture == nil {
			continue
		}
		kind := e.inferSymbolKind(nameCapture.Category)
		if kind != SymbolKindFunction && kind != SymbolKindMethod {
			continue
		}

		declarationNode := e.findDeclarationNode(nameCapture.Node)
		if declarationNode == nil {
			continue
		}
		if seen[declarationNode.StartByte()] {
			continue
		}
		seen[declarationNode.StartByte()] = true

		ownerName := nameCapture.Text
		ownerScope := e.scopeChain(declarationNode, sourceCode, parser.LanguageTypeScript)
		container := strings.Join(append(ownerScope, ownerName), "::")

		paramsNode := declarationNode.ChildByFieldName("parameters")
		if paramsNode == nil {
			continue
		}
		for i := uint(0); i < paramsNode.NamedChildCount(); i++ {
			param := paramsNode.NamedChild(i)
			if param == nil {
				continue
			}
			var nameNode *ts.Node
			switch param.GrammarName() {
			case "required_parameter", "optional_parameter":
				nameNode = param.ChildByFieldName("pattern")
				if nameNode == nil {
					nameNode = param.ChildByFieldName("name")
				}
			case "identifier":
				nameNode = param
			}
			if nameNode == nil || nameNode.GrammarName() != "identifier" {
				continue
			}
			loc := queries.NodeLocation(nameNode, sourceCode)
			out = append(out, Symbol{
				Name:          string(nameNode.Utf8Text(sourceCode)),
				Kind:          SymbolKindParameter,
				URI:           uri,
				Line:          loc.StartLine,
				Character:     loc.StartCharacter,
				ContainerName: container,
			})
		}
	}

	return out
}
