// Domain-metadata recognition: tags variable symbols bound to recognized
// framework factory calls (createAction/createEffect) with a
// DomainMetadata record.
//
// Walks down to the call_expression, reads its callee name, then reads
// the enclosing variable_declarator to bind the result back to a symbol.
// Recognition failure is silent — DomainMetadata is simply left nil,
// never an error.
package worker

import ts "github.com/tree-sitter/go-tree-sitter"

// recognizeDomainMetadata inspects the variable_declarator a symbol's
// identifier is bound in (if any) for a createAction(...)/createEffect(...)
// initializer and returns the tagged metadata, or nil if none applies.
func (e *Extractor) recognizeDomainMetadata(declarationNode, definitionNode *ts.Node, sourceCode []byte) *DomainMetadata {
	if definitionNode == nil {
		return nil
	}

	declarator := definitionNode.Parent()
	if declarator == nil || declarator.GrammarName() != "variable_declarator" {
		return nil
	}

	value := declarator.ChildByFieldName("value")
	if value == nil || value.GrammarName() != "call_expression" {
		return nil
	}

	callee := callExpressionCalleeName(value, sourceCode)
	switch callee {
	case "createAction":
		return &DomainMetadata{Kind: DomainMetadataAction, TypeString: actionTypeString(value, sourceCode)}
	case "createEffect":
		return &DomainMetadata{Kind: DomainMetadataEffect, TypeString: actionTypeString(value, sourceCode)}
	default:
		return nil
	}
}

// actionTypeString extracts the action's type discriminator: the first
// string-literal argument (createAction("[Auth] Login") → "[Auth] Login"),
// falling back to the first explicit generic type argument when the call
// takes no string.
func actionTypeString(call *ts.Node, sourceCode []byte) string {
	if args := call.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
		first := args.NamedChild(0)
		if first != nil && first.GrammarName() == "string" {
			for i := uint(0); i < first.NamedChildCount(); i++ {
				if frag := first.NamedChild(i); frag != nil && frag.GrammarName() == "string_fragment" {
					return string(frag.Utf8Text(sourceCode))
				}
			}
			return ""
		}
	}
	return callExpressionTypeArgument(call, sourceCode)
}

// callExpressionCalleeName returns the bare identifier or trailing
// member-access property name of a call_expression's callee, e.g.
// createAction(...) → "createAction", NgRx.createAction(...) → "createAction".
func callExpressionCalleeName(call *ts.Node, sourceCode []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.GrammarName() {
	case "identifier":
		return string(fn.Utf8Text(sourceCode))
	case "member_expression":
		if prop := fn.ChildByFieldName("property"); prop != nil {
			return string(prop.Utf8Text(sourceCode))
		}
	}
	return ""
}

// callExpressionTypeArgument returns the first explicit generic type
// argument of a call, e.g. createAction<LoginSuccess>(...) → "LoginSuccess".
// Returns "" if the call has no type_arguments.
func callExpressionTypeArgument(call *ts.Node, sourceCode []byte) string {
	for i := uint(0); i < call.ChildCount(); i++ {
		child := call.Child(i)
		if child == nil {
			continue
		}
		if child.GrammarName() == "type_arguments" && child.NamedChildCount() > 0 {
			if arg := child.NamedChild(0); arg != nil {
				return string(arg.Utf8Text(sourceCode))
			}
		}
	}
	return ""
}
