package references

// TSQueries contains tree-sitter query patterns that capture every
// identifier-shaped token in TypeScript/TSX source.
//
// Unlike the symbols queries, this query does not try to distinguish
// declarations from usages — it captures every candidate occurrence, and
// the worker package classifies each capture as a declaration (already
// produced by the symbols query) or a reference by inspecting its parent
// node. This mirrors how scopeChain/isDeclarationContext walk node.Parent()
// directly instead of encoding scope rules into the query itself.
//
// Each query captures:
//   - @reference.identifier - any identifier, property identifier, or
//     type identifier token
const TSQueries = `
(identifier) @reference.identifier
(property_identifier) @reference.identifier
(type_identifier) @reference.identifier
(shorthand_property_identifier) @reference.identifier
(shorthand_property_identifier_pattern) @reference.identifier
`
