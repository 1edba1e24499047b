package references

// JSQueries contains tree-sitter query patterns that capture every
// identifier-shaped token in JavaScript/JSX source. See TSQueries for the
// classification rationale — JavaScript has no type_identifier node.
const JSQueries = `
(identifier) @reference.identifier
(property_identifier) @reference.identifier
(shorthand_property_identifier) @reference.identifier
(shorthand_property_identifier_pattern) @reference.identifier
`
