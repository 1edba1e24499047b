// Package symbols holds the tree-sitter queries that capture
// declaration sites — the name slots the Worker turns into Symbol
// records. Identifier occurrences outside these captures fall through to
// the references query for usage classification.
package symbols

// TSQueries captures TypeScript declaration sites. Each pattern captures
// the identifier token as @<kind>.name (the Symbol's position) and the
// enclosing declaration as @<kind>.definition; the capture's kind prefix
// becomes the Symbol's kind.
const TSQueries = `
; ============================================================================
; Functions
; ============================================================================

; Function declarations
; function myFunction() { ... }
(function_declaration
  name: (identifier) @function.name
) @function.definition

; Function expressions (captured as functions, not variables)
; const myFunc = function() { ... }
(variable_declarator
  name: (identifier) @function.name
  value: (function_expression)
) @function.definition

; const myArrow = () => { ... }
; Bound arrows are variables: the binding, not the lambda, is the symbol.
(variable_declarator
  name: (identifier) @variable.name
  value: (arrow_function)
) @variable.definition

; ============================================================================
; Classes
; ============================================================================

; Class declarations
; class MyClass { ... }
(class_declaration
  name: (type_identifier) @class.name
  body: (class_body) @body
) @class.definition

; Nested class expressions (static properties)
; class Application { static Logger = class { ... } }
(public_field_definition
  name: (property_identifier) @class.name
  value: (class)
) @class.definition

; ============================================================================
; Methods
; ============================================================================

; Method definitions in classes
; class MyClass { myMethod() { ... } }
(class_declaration
  body: (class_body
    (method_definition
      name: (property_identifier) @method.name
    ) @method.definition
  )
)

; Methods inside nested class expressions
; class Application { static Logger = class { info() {...} } }
(class
  body: (class_body
    (method_definition
      name: (property_identifier) @method.name
    ) @method.definition
  )
)

; ============================================================================
; Class properties
; ============================================================================

; Public/private/readonly class fields
; class MyClass { name: string; #id = 1; }
(class_declaration
  body: (class_body
    (public_field_definition
      name: (property_identifier) @property.name
    ) @property.definition
  )
)

; ============================================================================
; Variables & Constants
; ============================================================================

; Variable declarations (let, const, var)
; const myVar = 42;
(lexical_declaration
  (variable_declarator
    name: (identifier) @variable.name
  ) @variable.definition
)

; ============================================================================
; Types & Interfaces
; ============================================================================

; Type aliases
; type MyType = string | number;
(type_alias_declaration
  name: (type_identifier) @type.name
) @type.definition

; Interface declarations
; interface MyInterface { ... }
(interface_declaration
  name: (type_identifier) @interface.name
) @interface.definition

; ============================================================================
; Enums
; ============================================================================

; Enum declarations
; enum MyEnum { A, B, C }
(enum_declaration
  name: (identifier) @enum.name
) @enum.definition
`
