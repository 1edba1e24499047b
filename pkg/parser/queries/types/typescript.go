// Package types holds the tree-sitter query that extracts explicit type
// annotations from TypeScript/JavaScript source.
package types

// TSQueries captures explicit type annotations — variable declarations,
// function parameters, class fields, and as-expressions. The Worker
// folds the captures into a per-file varName→typeName map that the hover
// provider serves as a "declared type" line.
//
// Captures per match:
//
//	@type.var.name  the annotated variable/parameter/property name
//	@type.name      the type name, for plain annotations
//	@type.base      the base of a generic (Array in Array<User>)
//	@type.arg       a generic's type arguments (User in Array<User>)
//
// Resolution picks @type.arg over @type.name over @type.base — for
// container types the element type is the useful one. Only explicit
// annotations are captured: unions, conditional types, and destructuring
// bindings need inference this index deliberately doesn't do.
const TSQueries = `
; --- annotated variable declarations ------------------------------------

; const service: UserService = ...
(lexical_declaration
  (variable_declarator
    name: (identifier) @type.var.name
    type: (type_annotation
      (type_identifier) @type.name)))

; const count: number = 0
(lexical_declaration
  (variable_declarator
    name: (identifier) @type.var.name
    type: (type_annotation
      (predefined_type) @type.name)))

; const user: models.User = ...
(lexical_declaration
  (variable_declarator
    name: (identifier) @type.var.name
    type: (type_annotation
      (nested_type_identifier) @type.name)))

; const users: Array<User> = ...
(lexical_declaration
  (variable_declarator
    name: (identifier) @type.var.name
    type: (type_annotation
      (generic_type
        name: (_) @type.base
        type_arguments: (type_arguments
          (type_identifier)+ @type.arg)))))

; const map: Map<string, number> = ...
(lexical_declaration
  (variable_declarator
    name: (identifier) @type.var.name
    type: (type_annotation
      (generic_type
        name: (_) @type.base
        type_arguments: (type_arguments
          (predefined_type)+ @type.arg)))))

; --- annotated function parameters --------------------------------------
; Arrow-function parameters parse as the same required_parameter nodes.

; function process(data: DataType) { ... }
(required_parameter
  pattern: (identifier) @type.var.name
  type: (type_annotation
    (type_identifier) @type.name))

; function log(message: string) { ... }
(required_parameter
  pattern: (identifier) @type.var.name
  type: (type_annotation
    (predefined_type) @type.name))

; function process(items: Array<Item>) { ... }
(required_parameter
  pattern: (identifier) @type.var.name
  type: (type_annotation
    (generic_type
      type_arguments: (type_arguments
        (type_identifier)+ @type.arg))))

; function f(opts: Partial<Observer> & RequestOptions) { ... }
; The generic half of an intersection still names a usable element type.
(required_parameter
  pattern: (identifier) @type.var.name
  type: (type_annotation
    (intersection_type
      (generic_type
        type_arguments: (type_arguments
          (_) @type.arg)))))

; function format(value?: number) { ... }
(optional_parameter
  pattern: (identifier) @type.var.name
  type: (type_annotation
    (type_identifier) @type.name))

; --- annotated class fields ---------------------------------------------

; private service: UserService;
(public_field_definition
  name: (property_identifier) @type.var.name
  type: (type_annotation
    (type_identifier) @type.name))

; public count: number = 0;
(public_field_definition
  name: (property_identifier) @type.var.name
  type: (type_annotation
    (predefined_type) @type.name))

; private users: Array<User> = [];
(public_field_definition
  name: (property_identifier) @type.var.name
  type: (type_annotation
    (generic_type
      type_arguments: (type_arguments
        (type_identifier)+ @type.arg))))

; --- as-expressions -----------------------------------------------------

; const service = obj as UserService
(lexical_declaration
  (variable_declarator
    name: (identifier) @type.var.name
    value: (as_expression
      (type_identifier) @type.name)))

; const count = value as number
(lexical_declaration
  (variable_declarator
    name: (identifier) @type.var.name
    value: (as_expression
      (predefined_type) @type.name)))
`
