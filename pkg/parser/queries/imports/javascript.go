package imports

// JSQueries captures JavaScript import/export statements: the same
// ES-module forms as TSQueries minus the type system, plus the CommonJS
// require/module.exports shapes older libraries still use. Import and
// re-export captures carry the statement's module source in the same
// match.
const JSQueries = `
; ===========================================================================
; IMPORT STATEMENTS
; ===========================================================================

; Named imports: import { foo, bar, baz as b } from './utils';
; One match per specifier, carrying the statement's source so the Worker
; can group bindings per from-module clause without cross-match state.
; An aliased specifier matches both patterns; the Worker dedupes names.
(import_statement
  (import_clause
    (named_imports
      (import_specifier
        name: (identifier) @import.named
      )
    )
  )
  source: (string (string_fragment) @import.source)
)

(import_statement
  (import_clause
    (named_imports
      (import_specifier
        name: (identifier) @import.named
        alias: (identifier) @import.alias
      )
    )
  )
  source: (string (string_fragment) @import.source)
)

; Default import: import React from 'react';
(import_statement
  (import_clause
    (identifier) @import.default
  )
  source: (string (string_fragment) @import.source)
)

; Namespace import: import * as utils from './utils';
(import_statement
  (import_clause
    (namespace_import
      (identifier) @import.namespace
    )
  )
  source: (string (string_fragment) @import.source)
)

; ===========================================================================
; EXPORT STATEMENTS
; ===========================================================================

; Named function export: export function foo() {}
(export_statement
  declaration: (function_declaration
    name: (identifier) @export.name
  ) @export.declaration
)

; Named class export: export class MyClass {}
(export_statement
  declaration: (class_declaration
    name: (identifier) @export.name
  ) @export.declaration
)

; Named variable export: export const foo = 1;
(export_statement
  declaration: (lexical_declaration
    (variable_declarator
      name: (identifier) @export.name
    )
  ) @export.declaration
)

; Default export with function: export default function() {}
; Capture the function_expression as both declaration and give it a default name
(export_statement
  value: (function_expression) @export.declaration
) @export.default

; Default export with identifier: export default foo;
(export_statement
  value: (identifier) @export.default
)

; Export list names: export { foo, bar };
; Match individual specifiers without source
(export_specifier
  name: (identifier) @export.name
)

; Named re-exports: export { foo, bar } from './other';
; One match per specifier, each carrying the statement's source, so the
; Worker can attach every name to its module without cross-match state.
(export_statement
  (export_clause
    (export_specifier
      name: (identifier) @export.reexport.name
    )
  )
  source: (string (string_fragment) @export.reexport.source)
)

; Any re-export, covering export * from './other'; also fires for named
; re-exports, which the Worker dedupes by (line, module).
(export_statement
  source: (string (string_fragment) @export.reexport.source)
)

; ===========================================================================
; COMMONJS IMPORTS (require)
; ===========================================================================
; CommonJS uses standard JavaScript nodes (not special syntax):
; - require() is a regular call_expression
; - module.exports is a member_expression with assignment_expression
;
; These patterns enable support for popular JavaScript libraries that use
; CommonJS (lodash, express, etc.)

; Simple require: const foo = require('./module')
; Treat as namespace import (entire module bound to identifier)
(lexical_declaration
  (variable_declarator
    name: (identifier) @import.commonjs.namespace
    value: (call_expression
      function: (identifier) @_require (#eq? @_require "require")
      arguments: (arguments
        (string (string_fragment) @import.commonjs.source)
      )
    )
  )
)

; Destructured require - shorthand: const { bar } = require('./module')
; Each property is a separate named import
(lexical_declaration
  (variable_declarator
    name: (object_pattern
      (shorthand_property_identifier_pattern) @import.commonjs.named
    )
    value: (call_expression
      function: (identifier) @_require (#eq? @_require "require")
      arguments: (arguments
        (string (string_fragment) @import.commonjs.source)
      )
    )
  )
)

; Destructured require - with alias: const { bar: baz } = require('./module')
; bar is the exported name, baz is the local binding
(lexical_declaration
  (variable_declarator
    name: (object_pattern
      (pair_pattern
        key: (property_identifier) @import.commonjs.key
        value: (identifier) @import.commonjs.value
      )
    )
    value: (call_expression
      function: (identifier) @_require (#eq? @_require "require")
      arguments: (arguments
        (string (string_fragment) @import.commonjs.source)
      )
    )
  )
)

; Member access require: const bar = require('./module').bar
; Import specific property from module
(lexical_declaration
  (variable_declarator
    name: (identifier) @import.commonjs.named
    value: (member_expression
      object: (call_expression
        function: (identifier) @_require (#eq? @_require "require")
        arguments: (arguments
          (string (string_fragment) @import.commonjs.source)
        )
      )
      property: (property_identifier) @import.commonjs.property
    )
  )
)

; ===========================================================================
; COMMONJS EXPORTS
; ===========================================================================
; CommonJS exports use assignment to module.exports or exports object.
; We extract the exported names to build the export graph.

; module.exports = value (default export)
; Assigns entire module.exports to a single value
(assignment_expression
  left: (member_expression
    object: (identifier) @_module (#eq? @_module "module")
    property: (property_identifier) @_exports (#eq? @_exports "exports")
  )
  right: (identifier) @export.commonjs.default
)

; module.exports = { foo, bar } - shorthand properties
; Object literal with shorthand property names
(assignment_expression
  left: (member_expression
    object: (identifier) @_module (#eq? @_module "module")
    property: (property_identifier) @_exports (#eq? @_exports "exports")
  )
  right: (object
    (shorthand_property_identifier) @export.commonjs.name
  )
)

; module.exports = { foo: value } - full properties
; Object literal with explicit key-value pairs
(assignment_expression
  left: (member_expression
    object: (identifier) @_module (#eq? @_module "module")
    property: (property_identifier) @_exports (#eq? @_exports "exports")
  )
  right: (object
    (pair
      key: (property_identifier) @export.commonjs.name
    )
  )
)

; exports.foo = value
; Direct property assignment to exports object
(assignment_expression
  left: (member_expression
    object: (identifier) @_exports (#eq? @_exports "exports")
    property: (property_identifier) @export.commonjs.name
  )
)

; module.exports.foo = value
; Property assignment to module.exports
(assignment_expression
  left: (member_expression
    object: (member_expression
      object: (identifier) @_module (#eq? @_module "module")
      property: (property_identifier) @_exports (#eq? @_exports "exports")
    )
    property: (property_identifier) @export.commonjs.name
  )
)
`
