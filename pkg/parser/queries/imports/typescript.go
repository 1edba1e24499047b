// Package imports holds the tree-sitter queries that capture import,
// export, and re-export statements — the raw material for ImportInfo and
// ReExportInfo records and for cross-file navigation hints.
package imports

// TSQueries captures TypeScript import/export statements: ES-module
// imports (named, default, namespace, type-only), exported declarations,
// and re-exports. Import and re-export captures carry the statement's
// module source in the same match.
const TSQueries = `
; ===========================================================================
; IMPORT STATEMENTS
; ===========================================================================
; Each pattern captures the statement's source alongside the binding it
; introduces, so the Worker can group bindings per from-module clause
; without cross-match state. Type-only imports (import type { Foo } ...)
; match the same patterns — the extra "type" token doesn't block them —
; and are indexed as ordinary bindings.

; Named imports: import { foo, bar, baz as b } from './utils';
; One match per specifier. An aliased specifier matches both patterns;
; the Worker dedupes names.
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
    name: (type_identifier) @export.name
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

; TypeScript interface export: export interface User {}
(export_statement
  declaration: (interface_declaration
    name: (type_identifier) @export.name
  ) @export.declaration
)

; TypeScript type alias export: export type ID = string;
(export_statement
  declaration: (type_alias_declaration
    name: (type_identifier) @export.name
  ) @export.declaration
)

; TypeScript enum export: export enum Color {}
(export_statement
  declaration: (enum_declaration
    name: (identifier) @export.name
  ) @export.declaration
)
`
