package symbols

// JSQueries captures JavaScript declaration sites. Same capture naming
// contract as TSQueries — @<kind>.name on the identifier token,
// @<kind>.definition on the enclosing declaration — minus everything
// type-level (interfaces, type aliases, enums), which JavaScript's
// grammar doesn't have.
const JSQueries = `
; --- functions -----------------------------------------------------------

; function myFunction() { ... }
(function_declaration
  name: (identifier) @function.name
) @function.definition

; function* myGenerator() { ... }
(generator_function_declaration
  name: (identifier) @function.name
) @function.definition

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

; --- classes -------------------------------------------------------------

; class MyClass { ... }
(class_declaration
  name: (identifier) @class.name
  body: (class_body) @body
) @class.definition

; const MyClass = class { ... }
(variable_declarator
  name: (identifier) @class.name
  value: (class)
) @class.definition

; --- members -------------------------------------------------------------

; myMethod() { ... }  — also covers getters, setters, and static methods
(method_definition
  name: (property_identifier) @method.name
) @method.definition

; class MyClass { name = "x"; #id = 1; }
(class_declaration
  body: (class_body
    (field_definition
      property: (property_identifier) @property.name
    ) @property.definition
  )
)

; --- variables -----------------------------------------------------------

; const/let bindings
(lexical_declaration
  (variable_declarator
    name: (identifier) @variable.name
  ) @variable.definition
)

; var bindings
(variable_declaration
  (variable_declarator
    name: (identifier) @variable.name
  ) @variable.definition
)

; --- object-literal members (CommonJS export surfaces) -------------------

; const obj = { myMethod: function() { ... } }
(pair
  key: (property_identifier) @function.name
  value: (function_expression)
) @function.definition

; const obj = { myMethod: () => { ... } }
(pair
  key: (property_identifier) @function.name
  value: (arrow_function)
) @function.definition
`
