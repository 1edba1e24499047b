package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Type-annotation extraction backs the hover provider's "declared type"
// line: a varName→typeName map per file, covering explicit annotations
// only — no inference.
func TestTypeAnnotations(t *testing.T) {
	extractor := setupExtractor(t)

	cases := []struct {
		name string
		code string
		want map[string]string
	}{
		{
			name: "simple annotation",
			code: `const service: UserService = new UserService();`,
			want: map[string]string{"service": "UserService"},
		},
		{
			name: "predefined type",
			code: `let count: number = 0;`,
			want: map[string]string{"count": "number"},
		},
		{
			name: "generic extracts first type argument",
			code: `const users: Array<User> = [];`,
			want: map[string]string{"users": "User"},
		},
		{
			name: "function parameters",
			code: `function process(data: DataType, limit: number) {}`,
			want: map[string]string{"data": "DataType", "limit": "number"},
		},
		{
			name: "class property",
			code: `class Service { private api: ApiClient; }`,
			want: map[string]string{"api": "ApiClient"},
		},
		{
			name: "as-expression",
			code: `const service = obj as UserService;`,
			want: map[string]string{"service": "UserService"},
		},
		{
			name: "unannotated declarations stay absent",
			code: `const inferred = compute();`,
			want: map[string]string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := extractor.ExtractFile("annot.ts", []byte(tc.code))
			require.NoError(t, err)

			for varName, wantType := range tc.want {
				assert.Equal(t, wantType, result.TypeAnnotations[varName], "variable %q", varName)
			}
			if len(tc.want) == 0 {
				assert.Empty(t, result.TypeAnnotations)
			}
		})
	}
}

// JavaScript files get an empty annotation query: plain JS yields an
// empty map and never an error.
func TestTypeAnnotationsJavaScript(t *testing.T) {
	extractor := setupExtractor(t)

	result, err := extractor.ExtractFile("plain.js", []byte(`const service = new UserService();`))
	require.NoError(t, err)
	assert.Empty(t, result.TypeAnnotations)
}
