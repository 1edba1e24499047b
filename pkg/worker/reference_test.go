package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractFile_IsLocalScopedToDeclaringFunction verifies that a local
// declared inside one function doesn't make a same-named reference in an
// unrelated function count as local: IsLocal must be
// computed against the reference's actual enclosing scope chain, not a
// file-wide search for any matching local name.
func TestExtractFile_IsLocalScopedToDeclaringFunction(t *testing.T) {
	extractor := setupExtractor(t)

	source := []byte(`
const y = "module level";

function f() {
  const y = "local to f";
  return y;
}

function g() {
  return y;
}
`)

	result, err := extractor.ExtractFile("scope.ts", source)
	require.NoError(t, err)

	var refInF, refInG *Reference
	for i := range result.References {
		ref := &result.References[i]
		if ref.Name != "y" {
			continue
		}
		switch ref.ScopeId {
		case "f":
			refInF = ref
		case "g":
			refInG = ref
		}
	}

	require.NotNil(t, refInF, "expected a reference to y inside f")
	require.NotNil(t, refInG, "expected a reference to y inside g")

	assert.True(t, refInF.IsLocal, "y inside f resolves to f's own local declaration")
	assert.False(t, refInG.IsLocal, "y inside g must not be local just because f has an unrelated local y")
}

// TestExtractFile_IsLocalVisibleInNestedScope verifies that a local
// declared in an outer function is still local for a reference in a
// named scope nested inside that same function.
func TestExtractFile_IsLocalVisibleInNestedScope(t *testing.T) {
	extractor := setupExtractor(t)

	source := []byte(`
function outer() {
  const total = 0;

  class Helper {
    read() {
      return total;
    }
  }
}
`)

	result, err := extractor.ExtractFile("nested.ts", source)
	require.NoError(t, err)

	var ref *Reference
	for i := range result.References {
		if result.References[i].Name == "total" {
			ref = &result.References[i]
			break
		}
	}

	require.NotNil(t, ref, "expected a reference to total inside Helper.read")
	assert.True(t, ref.IsLocal, "total declared in outer must be visible to a nested named scope inside outer")
}
