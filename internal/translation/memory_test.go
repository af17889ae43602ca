package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCaseFoldsAndCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "hello world", Normalize("  Hello   World  "))
	assert.Equal(t, TextHash("Hello World"), TextHash("hello world"))
}

func TestNormalizeFoldsUnicodeBeyondASCII(t *testing.T) {
	// U+212A KELVIN SIGN case-folds to ASCII "k"; a bare strings.ToLower
	// leaves it untouched, which would silently miss a translation-memory
	// hit against an ordinary lowercase "k".
	assert.Equal(t, "k", Normalize("K"))
}
