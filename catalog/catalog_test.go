package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"enterprise": KindEnterprise,
		"Products":   KindProduct,
		" services ": KindService,
		"template":   KindTemplate,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("users")
	assert.Error(t, err)
	assert.Equal(t, "products", KindProduct.Resource())
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "cafe-und-kueche", Slug("Café und Küche"))
	assert.Equal(t, "build-and-deploy", Slug("  Build & Deploy!! "))
	assert.Equal(t, "a-b", Slug("a---b"))
	assert.Equal(t, "", Slug("***"))
}
