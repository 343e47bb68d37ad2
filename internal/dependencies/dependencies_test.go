package dependencies

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetGameComponents(t *testing.T) {
	t.Parallel()

	d := NewDependencyInstaller()

	fnv := d.GetGameComponents("22380")
	assert.Contains(t, fnv, "d3dx9")
	assert.NotContains(t, fnv, "dotnet8", "New Vegas predates .NET dependencies")

	enderal := d.GetGameComponents("976620")
	assert.Contains(t, enderal, "dotnet8")
	assert.Contains(t, enderal, "d3dcompiler_47")

	fallback := d.GetGameComponents("489830")
	assert.Contains(t, fallback, "vkd3d")
	assert.Contains(t, fallback, "dotnetdesktop6")

	// Every list starts with font smoothing so text renders sanely.
	for _, components := range [][]string{fnv, enderal, fallback} {
		assert.Equal(t, "fontsmooth=rgb", components[0])
	}
}
