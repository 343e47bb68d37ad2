package shortcuts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAppIDDeterministic(t *testing.T) {
	t.Parallel()

	a := GenerateAppID("Mod Organizer 2", "/home/user/MO2/ModOrganizer.exe")
	b := GenerateAppID("Mod Organizer 2", "/home/user/MO2/ModOrganizer.exe")
	assert.Equal(t, a, b)
}

func TestGenerateAppIDTopBitSet(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"Vortex", "Mod Organizer 2", "", "x"} {
		id := GenerateAppID(name, "/opt/tools/"+name+".exe")
		assert.NotZero(t, id&0x80000000, "AppID for %q must have the top bit set", name)
	}
}

func TestGenerateAppIDInputSensitive(t *testing.T) {
	t.Parallel()

	base := GenerateAppID("Vortex", "/home/user/Vortex/Vortex.exe")

	assert.NotEqual(t, base, GenerateAppID("Vortex2", "/home/user/Vortex/Vortex.exe"))
	assert.NotEqual(t, base, GenerateAppID("Vortex", "/home/user/Other/Vortex.exe"))
}
