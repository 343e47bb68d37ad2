package shortcuts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "shortcuts.vdf"))
}

func TestListMissingFile(t *testing.T) {
	t.Parallel()

	records, err := testStore(t).List()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListEmptyFile(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	require.NoError(t, os.WriteFile(store.Path, nil, 0644))

	records, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListCorruptFile(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	// object open with a bogus type byte inside
	require.NoError(t, os.WriteFile(store.Path, []byte{0x00, 'a', 0x00, 0x05, 'b', 0x00}, 0644))

	_, err := store.List()
	assert.ErrorIs(t, err, ErrCorruptStore)
}

func TestListMissingShortcutsKey(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	// valid binary vdf, wrong root: {"other": {}}
	require.NoError(t, os.WriteFile(store.Path, []byte{
		0x00, 'o', 't', 'h', 'e', 'r', 0x00, 0x08, 0x08,
	}, 0644))

	_, err := store.List()
	assert.ErrorIs(t, err, ErrCorruptStore)
}

func TestUpsertIntoFreshStore(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	rec := NewRecord("Mod Organizer 2", "/home/user/MO2/ModOrganizer.exe", "/home/user/MO2")

	appID, err := store.Upsert(rec)
	require.NoError(t, err)
	assert.Equal(t, rec.AppID, appID)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, "0", got.Index)
	assert.Equal(t, "Mod Organizer 2", got.AppName)
	assert.Equal(t, `"/home/user/MO2/ModOrganizer.exe"`, got.Exe)
	assert.Equal(t, `"/home/user/MO2"`, got.StartDir)
	assert.Equal(t, rec.AppID, got.AppID)
	assert.Equal(t, int32(1), got.AllowDesktopConfig)
	assert.Equal(t, int32(1), got.AllowOverlay)
}

func TestUpsertAppendsAfterExisting(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	for _, name := range []string{"Skyrim SE", "Fallout 4", "Starfield"} {
		_, err := store.Upsert(NewRecord(name, "/games/"+name+".exe", "/games"))
		require.NoError(t, err)
	}

	_, err := store.Upsert(NewRecord("Vortex", "/home/user/Vortex/Vortex.exe", "/home/user/Vortex"))
	require.NoError(t, err)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "3", records[3].Index)
	assert.Equal(t, "Vortex", records[3].AppName)
}

func TestUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	rec := NewRecord("Mod Organizer 2", "/home/user/MO2/ModOrganizer.exe", "/home/user/MO2")

	first, err := store.Upsert(rec)
	require.NoError(t, err)
	second, err := store.Upsert(rec)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0", records[0].Index)
}

func TestUpsertReplacesMatchingTarget(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	_, err := store.Upsert(NewRecord("Skyrim SE", "/games/skyrim.exe", "/games"))
	require.NoError(t, err)

	original := NewRecord("Mod Organizer 2", "/home/user/MO2/ModOrganizer.exe", "/home/user/MO2")
	originalID, err := store.Upsert(original)
	require.NoError(t, err)

	updated := NewRecord("Mod Organizer 2", "/home/user/MO2/ModOrganizer.exe", "/home/user/MO2")
	updated.LaunchOptions = `"nxm://%u"`
	updated.Icon = "/home/user/MO2/icon.png"

	updatedID, err := store.Upsert(updated)
	require.NoError(t, err)
	assert.Equal(t, originalID, updatedID)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 2)

	got := records[1]
	assert.Equal(t, "1", got.Index)
	assert.Equal(t, originalID, got.AppID)
	assert.Equal(t, `"nxm://%u"`, got.LaunchOptions)
	assert.Equal(t, "/home/user/MO2/icon.png", got.Icon)
}

func TestUpsertPreservesForeignAppID(t *testing.T) {
	t.Parallel()

	store := testStore(t)

	// A record some other tool wrote with its own AppID.
	foreign := NewRecord("Vortex", "/home/user/Vortex/Vortex.exe", "/home/user/Vortex")
	foreign.AppID = 0x80000001
	require.NoError(t, store.Write([]Record{withIndex(foreign, "0")}))

	got, err := store.Upsert(NewRecord("Vortex", "/home/user/Vortex/Vortex.exe", "/home/user/Vortex"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x80000001), got)
}

func withIndex(r Record, index string) Record {
	r.Index = index
	return r
}

func TestAppIDSurvivesSignedStorage(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	rec := NewRecord("Enderal SE", "/games/enderal.exe", "/games")
	// Top bit set, so the stored int32 is negative.
	rec.AppID = 0xFFFFFFFE

	require.NoError(t, store.Write([]Record{withIndex(rec, "0")}))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint32(0xFFFFFFFE), records[0].AppID)
}

func TestWriteCreatesBackup(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	_, err := store.Upsert(NewRecord("Skyrim SE", "/games/skyrim.exe", "/games"))
	require.NoError(t, err)

	// Second write should back up the first file.
	_, err = store.Upsert(NewRecord("Fallout 4", "/games/fallout4.exe", "/games"))
	require.NoError(t, err)

	backups, err := filepath.Glob(store.Path + ".bak.*")
	require.NoError(t, err)
	assert.NotEmpty(t, backups)
}

func TestUpsertDerivesAppIDFromRawPath(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	// A record built by hand, not via NewRecord, carries no AppID yet.
	rec := Record{
		AppName:  "Vortex",
		Exe:      Quote("/home/user/Vortex/Vortex.exe"),
		StartDir: Quote("/home/user/Vortex"),
		Tags:     map[string]string{},
	}

	appID, err := store.Upsert(rec)
	require.NoError(t, err)
	assert.Equal(t, GenerateAppID("Vortex", "/home/user/Vortex/Vortex.exe"), appID)
	assert.Equal(t, NewRecord("Vortex", "/home/user/Vortex/Vortex.exe", "/home/user/Vortex").AppID, appID)
}

func TestQuote(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"/a/b"`, Quote("/a/b"))
	assert.Equal(t, `"/a/b"`, Quote(`"/a/b"`))
	assert.Equal(t, `""`, Quote(""))
}

func TestUnquote(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a/b", Unquote(`"/a/b"`))
	assert.Equal(t, "/a/b", Unquote("/a/b"))
	assert.Equal(t, "", Unquote(`""`))
}
