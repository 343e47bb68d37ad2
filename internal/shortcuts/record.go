package shortcuts

import (
	"strings"

	"github.com/lodestone-mods/lodestone/internal/vdfbinary"
)

// Record is one non-Steam game entry in shortcuts.vdf.
//
// Exe and StartDir are stored wrapped in double quotes; Quote adds them when
// building a record and decode keeps whatever the file holds.
type Record struct {
	Index               string
	AppName             string
	Exe                 string
	StartDir            string
	Icon                string
	ShortcutPath        string
	LaunchOptions       string
	DevkitGameID        string
	FlatpakAppID        string
	Tags                map[string]string
	AppID               uint32
	IsHidden            int32
	AllowDesktopConfig  int32
	AllowOverlay        int32
	OpenVR              int32
	Devkit              int32
	DevkitOverrideAppID int32
	LastPlayTime        int32
}

// NewRecord builds a shortcut for the given name and executable with Steam's
// default flag values. StartDir is derived by the caller; both paths are
// quoted here.
func NewRecord(appName, exePath, startDir string) Record {
	return Record{
		AppName:            appName,
		Exe:                Quote(exePath),
		StartDir:           Quote(startDir),
		AppID:              GenerateAppID(appName, exePath),
		AllowDesktopConfig: 1,
		AllowOverlay:       1,
		Tags:               map[string]string{},
	}
}

// Quote wraps a path in double quotes unless it already is.
func Quote(path string) string {
	if strings.HasPrefix(path, `"`) && strings.HasSuffix(path, `"`) && len(path) >= 2 {
		return path
	}
	return `"` + path + `"`
}

// Unquote strips the quoting Quote adds, returning the raw path.
func Unquote(path string) string {
	if strings.HasPrefix(path, `"`) && strings.HasSuffix(path, `"`) && len(path) >= 2 {
		return path[1 : len(path)-1]
	}
	return path
}

// SameTarget reports whether two records refer to the same shortcut. Steam
// identity for "already exists" checks is the name/exe/startdir triple, not
// the AppID.
func (r Record) SameTarget(other Record) bool {
	return r.AppName == other.AppName &&
		r.Exe == other.Exe &&
		r.StartDir == other.StartDir
}

// encode writes every field, default-valued or not, in Steam's exact casing.
// Steam's own writer always emits the full field set; omitting fields is only
// acceptable when reading.
func (r Record) encode() *vdfbinary.Object {
	obj := vdfbinary.NewObject()
	// Stored appid is the signed two's-complement view of the unsigned ID.
	obj.SetInt("appid", int32(r.AppID))
	obj.SetString("AppName", r.AppName)
	obj.SetString("Exe", r.Exe)
	obj.SetString("StartDir", r.StartDir)
	obj.SetString("icon", r.Icon)
	obj.SetString("ShortcutPath", r.ShortcutPath)
	obj.SetString("LaunchOptions", r.LaunchOptions)
	obj.SetInt("IsHidden", r.IsHidden)
	obj.SetInt("AllowDesktopConfig", r.AllowDesktopConfig)
	obj.SetInt("AllowOverlay", r.AllowOverlay)
	obj.SetInt("OpenVR", r.OpenVR)
	obj.SetInt("Devkit", r.Devkit)
	obj.SetString("DevkitGameID", r.DevkitGameID)
	obj.SetInt("DevkitOverrideAppID", r.DevkitOverrideAppID)
	obj.SetInt("LastPlayTime", r.LastPlayTime)
	obj.SetString("FlatpakAppID", r.FlatpakAppID)

	tags := vdfbinary.NewObject()
	for k, v := range r.Tags {
		tags.SetString(k, v)
	}
	obj.SetObject("tags", tags)
	return obj
}

// decodeRecord tolerates missing optional fields, defaulting them, so
// shortcuts written by other tools still load.
func decodeRecord(index string, obj *vdfbinary.Object) Record {
	r := Record{Index: index, Tags: map[string]string{}}

	if v, ok := obj.Int("appid"); ok {
		// Negative stored values are AppIDs with the top bit set.
		r.AppID = uint32(v)
	}
	r.AppName, _ = obj.String("AppName")
	r.Exe, _ = obj.String("Exe")
	r.StartDir, _ = obj.String("StartDir")
	r.Icon, _ = obj.String("icon")
	r.ShortcutPath, _ = obj.String("ShortcutPath")
	r.LaunchOptions, _ = obj.String("LaunchOptions")
	r.DevkitGameID, _ = obj.String("DevkitGameID")
	r.FlatpakAppID, _ = obj.String("FlatpakAppID")
	r.IsHidden, _ = obj.Int("IsHidden")
	r.AllowDesktopConfig, _ = obj.Int("AllowDesktopConfig")
	r.AllowOverlay, _ = obj.Int("AllowOverlay")
	r.OpenVR, _ = obj.Int("OpenVR")
	r.Devkit, _ = obj.Int("Devkit")
	r.DevkitOverrideAppID, _ = obj.Int("DevkitOverrideAppID")
	r.LastPlayTime, _ = obj.Int("LastPlayTime")

	if tags, ok := obj.Object("tags"); ok {
		for _, k := range tags.Keys() {
			if v, ok := tags.String(k); ok {
				r.Tags[k] = v
			}
		}
	}
	return r
}
