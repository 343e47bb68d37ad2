package shortcuts

import "hash/crc32"

// GenerateAppID computes the AppID Steam assigns to a non-Steam game. It is
// the IEEE CRC-32 of the exe path concatenated with the app name and a single
// NUL terminator, with the top bit forced on so Steam treats it as a legacy
// shortcut ID. The same name and exe always produce the same AppID, which is
// what lets a re-run find and reuse an existing shortcut and prefix instead of
// creating duplicates.
func GenerateAppID(appName, exePath string) uint32 {
	crc := crc32.ChecksumIEEE([]byte(exePath + appName + "\x00"))
	return crc | 0x80000000
}
