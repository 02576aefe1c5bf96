package storage

import (
	"path"
	"strings"
)

// EntryKey returns the blob key for a file belonging to an entry:
// files/{id}/{filename}.
func EntryKey(entryID, filename string) string {
	return path.Join("files", entryID, SafeFilename(filename))
}

// CanonicalKey returns the key of an entry's normalized audio.
func CanonicalKey(entryID string) string {
	return EntryKey(entryID, entryID+".mp3")
}

// SafeFilename strips directory components and characters that are unsafe
// in object keys.
func SafeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return -1
		case strings.ContainsRune(`:*?"<>|`, r):
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "media"
	}
	return name
}
