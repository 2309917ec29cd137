package cpt

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Snapshot keys encode the archived directory and the snapshot instant:
//
//	<path with separators flattened to '_'>_on_<20060102T150405>_<8 hex>
//
// The trailing suffix is random entropy so two snapshots within the same
// clock second still get distinct keys. The path portion is lossy (an
// underscore in the original path is indistinguishable from a separator
// after decoding); decoded paths are for display only.

const (
	keySeparator  = "_on_"
	keyTimeFormat = "20060102T150405"

	// ArchiveExt is appended to a key to form the archive filename.
	ArchiveExt = ".zip"
)

var keyPattern = regexp.MustCompile(`^.+_on_\d{8}T\d{6}_[0-9a-f]{8}$`)

// EncodeKey builds a snapshot key for directory at instant t with the given
// entropy suffix.
func EncodeKey(directory string, t time.Time, suffix string) string {
	flat := strings.ReplaceAll(directory, string(filepath.Separator), "_")
	return flat + keySeparator + t.Format(keyTimeFormat) + "_" + suffix
}

// DecodeKey recovers the (display-only) original path and snapshot time from
// a key or archive filename.
func DecodeKey(name string) (directory string, when time.Time, err error) {
	base := strings.TrimSuffix(name, ArchiveExt)
	i := strings.LastIndex(base, keySeparator)
	if i < 0 {
		return "", time.Time{}, fmt.Errorf("malformed snapshot key: %q", name)
	}
	directory = strings.ReplaceAll(base[:i], "_", string(filepath.Separator))
	rest := base[i+len(keySeparator):]
	j := strings.LastIndex(rest, "_")
	if j < 0 {
		return "", time.Time{}, fmt.Errorf("malformed snapshot key: %q", name)
	}
	when, err = time.ParseInLocation(keyTimeFormat, rest[:j], time.Local)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("malformed snapshot key %q: %w", name, err)
	}
	return directory, when, nil
}

// ValidKey reports whether s matches the snapshot key grammar. Pointer
// markers holding anything else are corrupt.
func ValidKey(s string) bool {
	return keyPattern.MatchString(s)
}
