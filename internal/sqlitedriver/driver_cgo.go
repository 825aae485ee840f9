//go:build cgo

package sqlitedriver

import (
	_ "github.com/mutecomm/go-sqlcipher/v4" // self-registers as "sqlite3"
)

// EncryptionSupported reports whether PRAGMA key works on this build.
// go-sqlcipher bundles SQLCipher, so CGO builds can open encrypted
// databases.
const EncryptionSupported = true
