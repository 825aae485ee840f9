//go:build !cgo

package sqlitedriver

import (
	"database/sql"

	"modernc.org/sqlite"
)

// modernc registers itself as "sqlite"; the rest of the code opens
// "sqlite3", so register it under that name too.
func init() {
	sql.Register("sqlite3", &sqlite.Driver{})
}

// EncryptionSupported reports whether PRAGMA key works on this build.
// The pure-Go driver has no SQLCipher support.
const EncryptionSupported = false
