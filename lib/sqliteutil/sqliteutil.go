package sqliteutil

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// OpenDB opens a database and applies the given schema. `dsn` is
// either a filesystem path / ":memory:" (embedded sqlite) or a
// libsql:// url (remote turso replica).
func OpenDB(schema, dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	if strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "wss://") {
		db, err = sql.Open("libsql", dsn)
	} else {
		db, err = sql.Open("sqlite", dsn)
	}
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
