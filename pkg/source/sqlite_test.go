package source

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/dolex-labs/dolex/internal/sqlitedriver"
)

// buildSQLiteFixture creates a small on-disk database with a populated table.
func buildSQLiteFixture(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	stmts := []string{
		`CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, age REAL)`,
		`INSERT INTO people (name, age) VALUES ('Alice', 30), ('Bob', 40)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
}

func TestSQLiteConnectorTest(t *testing.T) {
	c := SQLiteConnector{}
	err := c.Test(context.Background(), map[string]interface{}{"path": ""})
	require.Error(t, err)

	err = c.Test(context.Background(), map[string]interface{}{"path": "/no/such.db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteForeignKeysToImplicitPK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fk.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	stmts := []string{
		`CREATE TABLE teams (id INTEGER PRIMARY KEY, name TEXT)`,
		// References the table, not a column: PRAGMA reports a NULL target.
		`CREATE TABLE players (id INTEGER PRIMARY KEY, team_id INTEGER REFERENCES teams)`,
		`INSERT INTO teams (name) VALUES ('red')`,
		`INSERT INTO players (team_id) VALUES (1)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	conn, err := SQLiteConnector{}.Connect(context.Background(), map[string]interface{}{"path": path})
	require.NoError(t, err)
	defer conn.Close()

	schema, err := conn.Schema(context.Background())
	require.NoError(t, err)
	require.Len(t, schema.ForeignKeys, 1)
	fk := schema.ForeignKeys[0]
	assert.Equal(t, "players", fk.FromTable)
	assert.Equal(t, "team_id", fk.FromColumn)
	assert.Equal(t, "teams", fk.ToTable)
	assert.Equal(t, "id", fk.ToColumn)
}
