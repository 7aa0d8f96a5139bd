package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// TestInitDBCreatesSchema verifies InitDB creates the words table with the
// columns and the lookup index the queries rely on.
func TestInitDBCreatesSchema(t *testing.T) {
	dbConn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(1)

	require.NoError(t, InitDB(dbConn))
	// Running migrations twice must be harmless.
	require.NoError(t, InitDB(dbConn))

	rows, err := dbConn.Query("PRAGMA table_info(words)")
	require.NoError(t, err)
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var colName, ctype string
		var notnull, pk int
		var dfltVal interface{}
		require.NoError(t, rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk))
		cols[colName] = true
	}
	for _, c := range []string{"id", "lang_id", "seq", "word", "frequency"} {
		require.True(t, cols[c], "missing column %s in %v", c, cols)
	}

	var name string
	err = dbConn.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_words_lang_seq_freq'").Scan(&name)
	require.NoError(t, err, "lookup index missing")
}

func TestSchemaRejectsEmptySequence(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	err := InsertWord(conn, 1, "", "a")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrConstraintViolation)
}
