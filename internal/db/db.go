package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Connection pragmas. foreign_keys is per connection in SQLite, so they go in
// the DSN rather than a one-off Exec; the resource and school cascades rely
// on it.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// Open opens the portal database at dataDir/db/brandportal.db, creating the
// directory if needed.
func Open(dataDir string) (*sql.DB, error) {
	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := "file:" + filepath.Join(dbDir, "brandportal.db") + "?_pragma=" + strings.Join(pragmas, "&_pragma=")
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	database.SetMaxOpenConns(1)
	return database, nil
}

var timeFormats = []string{
	"2006-01-02T15:04:05.000Z",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// SQLiteTime scans created_at style columns, which the driver may return as
// TEXT, time.Time or unix seconds.
type SQLiteTime struct {
	Time time.Time
}

func (st *SQLiteTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		st.Time = time.Time{}
		return nil
	case time.Time:
		st.Time = v.UTC()
		return nil
	case int64:
		st.Time = time.Unix(v, 0).UTC()
		return nil
	case string:
		for _, f := range timeFormats {
			if t, err := time.Parse(f, v); err == nil {
				st.Time = t.UTC()
				return nil
			}
		}
		return fmt.Errorf("scan time: cannot parse %q", v)
	default:
		return fmt.Errorf("scan time: unsupported type %T", src)
	}
}
