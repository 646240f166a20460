package recorder

import (
	"database/sql"

	"codeberg.org/mutker/kscand/internal/errors"
)

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS sessions (
            timestamp INTEGER PRIMARY KEY,
            monitoring_active INTEGER,
            total_events INTEGER,
            alert_count INTEGER,
            chattering_keys INTEGER,
            suspect_lines INTEGER
        )
    `)
	if err != nil {
		return errors.New().Wrap(ErrStorageInit, err)
	}

	return nil
}
