package store

import "database/sql"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS images (
  id TEXT PRIMARY KEY,
  base64 TEXT NOT NULL
);
`

func bootstrapSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}
