// SPDX-License-Identifier: EPL-2.0

package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// SaveSQLite writes the catalog to the SQLite database at path for auditing:
// one row per recording with its selection table statistics, one per kept
// interval and one per window. Existing rows for the same recordings are
// replaced.
func (c *Catalog) SaveSQLite(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	if err := createTables(ctx, db); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := c.insertAll(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

func createTables(ctx context.Context, db *sql.DB) error {
	createRecordingsTable := `
    CREATE TABLE IF NOT EXISTS recordings (
        name TEXT PRIMARY KEY,
        audio_fp TEXT NOT NULL,
        selection_table_fp TEXT NOT NULL,
        duration REAL NOT NULL,
        raw_rows INTEGER NOT NULL,
        invalid_rows INTEGER NOT NULL,
        unmapped_rows INTEGER NOT NULL,
        duplicate_rows INTEGER NOT NULL,
        kept_rows INTEGER NOT NULL,
        planned_windows INTEGER NOT NULL,
        kept_windows INTEGER NOT NULL
    );
    `

	createIntervalsTable := `
    CREATE TABLE IF NOT EXISTS intervals (
        recording TEXT NOT NULL REFERENCES recordings(name),
        start_s REAL NOT NULL,
        end_s REAL NOT NULL,
        class INTEGER NOT NULL,
        label TEXT NOT NULL,
        low_freq REAL NOT NULL,
        high_freq REAL NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_intervals_recording ON intervals(recording);
    `

	createWindowsTable := `
    CREATE TABLE IF NOT EXISTS windows (
        idx INTEGER NOT NULL,
        recording TEXT NOT NULL REFERENCES recordings(name),
        start_s REAL NOT NULL,
        end_s REAL NOT NULL,
        events INTEGER NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_windows_recording ON windows(recording);
    `

	_, err := db.ExecContext(ctx, createRecordingsTable)
	if err != nil {
		return fmt.Errorf("error creating recordings table: %w", err)
	}

	_, err = db.ExecContext(ctx, createIntervalsTable)
	if err != nil {
		return fmt.Errorf("error creating intervals table: %w", err)
	}

	_, err = db.ExecContext(ctx, createWindowsTable)
	if err != nil {
		return fmt.Errorf("error creating windows table: %w", err)
	}

	return nil
}

func (c *Catalog) insertAll(ctx context.Context, tx *sql.Tx) error {
	for _, rec := range c.recordings {
		for _, q := range []string{
			"DELETE FROM intervals WHERE recording = ?",
			"DELETE FROM windows WHERE recording = ?",
		} {
			if _, err := tx.ExecContext(ctx, q, rec.Name); err != nil {
				return fmt.Errorf("clearing %q: %w", rec.Name, err)
			}
		}

		st := rec.Store.Stats()
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO recordings
            (name, audio_fp, selection_table_fp, duration, raw_rows, invalid_rows,
             unmapped_rows, duplicate_rows, kept_rows, planned_windows, kept_windows)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Name, rec.AudioPath, rec.SelectionTablePath, rec.Duration,
			st.Rows, st.Invalid, st.Unmapped, st.Duplicates, st.Kept,
			rec.Planned, rec.Kept)
		if err != nil {
			return fmt.Errorf("inserting recording %q: %w", rec.Name, err)
		}
	}

	ivStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO intervals (recording, start_s, end_s, class, label, low_freq, high_freq) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing interval insert: %w", err)
	}
	defer ivStmt.Close()

	for _, rec := range c.recordings {
		for _, iv := range rec.Store.All() {
			_, err := ivStmt.ExecContext(ctx, rec.Name, iv.Start, iv.End, iv.Class,
				c.labels.Name(iv.Class), iv.LowFreq, iv.HighFreq)
			if err != nil {
				return fmt.Errorf("inserting interval of %q: %w", rec.Name, err)
			}
		}
	}

	winStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO windows (idx, recording, start_s, end_s, events) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing window insert: %w", err)
	}
	defer winStmt.Close()

	for i, w := range c.windows {
		events := len(c.byName[w.RecordingID].Store.Overlapping(w.Start, w.End))
		if _, err := winStmt.ExecContext(ctx, i, w.RecordingID, w.Start, w.End, events); err != nil {
			return fmt.Errorf("inserting window %d: %w", i, err)
		}
	}

	return nil
}
