// Package sqlite implements store.Store on a SQLite database file
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/wordpipe/pkg/wordpipe/internalerr"
	"github.com/cognicore/wordpipe/pkg/wordpipe/store"
	"github.com/cognicore/wordpipe/pkg/wordpipe/vocab"
)

type sqliteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) a vocabulary database with WAL mode
// enabled.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	language_code TEXT NOT NULL,
	level TEXT,
	target_count INTEGER DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS words (
	batch_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	word TEXT NOT NULL,
	lemma TEXT NOT NULL,
	pos_tag TEXT,
	category TEXT,
	frequency REAL,
	rank INTEGER,
	morphology TEXT,
	reason TEXT,
	PRIMARY KEY(batch_id, position),
	FOREIGN KEY(batch_id) REFERENCES batches(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_words_lemma ON words(lemma);

CREATE TABLE IF NOT EXISTS filtered_words (
	batch_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	word TEXT NOT NULL,
	lemma TEXT,
	pos_tag TEXT,
	frequency REAL,
	rank INTEGER,
	filter_stage TEXT NOT NULL,
	filter_reason TEXT NOT NULL,
	PRIMARY KEY(batch_id, position),
	FOREIGN KEY(batch_id) REFERENCES batches(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS filter_stats (
	batch_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	reason TEXT NOT NULL,
	count INTEGER NOT NULL,
	examples TEXT,
	PRIMARY KEY(batch_id, stage, reason),
	FOREIGN KEY(batch_id) REFERENCES batches(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveVocabulary stores the batch and its contents in one transaction.
func (s *sqliteStore) SaveVocabulary(ctx context.Context, batch store.Batch, v *vocab.Vocabulary) error {
	if batch.ID == "" {
		return fmt.Errorf("%w: empty batch id", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createdAt := batch.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	const insertBatch = `
INSERT INTO batches (id, language_code, level, target_count, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	language_code=excluded.language_code,
	level=excluded.level,
	target_count=excluded.target_count,
	created_at=excluded.created_at;
`
	if _, err := tx.ExecContext(ctx, insertBatch,
		batch.ID, batch.LanguageCode, batch.Level, batch.TargetCount,
		createdAt.UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}

	for _, table := range []string{"words", "filtered_words", "filter_stats"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE batch_id=?", batch.ID); err != nil {
			return err
		}
	}

	if err := insertWords(ctx, tx, batch.ID, v.Words); err != nil {
		return err
	}
	if err := insertFiltered(ctx, tx, batch.ID, v.FilteredWords); err != nil {
		return err
	}
	if v.Stats != nil {
		if err := insertStats(ctx, tx, batch.ID, v.Stats); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertWords(ctx context.Context, tx *sql.Tx, batchID string, words []vocab.Word) error {
	if len(words) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO words (batch_id, position, word, lemma, pos_tag, category, frequency, rank, morphology, reason)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, w := range words {
		morph, err := json.Marshal(w.Morphology)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, batchID, i, w.Word, w.Lemma, w.POSTag,
			w.Category, w.Frequency, w.Rank, string(morph), w.Reason); err != nil {
			return err
		}
	}
	return nil
}

func insertFiltered(ctx context.Context, tx *sql.Tx, batchID string, filtered []vocab.FilteredWord) error {
	if len(filtered) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO filtered_words (batch_id, position, word, lemma, pos_tag, frequency, rank, filter_stage, filter_reason)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, fw := range filtered {
		if _, err := stmt.ExecContext(ctx, batchID, i, fw.Word, fw.Lemma, fw.POSTag,
			fw.Frequency, fw.Rank, fw.FilterStage, fw.FilterReason); err != nil {
			return err
		}
	}
	return nil
}

func insertStats(ctx context.Context, tx *sql.Tx, batchID string, stats *vocab.Stats) error {
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO filter_stats (batch_id, stage, reason, count, examples)
VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for key, count := range stats.ByCategory {
		examples, err := json.Marshal(stats.Examples[key])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, batchID, key.Stage, key.Reason, count, string(examples)); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) GetBatch(ctx context.Context, id string) (store.Batch, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, language_code, level, target_count, created_at FROM batches WHERE id=?`, id)

	var b store.Batch
	var createdAt string
	err := row.Scan(&b.ID, &b.LanguageCode, &b.Level, &b.TargetCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Batch{}, internalerr.ErrNotFound
	}
	if err != nil {
		return store.Batch{}, err
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return b, nil
}

func (s *sqliteStore) ListBatches(ctx context.Context, languageCode string) ([]store.Batch, error) {
	query := `SELECT id, language_code, level, target_count, created_at FROM batches`
	args := []any{}
	if languageCode != "" {
		query += ` WHERE language_code=?`
		args = append(args, languageCode)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Batch
	for rows.Next() {
		var b store.Batch
		var createdAt string
		if err := rows.Scan(&b.ID, &b.LanguageCode, &b.Level, &b.TargetCount, &createdAt); err != nil {
			return nil, err
		}
		b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *sqliteStore) DeleteBatch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM batches WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return internalerr.ErrNotFound
	}
	return nil
}

func (s *sqliteStore) GetWords(ctx context.Context, batchID string) ([]vocab.Word, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT word, lemma, pos_tag, category, frequency, rank, morphology, reason
FROM words WHERE batch_id=? ORDER BY position`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []vocab.Word
	for rows.Next() {
		var w vocab.Word
		var morph string
		if err := rows.Scan(&w.Word, &w.Lemma, &w.POSTag, &w.Category,
			&w.Frequency, &w.Rank, &morph, &w.Reason); err != nil {
			return nil, err
		}
		if morph != "" && morph != "null" {
			if err := json.Unmarshal([]byte(morph), &w.Morphology); err != nil {
				return nil, fmt.Errorf("decode morphology for %q: %w", w.Word, err)
			}
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *sqliteStore) GetFilteredWords(ctx context.Context, batchID string) ([]vocab.FilteredWord, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT word, lemma, pos_tag, frequency, rank, filter_stage, filter_reason
FROM filtered_words WHERE batch_id=? ORDER BY position`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []vocab.FilteredWord
	for rows.Next() {
		var fw vocab.FilteredWord
		if err := rows.Scan(&fw.Word, &fw.Lemma, &fw.POSTag, &fw.Frequency,
			&fw.Rank, &fw.FilterStage, &fw.FilterReason); err != nil {
			return nil, err
		}
		out = append(out, fw)
	}
	return out, rows.Err()
}

func (s *sqliteStore) GetStats(ctx context.Context, batchID string) ([]store.StatRow, error) {
	if _, err := s.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT stage, reason, count, examples
FROM filter_stats WHERE batch_id=? ORDER BY stage, reason`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.StatRow
	for rows.Next() {
		var r store.StatRow
		var examples string
		if err := rows.Scan(&r.Stage, &r.Reason, &r.Count, &examples); err != nil {
			return nil, err
		}
		if examples != "" && examples != "null" {
			if err := json.Unmarshal([]byte(examples), &r.Examples); err != nil {
				return nil, fmt.Errorf("decode stat examples: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ExistingLemmas(ctx context.Context, languageCode string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT w.lemma
FROM words w JOIN batches b ON w.batch_id = b.id
WHERE b.language_code=? AND w.lemma != ''
ORDER BY w.lemma`, languageCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var lemma string
		if err := rows.Scan(&lemma); err != nil {
			return nil, err
		}
		out = append(out, lemma)
	}
	return out, rows.Err()
}
