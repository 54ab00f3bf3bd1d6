// Package sqlite implements store.Store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Luvata/data-tooling/pkg/curator/admission"
	"github.com/Luvata/data-tooling/pkg/curator/corpus"
	"github.com/Luvata/data-tooling/pkg/curator/internalerr"
	"github.com/Luvata/data-tooling/pkg/curator/store"
)

type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and initializes the
// schema.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
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

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS docs (
	id INTEGER PRIMARY KEY,
	url TEXT NOT NULL,
	title TEXT,
	text TEXT,
	fetch_time TEXT,
	lang_label TEXT
);

CREATE INDEX IF NOT EXISTS idx_docs_url ON docs(url);

CREATE TABLE IF NOT EXISTS doc_metrics (
	doc_id INTEGER NOT NULL,
	signal TEXT NOT NULL,
	value REAL NOT NULL,
	lexicon_version INTEGER DEFAULT 0,
	PRIMARY KEY(doc_id, signal),
	FOREIGN KEY(doc_id) REFERENCES docs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS doc_repetitions (
	doc_id INTEGER NOT NULL,
	n INTEGER NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY(doc_id, n),
	FOREIGN KEY(doc_id) REFERENCES docs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS doc_external_refs (
	doc_id INTEGER NOT NULL,
	pos INTEGER NOT NULL,
	url TEXT NOT NULL,
	PRIMARY KEY(doc_id, pos),
	FOREIGN KEY(doc_id) REFERENCES docs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS doc_external_ids (
	doc_id INTEGER NOT NULL,
	pos INTEGER NOT NULL,
	ext_id INTEGER NOT NULL,
	PRIMARY KEY(doc_id, pos),
	FOREIGN KEY(doc_id) REFERENCES docs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	retained TEXT,
	discarded TEXT,
	rule_discards TEXT,
	created_at TEXT
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// PutDoc inserts or replaces a document and its metric rows in one
// transaction.
func (s *sqliteStore) PutDoc(ctx context.Context, d corpus.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO docs (id, url, title, text, fetch_time, lang_label)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		int64(d.ID), d.URL, d.Title, d.Text, d.FetchTime.UTC().Format(time.RFC3339Nano), d.Metrics.LangLabel)
	if err != nil {
		return fmt.Errorf("upsert doc: %w", err)
	}

	for _, table := range []string{"doc_metrics", "doc_repetitions", "doc_external_refs", "doc_external_ids"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE doc_id = ?", int64(d.ID)); err != nil {
			return err
		}
	}

	for signal, value := range d.Metrics.Values {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO doc_metrics (doc_id, signal, value, lexicon_version) VALUES (?, ?, ?, ?)`,
			int64(d.ID), signal, value, int64(d.Metrics.LexiconVersion(signal)))
		if err != nil {
			return err
		}
	}
	for n, value := range d.Metrics.Repetitions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO doc_repetitions (doc_id, n, value) VALUES (?, ?, ?)`,
			int64(d.ID), n, value)
		if err != nil {
			return err
		}
	}
	for pos, url := range d.ExternalURLs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO doc_external_refs (doc_id, pos, url) VALUES (?, ?, ?)`,
			int64(d.ID), pos, url)
		if err != nil {
			return err
		}
	}
	for pos, extID := range d.ExternalIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO doc_external_ids (doc_id, pos, ext_id) VALUES (?, ?, ?)`,
			int64(d.ID), pos, int64(extID))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetDoc returns a document by id.
func (s *sqliteStore) GetDoc(ctx context.Context, id uint64) (corpus.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, title, text, fetch_time, lang_label FROM docs WHERE id = ?`, int64(id))
	doc, err := scanDoc(row)
	if err == sql.ErrNoRows {
		return corpus.Document{}, internalerr.ErrNotFound
	}
	if err != nil {
		return corpus.Document{}, err
	}
	if err := s.loadChildren(ctx, &doc); err != nil {
		return corpus.Document{}, err
	}
	return doc, nil
}

// GetDocByURL returns a document by URL.
func (s *sqliteStore) GetDocByURL(ctx context.Context, url string) (corpus.Document, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, title, text, fetch_time, lang_label FROM docs WHERE url = ? LIMIT 1`, url)
	doc, err := scanDoc(row)
	if err == sql.ErrNoRows {
		return corpus.Document{}, false, nil
	}
	if err != nil {
		return corpus.Document{}, false, err
	}
	if err := s.loadChildren(ctx, &doc); err != nil {
		return corpus.Document{}, false, err
	}
	return doc, true, nil
}

// ListDocs returns documents in id order.
func (s *sqliteStore) ListDocs(ctx context.Context, limit int) ([]corpus.Document, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, title, text, fetch_time, lang_label FROM docs ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []corpus.Document
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range docs {
		if err := s.loadChildren(ctx, &docs[i]); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// CountDocs returns the number of stored documents.
func (s *sqliteStore) CountDocs(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&count)
	return count, err
}

// PutReport stores a filtering report.
func (s *sqliteStore) PutReport(ctx context.Context, r admission.Report) error {
	retained, err := json.Marshal(r.Retained)
	if err != nil {
		return err
	}
	discarded, err := json.Marshal(r.Discarded)
	if err != nil {
		return err
	}
	discards, err := json.Marshal(r.RuleDiscards)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports (id, retained, discarded, rule_discards, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.ID, string(retained), string(discarded), string(discards),
		time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// GetReport returns a stored report.
func (s *sqliteStore) GetReport(ctx context.Context, id string) (admission.Report, error) {
	var retained, discarded, discards string
	err := s.db.QueryRowContext(ctx,
		`SELECT retained, discarded, rule_discards FROM reports WHERE id = ?`, id).
		Scan(&retained, &discarded, &discards)
	if err == sql.ErrNoRows {
		return admission.Report{}, internalerr.ErrNotFound
	}
	if err != nil {
		return admission.Report{}, err
	}

	r := admission.Report{ID: id}
	if err := json.Unmarshal([]byte(retained), &r.Retained); err != nil {
		return admission.Report{}, err
	}
	if err := json.Unmarshal([]byte(discarded), &r.Discarded); err != nil {
		return admission.Report{}, err
	}
	if err := json.Unmarshal([]byte(discards), &r.RuleDiscards); err != nil {
		return admission.Report{}, err
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDoc(row rowScanner) (corpus.Document, error) {
	var (
		id        int64
		fetchTime string
		doc       corpus.Document
	)
	if err := row.Scan(&id, &doc.URL, &doc.Title, &doc.Text, &fetchTime, &doc.Metrics.LangLabel); err != nil {
		return corpus.Document{}, err
	}
	doc.ID = uint64(id)
	if fetchTime != "" {
		t, err := time.Parse(time.RFC3339Nano, fetchTime)
		if err != nil {
			return corpus.Document{}, fmt.Errorf("parse fetch_time: %w", err)
		}
		doc.FetchTime = t
	}
	return doc, nil
}

func (s *sqliteStore) loadChildren(ctx context.Context, doc *corpus.Document) error {
	label := doc.Metrics.LangLabel
	doc.Metrics = corpus.NewMetrics()
	doc.Metrics.LangLabel = label

	rows, err := s.db.QueryContext(ctx,
		`SELECT signal, value, lexicon_version FROM doc_metrics WHERE doc_id = ?`, int64(doc.ID))
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			signal  string
			value   float64
			version int64
		)
		if err := rows.Scan(&signal, &value, &version); err != nil {
			rows.Close()
			return err
		}
		doc.Metrics.Set(signal, value)
		if version != 0 {
			doc.Metrics.SetLexiconVersion(signal, uint64(version))
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT n, value FROM doc_repetitions WHERE doc_id = ?`, int64(doc.ID))
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			n     int
			value float64
		)
		if err := rows.Scan(&n, &value); err != nil {
			rows.Close()
			return err
		}
		doc.Metrics.SetRepetitionsRatio(n, value)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	doc.ExternalURLs, err = s.loadOrdered(ctx,
		`SELECT url FROM doc_external_refs WHERE doc_id = ? ORDER BY pos`, int64(doc.ID))
	if err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT ext_id FROM doc_external_ids WHERE doc_id = ? ORDER BY pos`, int64(doc.ID))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var extID int64
		if err := rows.Scan(&extID); err != nil {
			return err
		}
		doc.ExternalIDs = append(doc.ExternalIDs, uint64(extID))
	}
	return rows.Err()
}

func (s *sqliteStore) loadOrdered(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
