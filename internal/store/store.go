// Package store persists resolved bundles and the relation edges promoted
// from them in SQLite. The relation upsert keyed by (subject, object,
// type) is the only mutual-exclusion point in the whole resolver.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fredpottier/relato/internal/model"
)

// Store is the persistent graph store.
type Store struct {
	db *sql.DB
}

// Open opens (and initializes) the store at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport persists every bundle of a resolve report and upserts a
// relation edge for each PROMOTED bundle. Bundle ids are deterministic, so
// re-saving the same report is idempotent.
func (s *Store) SaveReport(ctx context.Context, report *model.ResolveReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for i := range report.Bundles {
		b := &report.Bundles[i]
		if err := insertBundle(ctx, tx, b); err != nil {
			return fmt.Errorf("save bundle %s: %w", b.ID, err)
		}
		if b.Status == model.StatusPromoted {
			if err := upsertRelation(ctx, tx, b); err != nil {
				return fmt.Errorf("upsert relation %s-%s: %w", b.SubjectID, b.ObjectID, err)
			}
		}
	}
	return tx.Commit()
}

func insertBundle(ctx context.Context, tx *sql.Tx, b *model.EvidenceBundle) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bundles (id, document_id, subject_id, object_id,
			relation_type, typing_confidence, confidence, status, rejection_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			confidence = excluded.confidence,
			status = excluded.status,
			rejection_reason = excluded.rejection_reason
	`, b.ID, b.DocumentID, b.SubjectID, b.ObjectID,
		b.RelationType, b.TypingConfidence, b.Confidence, string(b.Status), nullable(b.RejectionReason))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM fragments WHERE bundle_id = ?", b.ID); err != nil {
		return err
	}
	for _, f := range b.Fragments() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO fragments (id, bundle_id, fragment_type, text,
				section_id, page, confidence, extraction_method, lemma, pos)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, f.ID, b.ID, string(f.Type), f.Text,
			nullable(f.SectionID), f.Page, f.Confidence, f.Method,
			nullable(f.Lemma), nullable(f.POS))
		if err != nil {
			return err
		}
	}
	return nil
}

// upsertRelation implements the per-concept-pair deduplication guard: one
// edge per (subject, object, type), the highest confidence wins.
func upsertRelation(ctx context.Context, tx *sql.Tx, b *model.EvidenceBundle) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO relations (subject_id, object_id, relation_type,
			confidence, bundle_id, document_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(subject_id, object_id, relation_type) DO UPDATE SET
			confidence = MAX(excluded.confidence, relations.confidence),
			bundle_id = CASE WHEN excluded.confidence > relations.confidence
				THEN excluded.bundle_id ELSE relations.bundle_id END,
			updated_at = CURRENT_TIMESTAMP
	`, b.SubjectID, b.ObjectID, b.RelationType, b.Confidence, b.ID, b.DocumentID)
	return err
}

// Relations returns every promoted edge, ordered for stable output.
func (s *Store) Relations(ctx context.Context) ([]model.Relation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject_id, object_id, relation_type, confidence, bundle_id, document_id
		FROM relations
		ORDER BY subject_id, object_id, relation_type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Relation
	for rows.Next() {
		var r model.Relation
		if err := rows.Scan(&r.SubjectID, &r.ObjectID, &r.RelationType,
			&r.Confidence, &r.BundleID, &r.DocumentID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BundlesByStatus returns stored bundle summaries with the given
// disposition (fragments not loaded).
func (s *Store) BundlesByStatus(ctx context.Context, status model.ValidationStatus) ([]model.EvidenceBundle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, subject_id, object_id, relation_type,
			typing_confidence, confidence, status, COALESCE(rejection_reason, '')
		FROM bundles WHERE status = ?
		ORDER BY document_id, subject_id, object_id
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EvidenceBundle
	for rows.Next() {
		var b model.EvidenceBundle
		var st string
		if err := rows.Scan(&b.ID, &b.DocumentID, &b.SubjectID, &b.ObjectID,
			&b.RelationType, &b.TypingConfidence, &b.Confidence, &st, &b.RejectionReason); err != nil {
			return nil, err
		}
		b.Status = model.ValidationStatus(st)
		out = append(out, b)
	}
	return out, rows.Err()
}

// RelationCount returns the number of promoted edges.
func (s *Store) RelationCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM relations").Scan(&n)
	return n, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
