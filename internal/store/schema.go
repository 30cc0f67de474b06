package store

// schemaSQL is the DDL for the graph store. Only PROMOTED bundles
// materialize as rows in relations; candidate and rejected bundles are
// kept in the bundles table for review and audit.
const schemaSQL = `
-- Directed, typed, evidence-justified edges between canonical concepts.
-- The UNIQUE key deduplicates per concept pair: re-deriving the same
-- relation from another bundle upserts instead of duplicating the edge.
CREATE TABLE IF NOT EXISTS relations (
    id INTEGER PRIMARY KEY,
    subject_id TEXT NOT NULL,
    object_id TEXT NOT NULL,
    relation_type TEXT NOT NULL,
    confidence REAL NOT NULL,
    bundle_id TEXT NOT NULL,
    document_id TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(subject_id, object_id, relation_type)
);

-- Every resolved bundle with its disposition, including rejections.
CREATE TABLE IF NOT EXISTS bundles (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    object_id TEXT NOT NULL,
    relation_type TEXT NOT NULL,
    typing_confidence REAL NOT NULL,
    confidence REAL NOT NULL,
    status TEXT NOT NULL,
    rejection_reason TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Constituent evidence fragments (provenance trail).
CREATE TABLE IF NOT EXISTS fragments (
    id TEXT PRIMARY KEY,
    bundle_id TEXT NOT NULL REFERENCES bundles(id) ON DELETE CASCADE,
    fragment_type TEXT NOT NULL,
    text TEXT NOT NULL,
    section_id TEXT,
    page INTEGER,
    confidence REAL NOT NULL,
    extraction_method TEXT NOT NULL,
    lemma TEXT,
    pos TEXT
);

CREATE INDEX IF NOT EXISTS idx_bundles_document ON bundles(document_id);
CREATE INDEX IF NOT EXISTS idx_bundles_status ON bundles(status);
CREATE INDEX IF NOT EXISTS idx_fragments_bundle ON fragments(bundle_id);
`
