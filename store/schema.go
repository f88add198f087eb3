package store

// schemaSQL is the DDL for all tables.
const schemaSQL = `
-- Source registry with hash-based change detection
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY,
    source_id TEXT NOT NULL UNIQUE,
    path TEXT,
    title TEXT NOT NULL,
    category TEXT,
    format TEXT,
    content_hash TEXT NOT NULL,
    promulgated_at TEXT,
    official_number TEXT,
    domain TEXT,
    keywords TEXT,
    authority TEXT,
    status TEXT DEFAULT 'pending',
    article_count INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Extracted articles; sequence is the rank in the ordered output
CREATE TABLE IF NOT EXISTS articles (
    id TEXT PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    number TEXT NOT NULL,
    inline_title TEXT,
    title TEXT NOT NULL,
    category TEXT NOT NULL,
    content TEXT NOT NULL,
    summary TEXT,
    language TEXT NOT NULL DEFAULT 'fr',
    tags JSON,
    source_id TEXT NOT NULL,
    published_by TEXT,
    is_published INTEGER NOT NULL DEFAULT 1,
    views_count INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL,
    sequence INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_document ON articles(document_id);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);
CREATE INDEX IF NOT EXISTS idx_articles_sequence ON articles(sequence);

-- Extraction runs
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    documents INTEGER NOT NULL,
    articles INTEGER NOT NULL,
    rejected INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
