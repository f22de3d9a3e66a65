package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"photo-ingest/internal/logging"
	"photo-ingest/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// ErrDuplicate is returned by InsertItem when another committer already owns
// the (collection, fingerprint) pair. Callers treat this as a dedup skip,
// not a failure.
var ErrDuplicate = errors.New("item already cataloged")

// ErrNotFound is returned by lookups when no matching row exists.
var ErrNotFound = errors.New("not found")

// Catalog manages the relational store backing collections, committed items,
// and quota accounts.
type Catalog struct {
	db     *sql.DB
	dbPath string
}

// Open creates a Catalog backed by the SQLite file at dbPath, creating the
// schema on first use. The parent directory must already exist and be
// writable; use startup.LoadConfig to validate directories beforehand.
func Open(ctx context.Context, dbPath string) (*Catalog, error) {
	logging.Info("Catalog database path: %s", dbPath)

	// WAL mode and busy_timeout reduce "database is locked" errors when a
	// worker pool reserves quota concurrently.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{db: db, dbPath: dbPath}

	if err := c.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logging.Info("Catalog initialized successfully at %s", dbPath)
	return c, nil
}

func (c *Catalog) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		owner TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_collections_owner ON collections(owner);

	-- Committed ingestion results. The (collection, fingerprint) uniqueness
	-- constraint is the authoritative dedup arbiter across sessions.
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL,
		owner TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		file_name TEXT NOT NULL,
		mime_type TEXT NOT NULL DEFAULT '',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		modified_at INTEGER,
		captured_at INTEGER,
		width INTEGER,
		height INTEGER,
		rendition_path TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE,
		UNIQUE(collection_id, fingerprint)
	);

	CREATE INDEX IF NOT EXISTS idx_items_collection ON items(collection_id);
	CREATE INDEX IF NOT EXISTS idx_items_fingerprint ON items(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_items_captured ON items(captured_at);

	-- Per-principal storage budget. The CHECK is a backstop: the reserve
	-- statement itself refuses any update that would break the invariant.
	CREATE TABLE IF NOT EXISTS quota_accounts (
		owner TEXT PRIMARY KEY,
		used_bytes INTEGER NOT NULL DEFAULT 0,
		limit_bytes INTEGER NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		CHECK (used_bytes >= 0 AND used_bytes <= limit_bytes)
	);
	`

	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// CreateCollection inserts a new collection for the given owner.
func (c *Catalog) CreateCollection(ctx context.Context, title, owner string) (*Collection, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_collection", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	col := &Collection{
		ID:        uuid.NewString(),
		Title:     title,
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
	}

	_, err = c.db.ExecContext(ctx,
		"INSERT INTO collections (id, title, owner, created_at) VALUES (?, ?, ?, ?)",
		col.ID, col.Title, col.Owner, col.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	logging.Info("Created collection %q (%s) for %s", title, col.ID, owner)
	return col, nil
}

// GetCollectionByTitle looks up a collection by title and owner.
// Returns ErrNotFound if no such collection exists.
func (c *Catalog) GetCollectionByTitle(ctx context.Context, title, owner string) (*Collection, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_collection", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var col Collection
	var createdAt int64
	err = c.db.QueryRowContext(ctx,
		"SELECT id, title, owner, created_at FROM collections WHERE title = ? AND owner = ?",
		title, owner,
	).Scan(&col.ID, &col.Title, &col.Owner, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	col.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &col, nil
}

// ListCollections returns all collections belonging to an owner, newest
// first.
func (c *Catalog) ListCollections(ctx context.Context, owner string) ([]*Collection, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_collections", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		"SELECT id, title, owner, created_at FROM collections WHERE owner = ? ORDER BY created_at DESC, id",
		owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*Collection
	for rows.Next() {
		var col Collection
		var createdAt int64
		if err = rows.Scan(&col.ID, &col.Title, &col.Owner, &createdAt); err != nil {
			return nil, err
		}
		col.CreatedAt = time.Unix(createdAt, 0).UTC()
		collections = append(collections, &col)
	}
	err = rows.Err()
	return collections, err
}

// RenameCollection updates a collection's title, the only mutable attribute.
func (c *Catalog) RenameCollection(ctx context.Context, collectionID, title string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("rename_collection", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var result sql.Result
	result, err = c.db.ExecContext(ctx,
		"UPDATE collections SET title = ? WHERE id = ?", title, collectionID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = ErrNotFound
		return ErrNotFound
	}
	return nil
}

// HasFingerprint is the dedup pre-check: a point lookup scoped to one
// collection. It is advisory only; two racing sessions may both see false
// here, and the InsertItem uniqueness constraint settles the race.
func (c *Catalog) HasFingerprint(ctx context.Context, collectionID, fp string) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("has_fingerprint", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var one int
	err = c.db.QueryRowContext(ctx,
		"SELECT 1 FROM items WHERE collection_id = ? AND fingerprint = ?",
		collectionID, fp,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertItem commits a catalog row. A uniqueness violation on
// (collection_id, fingerprint) comes back as ErrDuplicate so the caller can
// route a lost commit race to the dedup-skip outcome.
func (c *Catalog) InsertItem(ctx context.Context, item *Item) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("insert_item", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	var modifiedAt, capturedAt interface{}
	if item.ModifiedAt != nil {
		modifiedAt = item.ModifiedAt.Unix()
	}
	if item.CapturedAt != nil {
		capturedAt = item.CapturedAt.Unix()
	}
	var width, height interface{}
	if item.Width > 0 {
		width = item.Width
	}
	if item.Height > 0 {
		height = item.Height
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO items (id, collection_id, owner, fingerprint, file_name, mime_type,
			size_bytes, modified_at, captured_at, width, height, rendition_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.CollectionID, item.Owner, item.Fingerprint, item.FileName,
		item.MimeType, item.SizeBytes, modifiedAt, capturedAt, width, height,
		item.RenditionPath, item.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicate
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is the SQLite unique-constraint
// error, as opposed to any other insert failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// CountItems returns the number of committed items in a collection.
func (c *Catalog) CountItems(ctx context.Context, collectionID string) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_items", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err = c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items WHERE collection_id = ?", collectionID,
	).Scan(&count)
	return count, err
}

// GetItemByFingerprint retrieves a committed item by its content identity.
func (c *Catalog) GetItemByFingerprint(ctx context.Context, collectionID, fp string) (*Item, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_item", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var item Item
	var createdAt int64
	var modifiedAt, capturedAt sql.NullInt64
	var width, height sql.NullInt64

	err = c.db.QueryRowContext(ctx, `
		SELECT id, collection_id, owner, fingerprint, file_name, mime_type, size_bytes,
			modified_at, captured_at, width, height, rendition_path, created_at
		FROM items WHERE collection_id = ? AND fingerprint = ?`,
		collectionID, fp,
	).Scan(&item.ID, &item.CollectionID, &item.Owner, &item.Fingerprint,
		&item.FileName, &item.MimeType, &item.SizeBytes, &modifiedAt, &capturedAt,
		&width, &height, &item.RenditionPath, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	item.CreatedAt = time.Unix(createdAt, 0).UTC()
	if modifiedAt.Valid {
		t := time.Unix(modifiedAt.Int64, 0).UTC()
		item.ModifiedAt = &t
	}
	if capturedAt.Valid {
		t := time.Unix(capturedAt.Int64, 0).UTC()
		item.CapturedAt = &t
	}
	item.Width = int(width.Int64)
	item.Height = int(height.Int64)
	return &item, nil
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrDuplicate) &&
		!errors.Is(err, ErrQuotaExceeded) && !errors.Is(err, ErrNoQuotaAccount) {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
