package catalog

import (
	"fmt"
	"time"
)

const assetColumns = "id, book_id, media_type, status, storage_path, size_bytes, checksum, source_url, source_provider, updated_at"

func scanAsset(row interface{ Scan(...any) error }) (*MediaAsset, error) {
	a := &MediaAsset{}
	err := row.Scan(&a.ID, &a.BookID, &a.MediaType, &a.Status, &a.StoragePath, &a.SizeBytes,
		&a.Checksum, &a.SourceURL, &a.SourceProvider, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func listAssets(q querier, bookID int64) ([]*MediaAsset, error) {
	rows, err := q.Query("SELECT "+assetColumns+" FROM media_assets WHERE book_id = ? ORDER BY id", bookID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*MediaAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return results, nil
}

// ListAssets returns all media assets for a book.
func (s *Store) ListAssets(bookID int64) ([]*MediaAsset, error) { return listAssets(s.db, bookID) }

// ListAssets returns all media assets for a book within a transaction.
func (t *Tx) ListAssets(bookID int64) ([]*MediaAsset, error) { return listAssets(t.tx, bookID) }

func getAsset(q querier, bookID int64, mt MediaType) (*MediaAsset, error) {
	a, err := scanAsset(q.QueryRow(
		"SELECT "+assetColumns+" FROM media_assets WHERE book_id = ? AND media_type = ?",
		bookID, mt,
	))
	if err != nil {
		return nil, fmt.Errorf("get asset %d/%s: %w", bookID, mt, mapSQLiteError(err))
	}
	return a, nil
}

// GetAsset retrieves the asset for one (book, media type) pair.
// Returns ErrNotFound if no asset exists.
func (s *Store) GetAsset(bookID int64, mt MediaType) (*MediaAsset, error) {
	return getAsset(s.db, bookID, mt)
}

// GetAsset retrieves an asset within a transaction.
func (t *Tx) GetAsset(bookID int64, mt MediaType) (*MediaAsset, error) {
	return getAsset(t.tx, bookID, mt)
}

// upsertAsset writes the asset row and recomputes the owning book's
// catalog state in the same unit of work. The UNIQUE(book_id,
// media_type) index makes the insert-or-update collapse to one row.
func upsertAsset(q querier, a *MediaAsset) error {
	now := time.Now().UTC()
	_, err := q.Exec(`
		INSERT INTO media_assets (book_id, media_type, status, storage_path, size_bytes, checksum, source_url, source_provider, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(book_id, media_type) DO UPDATE SET
			status = excluded.status,
			storage_path = excluded.storage_path,
			size_bytes = excluded.size_bytes,
			checksum = excluded.checksum,
			source_url = excluded.source_url,
			source_provider = excluded.source_provider,
			updated_at = excluded.updated_at`,
		a.BookID, a.MediaType, a.Status, a.StoragePath, a.SizeBytes, a.Checksum,
		a.SourceURL, a.SourceProvider, now,
	)
	if err != nil {
		return fmt.Errorf("upsert asset %d/%s: %w", a.BookID, a.MediaType, mapSQLiteError(err))
	}
	a.UpdatedAt = now

	stored, err := getAsset(q, a.BookID, a.MediaType)
	if err != nil {
		return err
	}
	a.ID = stored.ID

	// Catalog state is never written independently of this recompute.
	assets, err := listAssets(q, a.BookID)
	if err != nil {
		return err
	}
	state := RecomputeState(assets)
	if _, err := q.Exec("UPDATE books SET catalog_state = ?, updated_at = ? WHERE id = ?", state, now, a.BookID); err != nil {
		return fmt.Errorf("recompute catalog state for book %d: %w", a.BookID, mapSQLiteError(err))
	}
	return nil
}

// UpsertAsset creates or replaces the asset for (book, media type) and
// recomputes the book's catalog state.
func (s *Store) UpsertAsset(a *MediaAsset) error { return upsertAsset(s.db, a) }

// UpsertAsset creates or replaces an asset within a transaction.
func (t *Tx) UpsertAsset(a *MediaAsset) error { return upsertAsset(t.tx, a) }

// SetAssetStatus updates just the status of an existing asset and
// recomputes the book's catalog state.
func (s *Store) SetAssetStatus(bookID int64, mt MediaType, status AssetStatus) error {
	a, err := getAsset(s.db, bookID, mt)
	if err != nil {
		return err
	}
	a.Status = status
	return upsertAsset(s.db, a)
}
