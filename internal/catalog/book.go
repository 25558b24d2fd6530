package catalog

import (
	"fmt"
	"strings"
	"time"
)

const bookColumns = "id, provider_code, provider_key, title, author, year, overview, catalog_state, added_at, updated_at"

func scanBook(row interface{ Scan(...any) error }) (*Book, error) {
	b := &Book{}
	err := row.Scan(&b.ID, &b.ProviderCode, &b.ProviderKey, &b.Title, &b.Author, &b.Year,
		&b.Overview, &b.State, &b.AddedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func addBook(q querier, b *Book) error {
	now := time.Now().UTC()
	if b.State == "" {
		b.State = StateArchive
	}
	result, err := q.Exec(`
		INSERT INTO books (provider_code, provider_key, title, author, year, overview, catalog_state, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ProviderCode, b.ProviderKey, b.Title, b.Author, b.Year, b.Overview, b.State, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	b.ID = id
	b.AddedAt = now
	b.UpdatedAt = now
	return nil
}

// AddBook inserts a new book. Sets ID, AddedAt, and UpdatedAt on the
// struct. Returns ErrDuplicate when the (provider_code, provider_key)
// pair is already cataloged.
func (s *Store) AddBook(b *Book) error { return addBook(s.db, b) }

// AddBook inserts a new book within a transaction.
func (t *Tx) AddBook(b *Book) error { return addBook(t.tx, b) }

func getBook(q querier, id int64) (*Book, error) {
	b, err := scanBook(q.QueryRow("SELECT "+bookColumns+" FROM books WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, mapSQLiteError(err))
	}
	return b, nil
}

// GetBook retrieves a book by ID.
// Returns ErrNotFound if the book does not exist.
func (s *Store) GetBook(id int64) (*Book, error) { return getBook(s.db, id) }

// GetBook retrieves a book by ID within a transaction.
func (t *Tx) GetBook(id int64) (*Book, error) { return getBook(t.tx, id) }

func getBookByKey(q querier, providerCode, providerKey string) (*Book, error) {
	b, err := scanBook(q.QueryRow(
		"SELECT "+bookColumns+" FROM books WHERE provider_code = ? AND provider_key = ?",
		providerCode, providerKey,
	))
	if err != nil {
		return nil, fmt.Errorf("get book %s:%s: %w", providerCode, providerKey, mapSQLiteError(err))
	}
	return b, nil
}

// GetBookByKey retrieves a book by its natural (provider, key) identity.
// Returns ErrNotFound if the book is not cataloged.
func (s *Store) GetBookByKey(providerCode, providerKey string) (*Book, error) {
	return getBookByKey(s.db, providerCode, providerKey)
}

// GetBookByKey retrieves a book by natural key within a transaction.
func (t *Tx) GetBookByKey(providerCode, providerKey string) (*Book, error) {
	return getBookByKey(t.tx, providerCode, providerKey)
}

// BookFilter specifies criteria for listing books.
type BookFilter struct {
	ProviderCode *string
	State        *State
	Limit        int
	Offset       int
}

func listBooks(q querier, f BookFilter) ([]*Book, int, error) {
	var conditions []string
	var args []any

	if f.ProviderCode != nil {
		conditions = append(conditions, "provider_code = ?")
		args = append(args, *f.ProviderCode)
	}
	if f.State != nil {
		conditions = append(conditions, "catalog_state = ?")
		args = append(args, *f.State)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM books "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	query := "SELECT " + bookColumns + " FROM books " + whereClause + " ORDER BY id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		results = append(results, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate books: %w", err)
	}

	return results, total, nil
}

// ListBooks returns books matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListBooks(f BookFilter) ([]*Book, int, error) { return listBooks(s.db, f) }

// ListBooks returns books matching the filter within a transaction.
func (t *Tx) ListBooks(f BookFilter) ([]*Book, int, error) { return listBooks(t.tx, f) }

func updateBook(q querier, b *Book) error {
	now := time.Now().UTC()
	result, err := q.Exec(`
		UPDATE books SET title = ?, author = ?, year = ?, overview = ?, catalog_state = ?, updated_at = ?
		WHERE id = ?`,
		b.Title, b.Author, b.Year, b.Overview, b.State, now, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update book %d: %w", b.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update book %d: %w", b.ID, ErrNotFound)
	}
	b.UpdatedAt = now
	return nil
}

// UpdateBook updates a book's metadata fields. Sets UpdatedAt.
// Returns ErrNotFound if the book does not exist.
func (s *Store) UpdateBook(b *Book) error { return updateBook(s.db, b) }

// UpdateBook updates a book within a transaction.
func (t *Tx) UpdateBook(b *Book) error { return updateBook(t.tx, b) }
