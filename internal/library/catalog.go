package library

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lepinkainen/shelfsync/internal/convert"
)

// IdentifierISBN is the identifier type holding a book's ISBN.
const IdentifierISBN = "isbn"

var (
	// ErrUnknownColumn is returned for columns that are neither built in nor
	// defined as custom columns.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrBookNotFound is returned when writing to a record that does not exist.
	ErrBookNotFound = errors.New("book not found")
)

var customDatatypes = []string{
	convert.DatatypeInt,
	convert.DatatypeFloat,
	convert.DatatypeDatetime,
	convert.DatatypeRating,
	convert.DatatypeBool,
	convert.DatatypeText,
	convert.DatatypeComments,
}

// Book is a local catalog record.
type Book struct {
	ID      int
	Title   string
	Authors []string
	PubDate string
	ISBN    string
}

// Catalog is the sqlite-backed local book catalog.
type Catalog struct {
	db     *sql.DB
	dbPath string
}

// NewCatalog creates a Catalog for the database at dbPath. Call Connect
// before use.
func NewCatalog(dbPath string) *Catalog {
	return &Catalog{
		dbPath: dbPath,
	}
}

// Open creates a Catalog and connects to it.
func Open(dbPath string) (*Catalog, error) {
	c := NewCatalog(dbPath)
	if err := c.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect opens the database and creates any missing tables.
func (c *Catalog) Connect() error {
	db, err := sql.Open("sqlite", c.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	c.db = db

	for _, schema := range AllSchemas() {
		if err := c.CreateTable(schema); err != nil {
			_ = db.Close()
			c.db = nil
			return err
		}
	}
	slog.Debug("Catalog opened", "path", c.dbPath)
	return nil
}

// CreateTable creates a new table with the given schema if it doesn't exist
func (c *Catalog) CreateTable(schema string) error {
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// AddBook inserts a book and its ISBN identifier in one transaction and
// returns the new record id.
func (c *Catalog) AddBook(title string, authors []string, isbn, releaseDate string) (int, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback if we don't commit - ignore errors as they're expected if transaction was committed
		_ = tx.Rollback()
	}()

	res, err := tx.Exec(
		`INSERT INTO books (title, authors, pubdate) VALUES (?, ?, ?)`,
		title, strings.Join(authors, " & "), nullString(releaseDate),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read book id: %w", err)
	}

	if isbn != "" {
		if _, err := tx.Exec(
			`INSERT INTO identifiers (book, type, val) VALUES (?, ?, ?)`,
			id, IdentifierISBN, isbn,
		); err != nil {
			return 0, fmt.Errorf("failed to insert isbn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Debug("Added book", "id", id, "title", title)
	return int(id), nil
}

// DefineColumn creates or updates a custom column. label may carry the
// leading '#'.
func (c *Catalog) DefineColumn(label, name, datatype string) error {
	label = strings.TrimPrefix(label, "#")
	if label == "" {
		return fmt.Errorf("empty column label")
	}
	if !slices.Contains(customDatatypes, datatype) {
		return fmt.Errorf("column #%s: unsupported datatype %q", label, datatype)
	}
	_, err := c.db.Exec(
		`INSERT INTO custom_columns (label, name, datatype) VALUES (?, ?, ?)
		ON CONFLICT(label) DO UPDATE SET name = excluded.name, datatype = excluded.datatype`,
		label, name, datatype,
	)
	if err != nil {
		return fmt.Errorf("failed to define column #%s: %w", label, err)
	}
	return nil
}

// Columns returns the metadata of every custom column, keyed by "#label".
func (c *Catalog) Columns() (map[string]*convert.ColumnMeta, error) {
	rows, err := c.db.Query(`SELECT label, datatype FROM custom_columns`)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]*convert.ColumnMeta)
	for rows.Next() {
		var label, datatype string
		if err := rows.Scan(&label, &datatype); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns["#"+label] = &convert.ColumnMeta{Name: "#" + label, Datatype: datatype}
	}
	return columns, rows.Err()
}

// ColumnMetadata returns the metadata of a custom column, or nil for
// built-in and unknown columns.
func (c *Catalog) ColumnMetadata(column string) *convert.ColumnMeta {
	label, ok := strings.CutPrefix(column, "#")
	if !ok {
		return nil
	}
	var datatype string
	err := c.db.QueryRow(`SELECT datatype FROM custom_columns WHERE label = ?`, label).Scan(&datatype)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("Failed to read column metadata", "column", column, "error", err)
		}
		return nil
	}
	return &convert.ColumnMeta{Name: column, Datatype: datatype}
}

// BookIDs returns every record id in ascending order.
func (c *Catalog) BookIDs() ([]int, error) {
	rows, err := c.db.Query(`SELECT id FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan book id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Book returns one record with its ISBN.
func (c *Catalog) Book(id int) (*Book, error) {
	var (
		b       Book
		authors string
		pubdate sql.NullString
		isbn    sql.NullString
	)
	err := c.db.QueryRow(
		`SELECT b.id, b.title, b.authors, b.pubdate, i.val
		FROM books b LEFT JOIN identifiers i ON i.book = b.id AND i.type = ?
		WHERE b.id = ?`,
		IdentifierISBN, id,
	).Scan(&b.ID, &b.Title, &authors, &pubdate, &isbn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrBookNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read book %d: %w", id, err)
	}
	if authors != "" {
		b.Authors = strings.Split(authors, " & ")
	}
	b.PubDate = pubdate.String
	b.ISBN = isbn.String
	return &b, nil
}

// Title returns the record's title, or "" when it does not exist.
func (c *Catalog) Title(id int) string {
	var title string
	if err := c.db.QueryRow(`SELECT title FROM books WHERE id = ?`, id).Scan(&title); err != nil {
		return ""
	}
	return title
}

// Identifiers returns every identifier stored for a record.
func (c *Catalog) Identifiers(id int) (map[string]string, error) {
	rows, err := c.db.Query(`SELECT type, val FROM identifiers WHERE book = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read identifiers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	identifiers := make(map[string]string)
	for rows.Next() {
		var key, val string
		if err := rows.Scan(&key, &val); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		identifiers[key] = val
	}
	return identifiers, rows.Err()
}

// SetIdentifier stores an identifier, replacing any previous value of the
// same type. An empty value removes it.
func (c *Catalog) SetIdentifier(id int, key, value string) error {
	if err := c.requireBook(id); err != nil {
		return err
	}
	var err error
	if value == "" {
		_, err = c.db.Exec(`DELETE FROM identifiers WHERE book = ? AND type = ?`, id, key)
	} else {
		_, err = c.db.Exec(
			`INSERT INTO identifiers (book, type, val) VALUES (?, ?, ?)
			ON CONFLICT(book, type) DO UPDATE SET val = excluded.val`,
			id, key, value,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to set identifier %s of book %d: %w", key, id, err)
	}
	return nil
}

// Value reads a column of a record. Unset values are nil. Custom column
// values come back as the Go type of their datatype: int, float64,
// time.Time, bool or string.
func (c *Catalog) Value(id int, column string) (any, error) {
	if column == convert.BuiltinRatingColumn {
		var rating sql.NullInt64
		err := c.db.QueryRow(`SELECT rating FROM books WHERE id = ?`, id).Scan(&rating)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rating of book %d: %w", id, err)
		}
		if !rating.Valid {
			return nil, nil
		}
		return int(rating.Int64), nil
	}

	meta := c.ColumnMetadata(column)
	if meta == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}

	var raw any
	err := c.db.QueryRow(
		`SELECT value FROM custom_values WHERE book = ? AND label = ?`,
		id, strings.TrimPrefix(column, "#"),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s of book %d: %w", column, id, err)
	}
	return fromStored(raw, meta.Datatype), nil
}

// SetValue writes a column of a record. nil clears it.
func (c *Catalog) SetValue(id int, column string, value any) error {
	if err := c.requireBook(id); err != nil {
		return err
	}

	if column == convert.BuiltinRatingColumn {
		stored, err := toStored(value, convert.DatatypeRating)
		if err != nil {
			return err
		}
		if _, err := c.db.Exec(`UPDATE books SET rating = ? WHERE id = ?`, stored, id); err != nil {
			return fmt.Errorf("failed to write rating of book %d: %w", id, err)
		}
		return nil
	}

	meta := c.ColumnMetadata(column)
	if meta == nil {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	label := strings.TrimPrefix(column, "#")

	stored, err := toStored(value, meta.Datatype)
	if err != nil {
		return err
	}
	if stored == nil {
		_, err = c.db.Exec(`DELETE FROM custom_values WHERE book = ? AND label = ?`, id, label)
	} else {
		_, err = c.db.Exec(
			`INSERT INTO custom_values (book, label, value) VALUES (?, ?, ?)
			ON CONFLICT(book, label) DO UPDATE SET value = excluded.value`,
			id, label, stored,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s of book %d: %w", column, id, err)
	}
	return nil
}

func (c *Catalog) requireBook(id int) error {
	var exists int
	err := c.db.QueryRow(`SELECT 1 FROM books WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", ErrBookNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to look up book %d: %w", id, err)
	}
	return nil
}

// toStored converts a value to its column representation. Datetimes are
// kept as RFC3339 text and booleans as 0/1.
func toStored(value any, datatype string) (any, error) {
	v, err := convert.Coerce(value, datatype)
	if err != nil || v == nil {
		return nil, err
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	}
	return v, nil
}

func fromStored(raw any, datatype string) any {
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	if raw == nil {
		return nil
	}

	switch datatype {
	case convert.DatatypeInt, convert.DatatypeRating:
		switch n := raw.(type) {
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	case convert.DatatypeFloat:
		if n, ok := raw.(int64); ok {
			return float64(n)
		}
	case convert.DatatypeBool:
		return convert.ToBool(raw)
	case convert.DatatypeDatetime:
		if s, ok := raw.(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t
			}
		}
	}
	return raw
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
