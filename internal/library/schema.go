package library

// Table names of the local catalog.
const (
	BooksTable         = "books"
	IdentifiersTable   = "identifiers"
	CustomColumnsTable = "custom_columns"
	CustomValuesTable  = "custom_values"
)

// BooksSchema holds one row per local book. rating is the built-in 0-10
// rating column.
const BooksSchema = `CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	authors TEXT NOT NULL DEFAULT '',
	pubdate TEXT,
	rating INTEGER,
	added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// IdentifiersSchema stores typed external identifiers (isbn, hardcover,
// hardcover-edition) per book.
const IdentifiersSchema = `CREATE TABLE IF NOT EXISTS identifiers (
	book INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	val TEXT NOT NULL,
	PRIMARY KEY (book, type)
)`

// CustomColumnsSchema describes the user defined columns. Labels are
// addressed with a leading '#', which is not stored.
const CustomColumnsSchema = `CREATE TABLE IF NOT EXISTS custom_columns (
	label TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	datatype TEXT NOT NULL
)`

// CustomValuesSchema holds one value per book and custom column.
const CustomValuesSchema = `CREATE TABLE IF NOT EXISTS custom_values (
	book INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	label TEXT NOT NULL REFERENCES custom_columns(label),
	value,
	PRIMARY KEY (book, label)
)`

// AllSchemas returns the schemas in creation order.
func AllSchemas() []string {
	return []string{
		BooksSchema,
		IdentifiersSchema,
		CustomColumnsSchema,
		CustomValuesSchema,
	}
}
