// Package sqlite implements the storage adapter on SQLite, one table per
// collection with an AUTOINCREMENT primary key.
//
// The driver is modernc.org/sqlite — a pure Go translation of SQLite, so no
// CGo toolchain is needed and cross-compilation stays trivial. AUTOINCREMENT
// (not plain INTEGER PRIMARY KEY) matters here: it guarantees ids are never
// reused after deletion, which the id policy requires.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mzevk/estate-api/internal/apperror"
	"github.com/mzevk/estate-api/internal/model"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// Store wraps a sql.DB connection pool and provides the adapter methods.
type Store struct {
	conn *sql.DB
}

// validIdent guards column names interpolated into SQL. Values always go
// through placeholders; identifiers cannot, so anything that is not a plain
// identifier is rejected before it reaches a statement.
var validIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — the public site
	// keeps listing collections while the admin panel mutates them.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// baseColumns are the columns each table was first created with. Columns
// added in later releases live in addedColumns and are applied idempotently,
// so an existing database upgrades in place.
var baseColumns = map[string][]string{
	model.UsersCollection: {`"username" TEXT UNIQUE`, `"password" TEXT`},
	"portfolio":           {`"title" TEXT`, `"location" TEXT`, `"tag" TEXT`, `"image" TEXT`, `"link" TEXT`},
	"blog":                {`"title" TEXT`, `"date" TEXT`, `"image" TEXT`, `"link" TEXT`},
	"gallery":             {`"url" TEXT`, `"category" TEXT`},
	"videos":              {`"title" TEXT`, `"youtubeId" TEXT`},
	"testimonials":        {`"author" TEXT`, `"text" TEXT`},
	"messages":            {`"name" TEXT`, `"phone" TEXT`, `"email" TEXT`, `"topic" TEXT`, `"message" TEXT`, `"date" TEXT`, `"read" INTEGER DEFAULT 0`},
}

// Every collection carries a date column — the service stamps one on every
// insert that arrives without it — so the three tables created before that
// policy pick it up here.
var addedColumns = map[string][][2]string{
	"portfolio":    {{"transactionType", "TEXT"}, {"propertyType", "TEXT"}, {"date", "TEXT"}},
	"blog":         {{"text", "TEXT"}},
	"gallery":      {{"date", "TEXT"}},
	"videos":       {{"date", "TEXT"}},
	"testimonials": {{"date", "TEXT"}},
}

// migrate creates every collection table and applies column additions.
// Each step checks the current schema first and reports failures — no
// fire-and-forget ALTER TABLE.
func (s *Store) migrate() error {
	for _, collection := range model.Collections {
		ddl := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %q ("id" INTEGER PRIMARY KEY AUTOINCREMENT, %s)`,
			collection, strings.Join(baseColumns[collection], ", "),
		)
		if _, err := s.conn.Exec(ddl); err != nil {
			return fmt.Errorf("creating table %s: %w", collection, err)
		}
		for _, col := range addedColumns[collection] {
			if err := s.addColumnIfNotExists(collection, col[0], col[1]); err != nil {
				return fmt.Errorf("adding column %s.%s: %w", collection, col[0], err)
			}
		}
	}
	return nil
}

// addColumnIfNotExists makes ALTER TABLE migrations idempotent — safe to
// run on every startup.
func (s *Store) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := s.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err = s.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %q ADD COLUMN %q %s`, table, column, definition,
	))
	return err
}

// checkCollection rejects table names outside the fixed set before they are
// interpolated into SQL.
func checkCollection(collection string) error {
	if _, ok := baseColumns[collection]; !ok {
		return fmt.Errorf("sqlite: unknown collection %q", collection)
	}
	return nil
}

// boolColumns returns the set of declared boolean columns for a collection,
// so INTEGER 0/1 round-trips back to JSON true/false.
func boolColumns(collection string) map[string]bool {
	out := map[string]bool{}
	for _, col := range model.Schemas[collection] {
		if col.Type == model.Bool {
			out[col.Name] = true
		}
	}
	return out
}

// scanRecords turns a SELECT * result into records. NULL columns are
// omitted from the record rather than serialised as nulls.
func scanRecords(rows *sql.Rows, collection string) ([]model.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading columns: %w", err)
	}
	bools := boolColumns(collection)

	records := []model.Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scanning row: %w", err)
		}

		rec := model.Record{}
		for i, col := range cols {
			switch v := values[i].(type) {
			case nil:
				continue
			case []byte:
				rec[col] = string(v)
			case int64:
				if bools[col] {
					rec[col] = v != 0
				} else {
					rec[col] = v
				}
			default:
				rec[col] = v
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating rows: %w", err)
	}
	return records, nil
}

// List returns every record, newest first (id descending).
func (s *Store) List(ctx context.Context, collection string) ([]model.Record, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT * FROM %q ORDER BY "id" DESC`, collection),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", collection, err)
	}
	defer rows.Close()
	return scanRecords(rows, collection)
}

// sortedFields returns the non-id field names in deterministic order, each
// validated as a plain identifier. The table schema decides whether a field
// actually exists — an unknown column fails the statement, which surfaces
// as a storage error exactly like the underlying engine rejecting it.
func sortedFields(fields model.Record) ([]string, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == model.IDField {
			continue
		}
		if !validIdent.MatchString(k) {
			return nil, apperror.ValidationFailed(k, fmt.Sprintf("invalid field name %q", k))
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Insert persists the caller's fields and returns the assigned id.
func (s *Store) Insert(ctx context.Context, collection string, fields model.Record) (int64, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}
	keys, err := sortedFields(fields)
	if err != nil {
		return 0, err
	}

	var res sql.Result
	if len(keys) == 0 {
		res, err = s.conn.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %q DEFAULT VALUES`, collection))
	} else {
		cols := make([]string, len(keys))
		placeholders := make([]string, len(keys))
		args := make([]any, len(keys))
		for i, k := range keys {
			cols[i] = fmt.Sprintf("%q", k)
			placeholders[i] = "?"
			args[i] = fields[k]
		}
		res, err = s.conn.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
				collection, strings.Join(cols, ", "), strings.Join(placeholders, ", ")),
			args...,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: inserting into %s: %w", collection, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading insert id: %w", err)
	}
	return id, nil
}

// Update merges fields onto the row with the given id. Returns the number
// of rows changed (0 when the id does not exist).
func (s *Store) Update(ctx context.Context, collection string, id int64, fields model.Record) (int64, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}
	keys, err := sortedFields(fields)
	if err != nil {
		return 0, err
	}

	// A merge with no fields is still an existence probe: 1 when the row
	// is there, 0 when it is not.
	if len(keys) == 0 {
		var n int64
		err := s.conn.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT COUNT(*) FROM %q WHERE "id" = ?`, collection), id,
		).Scan(&n)
		if err != nil {
			return 0, fmt.Errorf("sqlite: checking %s row: %w", collection, err)
		}
		return n, nil
	}

	setters := make([]string, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		setters[i] = fmt.Sprintf("%q = ?", k)
		args = append(args, fields[k])
	}
	args = append(args, id)

	res, err := s.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %q SET %s WHERE "id" = ?`, collection, strings.Join(setters, ", ")),
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: updating %s id %d: %w", collection, id, err)
	}
	changes, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return changes, nil
}

// Delete removes the row with the given id if present. Idempotent.
func (s *Store) Delete(ctx context.Context, collection string, id int64) (int64, error) {
	if err := checkCollection(collection); err != nil {
		return 0, err
	}
	res, err := s.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %q WHERE "id" = ?`, collection), id,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting from %s: %w", collection, err)
	}
	changes, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return changes, nil
}

// DeleteAll empties the table. The sqlite_sequence entry is untouched, so
// AUTOINCREMENT keeps allocating fresh ids afterwards.
func (s *Store) DeleteAll(ctx context.Context, collection string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %q`, collection)); err != nil {
		return fmt.Errorf("sqlite: clearing %s: %w", collection, err)
	}
	return nil
}

// FindByField returns the first record whose field equals value.
func (s *Store) FindByField(ctx context.Context, collection, field string, value any) (model.Record, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	if !validIdent.MatchString(field) {
		return nil, apperror.ValidationFailed(field, fmt.Sprintf("invalid field name %q", field))
	}

	rows, err := s.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT * FROM %q WHERE %q = ? ORDER BY "id" LIMIT 1`, collection, field),
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying %s: %w", collection, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows, collection)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperror.NotFoundNamed(collection, fmt.Sprintf("%s=%v", field, value))
	}
	return records[0], nil
}
