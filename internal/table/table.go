package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/saltyorg/tablekit/internal/database"
)

// Conn is the connection a Table issues statements on. *database.DB satisfies it.
type Conn interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	Dialect() database.Dialect
}

// Table is a CRUD accessor bound to one table of the shared connection.
// It holds no state beyond the connection, the table name and the schema.
type Table struct {
	conn    Conn
	name    string
	schema  Schema
	dialect database.Dialect
}

// New binds an accessor to the named table.
func New(conn Conn, name string, schema Schema) (*Table, error) {
	if conn == nil {
		return nil, errors.New("nil connection")
	}
	if !identifierPattern.MatchString(name) {
		return nil, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, name)
	}
	if schema.Key() == "" {
		return nil, fmt.Errorf("table %q: empty schema", name)
	}
	return &Table{
		conn:    conn,
		name:    name,
		schema:  schema,
		dialect: conn.Dialect(),
	}, nil
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Schema returns the schema the accessor was built with.
func (t *Table) Schema() Schema {
	return t.schema
}

// Create inserts values and returns the stored row. The row is re-read by
// the supplied key value, or by the generated key when the key is omitted.
func (t *Table) Create(ctx context.Context, values map[string]any) (Row, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}

	key := t.schema.Key()
	keyValue, keySupplied := values[key]
	if !keySupplied {
		if col, _ := t.schema.Column(key); col.Type != Integer && col.Type != Any {
			return nil, fmt.Errorf("%w: %s key %q must be supplied in %s", ErrNoValues, col.Type, key, t.name)
		}
	}

	var b binding
	columns, err := t.bindValues(&b, values)
	if err != nil {
		return nil, err
	}

	returning := t.dialect.Returning && !keySupplied
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.quote(t.name),
		strings.Join(columns, ", "),
		t.dialect.Placeholders(1, b.Len()),
	)
	if returning {
		query += " RETURNING " + t.quote(key)
	}

	stmt, err := t.prepare(ctx, query, &b)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var id int64
	switch {
	case returning:
		if err := stmt.QueryRowContext(ctx, b.args...).Scan(&id); err != nil {
			return nil, t.execErr("insert", err)
		}
		keyValue = id
	default:
		result, err := stmt.ExecContext(ctx, b.args...)
		if err != nil {
			return nil, t.execErr("insert", err)
		}
		if !keySupplied {
			if id, err = result.LastInsertId(); err != nil {
				return nil, fmt.Errorf("failed to get inserted id: %w", err)
			}
			keyValue = id
		}
	}

	row, err := t.ReadWhere(ctx, key, keyValue)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("inserted row %s=%v not found in %s", key, keyValue, t.name)
	}

	log.Debug().Str("table", t.name).Interface(key, keyValue).Msg("Row created")
	return row, nil
}

// ReadWhere returns the first row whose column equals value, or nil when
// none matches.
func (t *Table) ReadWhere(ctx context.Context, column string, value any) (Row, error) {
	var b binding
	where, err := t.bindPredicate(&b, column, value)
	if errors.Is(err, ErrBind) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT 1", t.quote(t.name), where)
	rows, err := t.query(ctx, query, &b, "select")
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Read returns the row with the given key, or nil when it does not exist.
func (t *Table) Read(ctx context.Context, id int64) (Row, error) {
	return t.ReadWhere(ctx, t.schema.Key(), id)
}

// ReadAll returns every row ordered by key, or nil when the table is empty.
func (t *Table) ReadAll(ctx context.Context) ([]Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", t.quote(t.name), t.quote(t.schema.Key()))
	return t.query(ctx, query, &binding{}, "select")
}

// UpdateWhere sets every column in values on the rows whose column equals
// match. It reports whether any row matched.
func (t *Table) UpdateWhere(ctx context.Context, column string, match any, values map[string]any) (bool, error) {
	if len(values) == 0 {
		return false, ErrNoValues
	}

	var b binding
	columns, err := t.bindValues(&b, values)
	if err != nil {
		return false, err
	}

	set := make([]string, len(columns))
	for i, col := range columns {
		set[i] = col + " = " + t.dialect.Placeholder(i+1)
	}

	where, err := t.bindPredicate(&b, column, match)
	if errors.Is(err, ErrBind) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", t.quote(t.name), strings.Join(set, ", "), where)
	return t.exec(ctx, query, &b, "update")
}

// Update sets values on the row with the given key.
func (t *Table) Update(ctx context.Context, id int64, values map[string]any) (bool, error) {
	return t.UpdateWhere(ctx, t.schema.Key(), id, values)
}

// DeleteWhere removes the rows whose column equals match. It reports
// whether any row was removed.
func (t *Table) DeleteWhere(ctx context.Context, column string, match any) (bool, error) {
	var b binding
	where, err := t.bindPredicate(&b, column, match)
	if errors.Is(err, ErrBind) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", t.quote(t.name), where)
	return t.exec(ctx, query, &b, "delete")
}

// Delete removes the row with the given key.
func (t *Table) Delete(ctx context.Context, id int64) (bool, error) {
	return t.DeleteWhere(ctx, t.schema.Key(), id)
}

// bindValues binds values in schema order and returns the quoted column names.
func (t *Table) bindValues(b *binding, values map[string]any) ([]string, error) {
	if err := t.checkColumns(values); err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(values))
	for _, col := range t.schema.columns {
		v, ok := values[col.Name]
		if !ok {
			continue
		}
		if err := b.add(col, v); err != nil {
			return nil, err
		}
		columns = append(columns, t.quote(col.Name))
	}
	return columns, nil
}

// bindPredicate binds value for a "column = ?" predicate and returns its SQL.
// A value that cannot be coerced to the column type can match no stored
// row; callers treat ErrBind from here as "nothing matched".
func (t *Table) bindPredicate(b *binding, column string, value any) (string, error) {
	col, ok := t.schema.Column(column)
	if !ok {
		return "", fmt.Errorf("%w: %q in %s", ErrUnknownColumn, column, t.name)
	}
	if err := b.add(col, value); err != nil {
		return "", err
	}
	return t.quote(col.Name) + " = " + t.dialect.Placeholder(b.Len()), nil
}

func (t *Table) checkColumns(values map[string]any) error {
	var unknown []string
	for name := range values {
		if _, ok := t.schema.Column(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: %s in %s", ErrUnknownColumn, strings.Join(unknown, ", "), t.name)
}

func (t *Table) prepare(ctx context.Context, query string, b *binding) (*sql.Stmt, error) {
	if len(b.tags) != len(b.args) {
		return nil, fmt.Errorf("type tags %q do not match %d parameters", b.Tags(), len(b.args))
	}

	log.Trace().
		Str("table", t.name).
		Str("query", query).
		Str("types", b.Tags()).
		Msg("Preparing statement")

	stmt, err := t.conn.PrepareContext(ctx, query)
	if err != nil {
		log.Debug().Err(err).Str("table", t.name).Str("query", query).Msg("Statement preparation failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrPrepare, t.name, err)
	}
	return stmt, nil
}

func (t *Table) query(ctx context.Context, query string, b *binding, op string) ([]Row, error) {
	stmt, err := t.prepare(ctx, query, b)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, b.args...)
	if err != nil {
		return nil, t.execErr(op, err)
	}
	defer rows.Close()

	out, err := scanRows(rows, t.schema)
	if err != nil {
		return nil, t.execErr(op, err)
	}
	return out, nil
}

func (t *Table) exec(ctx context.Context, query string, b *binding, op string) (bool, error) {
	stmt, err := t.prepare(ctx, query, b)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, b.args...)
	if err != nil {
		return false, t.execErr(op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	log.Debug().Str("table", t.name).Str("op", op).Int64("affected", affected).Msg("Statement executed")
	return affected > 0, nil
}

func (t *Table) execErr(op string, err error) error {
	log.Debug().Err(err).Str("table", t.name).Str("op", op).Msg("Statement execution failed")
	return fmt.Errorf("%w: %s %s: %w", ErrExec, op, t.name, err)
}

func (t *Table) quote(name string) string {
	return t.dialect.QuoteIdent(name)
}
