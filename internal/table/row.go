package table

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// Row is a single record keyed by column name. Values are int64, float64,
// string, or nil for SQL NULL.
type Row map[string]any

// Int64 returns the named value as an int64.
func (r Row) Int64(column string) (int64, error) {
	return cast.ToInt64E(r[column])
}

// Text returns the named value as a string; NULL is "".
func (r Row) Text(column string) string {
	return cast.ToString(r[column])
}

func scanRows(rows *sql.Rows, schema Schema) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, name := range columns {
			row[name] = normalize(values[i], schema, name)
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// normalize turns a driver value into one of the Row scalar types and then
// applies the declared column type when the schema knows the column.
func normalize(v any, schema Schema, name string) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		v = string(val)
	case time.Time:
		v = val.Format(time.RFC3339Nano)
	case bool:
		if val {
			v = int64(1)
		} else {
			v = int64(0)
		}
	case int64, float64, string:
	default:
		switch TypeOf(val) {
		case TagInteger:
			v = cast.ToInt64(val)
		case TagFloat:
			v = cast.ToFloat64(val)
		default:
			v = cast.ToString(val)
		}
	}

	col, ok := schema.Column(name)
	if !ok || col.Type == Any {
		return v
	}

	// Keep the raw value when the stored data does not fit the declared type.
	if typed, err := coerce(tagFor(col.Type), v); err == nil {
		return typed
	}
	return v
}
