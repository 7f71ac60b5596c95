package table

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/saltyorg/tablekit/internal/config"
)

// DefaultKey is the key column used when a schema does not name one.
const DefaultKey = "id"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ColumnType is the declared storage type of a column.
type ColumnType int

const (
	// Any columns are typed per value at bind time.
	Any ColumnType = iota
	Integer
	Float
	Text
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Text:
		return "text"
	}
	return "any"
}

// ParseColumnType maps a configured type name to a ColumnType.
// An empty name is Any.
func ParseColumnType(name string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "any":
		return Any, nil
	case "integer", "int", "bigint":
		return Integer, nil
	case "float", "double", "real":
		return Float, nil
	case "text", "string", "varchar":
		return Text, nil
	}
	return Any, fmt.Errorf("unknown column type %q", name)
}

// Column is one typed column definition.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered column list of a table plus its key column.
// Statements always list columns in schema order.
type Schema struct {
	key     string
	columns []Column
	index   map[string]int
}

// NewSchema validates columns and builds a schema keyed on key (DefaultKey
// when empty). The key column is added as Integer when it is not listed.
func NewSchema(key string, columns ...Column) (Schema, error) {
	if key == "" {
		key = DefaultKey
	}
	if !identifierPattern.MatchString(key) {
		return Schema{}, fmt.Errorf("%w: key %q", ErrInvalidIdentifier, key)
	}

	s := Schema{
		key:   key,
		index: make(map[string]int, len(columns)+1),
	}

	for _, col := range columns {
		if !identifierPattern.MatchString(col.Name) {
			return Schema{}, fmt.Errorf("%w: column %q", ErrInvalidIdentifier, col.Name)
		}
		if _, dup := s.index[col.Name]; dup {
			return Schema{}, fmt.Errorf("duplicate column %q", col.Name)
		}
		s.index[col.Name] = len(s.columns)
		s.columns = append(s.columns, col)
	}

	if _, ok := s.index[key]; !ok {
		s.columns = append([]Column{{Name: key, Type: Integer}}, s.columns...)
		for i, col := range s.columns {
			s.index[col.Name] = i
		}
	}

	return s, nil
}

// SchemaFromConfig converts a declared table into a Schema.
func SchemaFromConfig(tc config.TableConfig) (Schema, error) {
	columns := make([]Column, 0, len(tc.Columns))
	for _, cc := range tc.Columns {
		typ, err := ParseColumnType(cc.Type)
		if err != nil {
			return Schema{}, fmt.Errorf("column %q: %w", cc.Name, err)
		}
		columns = append(columns, Column{Name: cc.Name, Type: typ})
	}
	return NewSchema(tc.Key, columns...)
}

// Key returns the key column name.
func (s Schema) Key() string {
	return s.key
}

// Columns returns a copy of the ordered column list.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Column looks up a column by name.
func (s Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}
