package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyorg/tablekit/internal/config"
)

func TestNewSchema_AddsKeyColumn(t *testing.T) {
	s, err := NewSchema("", Column{Name: "first_name", Type: Text})
	require.NoError(t, err)

	assert.Equal(t, DefaultKey, s.Key())
	assert.Equal(t, []Column{
		{Name: "id", Type: Integer},
		{Name: "first_name", Type: Text},
	}, s.Columns())

	col, ok := s.Column("first_name")
	require.True(t, ok)
	assert.Equal(t, Text, col.Type)
}

func TestNewSchema_KeepsDeclaredKeyPosition(t *testing.T) {
	s, err := NewSchema("person_id",
		Column{Name: "first_name", Type: Text},
		Column{Name: "person_id", Type: Integer},
	)
	require.NoError(t, err)
	assert.Equal(t, "person_id", s.Columns()[1].Name)
}

func TestNewSchema_Rejects(t *testing.T) {
	_, err := NewSchema("id", Column{Name: "name; DROP TABLE people"})
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	_, err = NewSchema("bad key")
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	_, err = NewSchema("id", Column{Name: "a"}, Column{Name: "a"})
	assert.Error(t, err)
}

func TestParseColumnType(t *testing.T) {
	cases := map[string]ColumnType{
		"":        Any,
		"any":     Any,
		"INTEGER": Integer,
		"bigint":  Integer,
		"real":    Float,
		"double":  Float,
		"varchar": Text,
		" text ":  Text,
	}
	for in, want := range cases {
		got, err := ParseColumnType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseColumnType("blob")
	assert.Error(t, err)
}

func TestSchemaFromConfig(t *testing.T) {
	s, err := SchemaFromConfig(config.TableConfig{
		Columns: []config.ColumnConfig{
			{Name: "id", Type: "integer"},
			{Name: "first_name", Type: "text"},
			{Name: "score"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "id", s.Key())
	assert.Len(t, s.Columns(), 3)

	col, _ := s.Column("score")
	assert.Equal(t, Any, col.Type)

	_, err = SchemaFromConfig(config.TableConfig{
		Columns: []config.ColumnConfig{{Name: "x", Type: "geometry"}},
	})
	assert.Error(t, err)
}
