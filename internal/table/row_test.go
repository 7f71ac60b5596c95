package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_TimeKeepsPrecisionAndZone(t *testing.T) {
	schema, err := NewSchema("id", Column{Name: "seen_at"}, Column{Name: "label", Type: Text})
	require.NoError(t, err)

	zone := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 3, 9, 14, 5, 6, 123456789, zone)

	for _, column := range []string{"seen_at", "label"} {
		got := normalize(ts, schema, column)
		assert.Equal(t, "2024-03-09T14:05:06.123456789+02:00", got, column)

		parsed, err := time.Parse(time.RFC3339Nano, got.(string))
		require.NoError(t, err)
		assert.True(t, parsed.Equal(ts))
	}
}

func TestNormalize_DriverValues(t *testing.T) {
	schema, err := NewSchema("id", Column{Name: "age", Type: Integer}, Column{Name: "note"})
	require.NoError(t, err)

	assert.Nil(t, normalize(nil, schema, "age"))
	assert.Equal(t, int64(1), normalize(true, schema, "note"))
	assert.Equal(t, "abc", normalize([]byte("abc"), schema, "note"))
	assert.Equal(t, int64(42), normalize([]byte("42"), schema, "age"))
	assert.Equal(t, int64(7), normalize(int32(7), schema, "id"))

	// stored data that does not fit the declared type is kept as is
	assert.Equal(t, "n/a", normalize("n/a", schema, "age"))
}

func TestRow_Accessors(t *testing.T) {
	row := Row{"id": int64(3), "name": "Ada", "age": nil, "score": 1.5}

	id, err := row.Int64("id")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	assert.Equal(t, "Ada", row.Text("name"))
	assert.Equal(t, "", row.Text("age"))
	assert.Equal(t, "1.5", row.Text("score"))

	_, err = row.Int64("name")
	assert.Error(t, err)
}
