package table

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// TypeTag tells the driver how a bound parameter is serialized.
type TypeTag byte

const (
	TagInteger TypeTag = 'i'
	TagFloat   TypeTag = 'd'
	TagText    TypeTag = 's'
)

// TypeOf infers the tag of an untyped value: integers bind as integers,
// floating point numbers as floats and everything else as text. Booleans
// and nil are not distinguished from text.
func TypeOf(v any) TypeTag {
	if v == nil {
		return TagText
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TagInteger
	case reflect.Float32, reflect.Float64:
		return TagFloat
	}
	return TagText
}

func tagFor(typ ColumnType) TypeTag {
	switch typ {
	case Integer:
		return TagInteger
	case Float:
		return TagFloat
	}
	return TagText
}

// binding accumulates positional parameters. tags and args always grow together.
type binding struct {
	tags []byte
	args []any
}

func (b *binding) add(col Column, v any) error {
	tag := tagFor(col.Type)
	if col.Type == Any {
		tag = TypeOf(v)
	}

	arg, err := coerce(tag, v)
	if err != nil {
		return fmt.Errorf("%w: column %q as %s: %v", ErrBind, col.Name, col.Type, err)
	}

	b.tags = append(b.tags, byte(tag))
	b.args = append(b.args, arg)
	return nil
}

// Tags returns the type-tag string, one byte per bound parameter.
func (b *binding) Tags() string {
	return string(b.tags)
}

// Len is the number of bound parameters.
func (b *binding) Len() int {
	return len(b.args)
}

func coerce(tag TypeTag, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && tag != TagText {
		return parseNumber(tag, s)
	}
	switch tag {
	case TagInteger:
		return toInt64(v)
	case TagFloat:
		return cast.ToFloat64E(v)
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return cast.ToStringE(v)
}

// parseNumber reads decimal text. cast would treat a leading zero as octal.
func parseNumber(tag TypeTag, s string) (any, error) {
	s = strings.TrimSpace(s)
	if tag == TagFloat {
		return strconv.ParseFloat(s, 64)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// "41.0" from a float-formatting client
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	return floatToInt64(f)
}

// toInt64 converts v without truncating fractions or wrapping large
// unsigned values.
func toInt64(v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return floatToInt64(rv.Float())
	case reflect.Uint, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", u)
		}
	}
	return cast.ToInt64E(v)
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return int64(f), nil
}
