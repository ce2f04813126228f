package domain

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value is a bound query parameter as it appears in a log entry.
// The set of implementations is closed: Null, Int, Float, Text, Bool, Bytes and Time.
type Value interface {
	driver.Valuer
	// Literal returns the value's log serialization.
	Literal() string
	isValue()
}

type (
	Null  struct{}
	Int   int64
	Float float64
	Text  string
	Bool  bool
	Bytes []byte
	Time  time.Time
)

func (Null) isValue()  {}
func (Int) isValue()   {}
func (Float) isValue() {}
func (Text) isValue()  {}
func (Bool) isValue()  {}
func (Bytes) isValue() {}
func (Time) isValue()  {}

const timeLayout = "2006-01-02 15:04:05.999999"

func (Null) Literal() string    { return "NULL" }
func (v Int) Literal() string   { return strconv.FormatInt(int64(v), 10) }
func (v Float) Literal() string { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (v Text) Literal() string  { return quote(string(v)) }

func (v Bool) Literal() string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (v Bytes) Literal() string { return "X'" + hex.EncodeToString(v) + "'" }
func (v Time) Literal() string  { return quote(time.Time(v).UTC().Format(timeLayout)) }

// Each variant binds as the driver.Value it logs.
var (
	_ driver.Valuer = Null{}
	_ driver.Valuer = Int(0)
	_ driver.Valuer = Float(0)
	_ driver.Valuer = Text("")
	_ driver.Valuer = Bool(false)
	_ driver.Valuer = Bytes(nil)
	_ driver.Valuer = Time{}
)

func (Null) Value() (driver.Value, error)    { return nil, nil }
func (v Int) Value() (driver.Value, error)   { return int64(v), nil }
func (v Float) Value() (driver.Value, error) { return float64(v), nil }
func (v Text) Value() (driver.Value, error)  { return string(v), nil }
func (v Bool) Value() (driver.Value, error)  { return bool(v), nil }
func (v Bytes) Value() (driver.Value, error) { return []byte(v), nil }
func (v Time) Value() (driver.Value, error)  { return time.Time(v), nil }

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote wraps s in single quotes, backslash-escaping quotes and backslashes.
func quote(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

// ValueOf converts an arbitrary query argument to a Value.
// Arguments the database/sql converter rejects are logged by their fmt representation.
func ValueOf(arg any) Value {
	if v, ok := arg.(Value); ok {
		return v
	}

	dv, err := driver.DefaultParameterConverter.ConvertValue(arg)
	if err != nil {
		return Text(fmt.Sprint(arg))
	}

	switch x := dv.(type) {
	case nil:
		return Null{}
	case int64:
		return Int(x)
	case float64:
		return Float(x)
	case bool:
		return Bool(x)
	case string:
		return Text(x)
	case []byte:
		return Bytes(x)
	case time.Time:
		return Time(x)
	default:
		return Text(fmt.Sprint(x))
	}
}

// Values is an ordered list of bound parameters.
type Values []Value

// ValuesOf converts query arguments positionally.
func ValuesOf(args ...any) Values {
	if len(args) == 0 {
		return nil
	}
	vals := make(Values, len(args))
	for i, a := range args {
		vals[i] = ValueOf(a)
	}
	return vals
}

// String joins the literals with commas and no padding.
func (vs Values) String() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Literal()
	}
	return strings.Join(parts, ",")
}
