package domain

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type celsius float64

type valuer struct{ v driver.Value }

func (v valuer) Value() (driver.Value, error) { return v.v, nil }

func TestValue_Literal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", Null{}, "NULL"},
		{"int", Int(1), "1"},
		{"negative int", Int(-42), "-42"},
		{"float", Float(1.5), "1.5"},
		{"whole float", Float(1), "1"},
		{"small float", Float(0.000001), "0.000001"},
		{"text", Text("abc"), "'abc'"},
		{"empty text", Text(""), "''"},
		{"text with quote", Text("It's about time (bro)!"), `'It\'s about time (bro)!'`},
		{"text with backslash", Text(`a\b`), `'a\\b'`},
		{"text with comma", Text("a,b"), "'a,b'"},
		{"true", Bool(true), "TRUE"},
		{"false", Bool(false), "FALSE"},
		{"bytes", Bytes{0x0a, 0xff}, "X'0aff'"},
		{"time", Time(time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)), "'2024-03-01 12:30:45'"},
		{"time with micros", Time(time.Date(2024, 3, 1, 12, 30, 45, 120000000, time.UTC)), "'2024-03-01 12:30:45.12'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.value.Literal())
		})
	}
}

func TestValueOf(t *testing.T) {
	t.Parallel()

	str := "hello"
	var nilPtr *string
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		arg  any
		want Value
	}{
		{"nil", nil, Null{}},
		{"int", 1, Int(1)},
		{"int8", int8(-3), Int(-3)},
		{"uint32", uint32(7), Int(7)},
		{"float32", float32(0.5), Float(0.5)},
		{"float64", 2.25, Float(2.25)},
		{"string", "x", Text("x")},
		{"bool", true, Bool(true)},
		{"bytes", []byte("ab"), Bytes("ab")},
		{"time", ts, Time(ts)},
		{"pointer", &str, Text("hello")},
		{"nil pointer", nilPtr, Null{}},
		{"named kind", celsius(21.5), Float(21.5)},
		{"valuer", valuer{v: int64(9)}, Int(9)},
		{"null string", sql.NullString{}, Null{}},
		{"valid null string", sql.NullString{String: "s", Valid: true}, Text("s")},
		{"already a value", Text("kept"), Text("kept")},
		{"unsupported falls back to text", []int{1, 2}, Text("[1 2]")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ValueOf(tt.arg))
		})
	}
}

func TestValuesOf(t *testing.T) {
	t.Parallel()
	assert.Nil(t, ValuesOf())

	vals := ValuesOf(1, nil, "It's")
	assert.Equal(t, Values{Int(1), Null{}, Text("It's")}, vals)
	assert.Equal(t, `1,NULL,'It\'s'`, vals.String())
}

func TestValues_String_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", Values{}.String())
}

func TestValue_DriverValue(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	tests := []struct {
		name  string
		value Value
		want  driver.Value
	}{
		{"null", Null{}, nil},
		{"int", Int(-4), int64(-4)},
		{"float", Float(2.5), 2.5},
		{"text", Text("x"), "x"},
		{"bool", Bool(true), true},
		{"bytes", Bytes{0x0a}, []byte{0x0a}},
		{"time", Time(ts), ts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := driver.DefaultParameterConverter.ConvertValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.value, ValueOf(got), "binds as the value it logs")
		})
	}
}
