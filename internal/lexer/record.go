package lexer

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies the type of a lexed scalar.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueInt
	ValueFloat
)

func (k ValueKind) String() string {
	switch k {
	case ValueInt:
		return "int"
	case ValueFloat:
		return "float"
	default:
		return "string"
	}
}

// Value is a scalar field: an integer, a float or a trimmed string.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string // source text, case preserved
}

// StringValue returns a string scalar.
func StringValue(s string) Value { return Value{kind: ValueString, s: s} }

// IntValue returns an integer scalar.
func IntValue(i int64) Value {
	return Value{kind: ValueInt, i: i, f: float64(i), s: strconv.FormatInt(i, 10)}
}

// FloatValue returns a float scalar.
func FloatValue(f float64) Value {
	return Value{kind: ValueFloat, f: f, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNumber() bool  { return v.kind != ValueString }
func (v Value) IsEmpty() bool   { return v.kind == ValueString && v.s == "" }

// Text returns the field as written (trimmed, quotes removed).
func (v Value) Text() string { return v.s }

func (v Value) String() string { return v.s }

// Int returns the value as an int. Floats with an integral value convert.
func (v Value) Int() (int, bool) {
	switch v.kind {
	case ValueInt:
		return int(v.i), true
	case ValueFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<53 {
			return int(v.f), true
		}
	}
	return 0, false
}

// Float returns the value as a float64.
func (v Value) Float() (float64, bool) {
	if v.kind == ValueString {
		return 0, false
	}
	return v.f, true
}

// Param is one keyword parameter. HasValue is false for a bare flag.
type Param struct {
	Name     string // lower-cased
	Value    Value
	HasValue bool
}

// Keyword is a keyword line: a name and its parameters. Immutable once lexed.
type Keyword struct {
	Name    string // lower-cased, inner whitespace collapsed
	Display string // name as written
	Params  []Param
	Line    int
	Raw     string
}

// Param returns the named parameter.
func (k *Keyword) Param(name string) (Param, bool) {
	name = normalizeName(name)
	for _, p := range k.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Has reports whether the parameter is present, as a flag or with a value.
func (k *Keyword) Has(name string) bool {
	_, ok := k.Param(name)
	return ok
}

// String returns the parameter value text, or "" when absent.
func (k *Keyword) String(name string) string {
	p, ok := k.Param(name)
	if !ok {
		return ""
	}
	return p.Value.Text()
}

// DataLine is one data line of comma-separated fields. Continued is set when
// the line ended with a trailing comma. Err holds the lex error of a line
// whose text is not valid fields; Fields is then nil.
type DataLine struct {
	Fields    []Value
	Line      int
	Raw       string
	Continued bool
	Err       error
}

// Record is either a keyword line or a data line.
type Record struct {
	Keyword *Keyword
	Data    *DataLine
}

// IsKeyword reports whether r holds a keyword line.
func (r Record) IsKeyword() bool { return r.Keyword != nil }

// Line returns the source line number of the record.
func (r Record) Line() int {
	if r.Keyword != nil {
		return r.Keyword.Line
	}
	if r.Data != nil {
		return r.Data.Line
	}
	return 0
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
