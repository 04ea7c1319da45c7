// Package lexer turns deck text into a stream of keyword and data records.
//
// The lexer is line oriented and streaming: one physical line is held in
// memory at a time, plus the lines of a continued keyword.
package lexer

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"github.com/golangfem/inpdeck/internal/types"
	"github.com/golangfem/inpdeck/model"
)

// Dialect holds the markers that distinguish keyword and comment lines.
// Comment is checked before Keyword, so "**" may extend "*".
type Dialect struct {
	Name    string
	Keyword string
	Comment string
}

var (
	// INP is the Abaqus-style input dialect.
	INP = Dialect{Name: "inp", Keyword: "*", Comment: "**"}
	// BDF is the native free-field deck dialect with $ comments.
	BDF = Dialect{Name: "bdf", Keyword: "*", Comment: "$"}
)

// DialectByName returns a preset dialect.
func DialectByName(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "", "inp", "abaqus":
		return INP, true
	case "bdf", "native":
		return BDF, true
	}
	return Dialect{}, false
}

// Lexer reads records from deck text.
type Lexer struct {
	r       *bufio.Reader
	dialect Dialect
	line    int
	peeked  *rawLine
	done    bool
	types.Logger
}

type rawLine struct {
	text string
	num  int
}

// New returns a Lexer reading from r.
func New(r io.Reader, d Dialect, logger *slog.Logger) *Lexer {
	if d.Keyword == "" {
		d = INP
	}
	l := &Lexer{
		r:       bufio.NewReader(r),
		dialect: d,
		Logger:  types.Logger{L: logger},
	}
	l.Log(slog.LevelDebug, "lexer initialized", slog.String("dialect", d.Name))
	return l
}

// Line returns the number of the last physical line read.
func (l *Lexer) Line() int { return l.line }

// Records returns the remaining records as a lazy sequence. Iteration
// stops after the first error.
func (l *Lexer) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := l.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Next returns the next record, or io.EOF when the input is exhausted.
func (l *Lexer) Next() (Record, error) {
	for {
		raw, ok, err := l.readLine()
		if err != nil {
			return Record{}, err
		}
		if !ok {
			return Record{}, io.EOF
		}
		text := strings.TrimSpace(raw.text)
		switch {
		case text == "":
			continue
		case strings.HasPrefix(text, l.dialect.Comment):
			continue
		case strings.HasPrefix(text, l.dialect.Keyword):
			kw, err := l.keyword(raw, text)
			if err != nil {
				return Record{}, err
			}
			if l.TraceEnabled() {
				l.Trace("keyword", slog.String("name", kw.Name), slog.Int("line", kw.Line))
			}
			return Record{Keyword: kw}, nil
		default:
			dl := l.data(raw, text)
			if l.TraceEnabled() {
				l.Trace("data", slog.Int("fields", len(dl.Fields)), slog.Int("line", dl.Line))
			}
			return Record{Data: dl}, nil
		}
	}
}

func (l *Lexer) readLine() (rawLine, bool, error) {
	if l.peeked != nil {
		raw := *l.peeked
		l.peeked = nil
		return raw, true, nil
	}
	if l.done {
		return rawLine{}, false, nil
	}
	s, err := l.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return rawLine{}, false, err
		}
		l.done = true
		if s == "" {
			return rawLine{}, false, nil
		}
	}
	l.line++
	s = strings.TrimRight(s, "\r\n")
	if l.line == 1 {
		s = strings.TrimPrefix(s, "\ufeff")
	}
	return rawLine{text: s, num: l.line}, true, nil
}

func (l *Lexer) unread(raw rawLine) { l.peeked = &raw }

// keyword lexes a keyword line, following continuation lines while the
// text ends in a comma.
func (l *Lexer) keyword(raw rawLine, text string) (*Keyword, error) {
	body := strings.TrimPrefix(text, l.dialect.Keyword)
	rawText := raw.text
	for strings.HasSuffix(body, ",") {
		next, ok, err := l.readLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		nt := strings.TrimSpace(next.text)
		if nt == "" || strings.HasPrefix(nt, l.dialect.Comment) {
			continue
		}
		if strings.HasPrefix(nt, l.dialect.Keyword) {
			l.unread(next)
			break
		}
		body += nt
		rawText += "\n" + next.text
	}

	fields, err := splitFields(body)
	if err != nil {
		return nil, lexError(raw.num, rawText, err.Error())
	}
	display := strings.TrimSpace(fields[0])
	if display == "" {
		return nil, lexError(raw.num, rawText, "empty keyword name")
	}
	kw := &Keyword{
		Name:    normalizeName(display),
		Display: display,
		Line:    raw.num,
		Raw:     rawText,
	}
	for _, f := range fields[1:] {
		if f == "" {
			continue
		}
		name, val, hasValue := strings.Cut(f, "=")
		p := Param{Name: normalizeName(name), HasValue: hasValue}
		if p.Name == "" {
			return nil, lexError(raw.num, rawText, "parameter without a name")
		}
		if hasValue {
			v, err := parseValue(strings.TrimSpace(val))
			if err != nil {
				return nil, lexError(raw.num, rawText, err.Error())
			}
			p.Value = v
		}
		kw.Params = append(kw.Params, p)
	}
	return kw, nil
}

// data lexes a data line. A line that does not split into fields is still
// returned, with Err set and no Fields, so free-text consumers can use Raw.
func (l *Lexer) data(raw rawLine, text string) *DataLine {
	dl := &DataLine{Line: raw.num, Raw: raw.text}
	fields, err := splitFields(text)
	if err != nil {
		dl.Err = lexError(raw.num, raw.text, err.Error())
		return dl
	}
	if n := len(fields); n > 1 && fields[n-1] == "" {
		fields = fields[:n-1]
		dl.Continued = true
	}
	values := make([]Value, len(fields))
	for i, f := range fields {
		v, err := parseValue(f)
		if err != nil {
			dl.Err = lexError(raw.num, raw.text, err.Error())
			return dl
		}
		values[i] = v
	}
	dl.Fields = values
	return dl
}

func lexError(line int, raw, msg string) *model.DeckError {
	return &model.DeckError{Kind: model.KindLex, Line: line, Raw: raw, Message: msg}
}

type fieldError string

func (e fieldError) Error() string { return string(e) }

// splitFields splits on commas outside double quotes and trims each field.
func splitFields(s string) ([]string, error) {
	var (
		fields []string
		b      strings.Builder
		inStr  bool
	)
	flush := func() {
		fields = append(fields, strings.TrimSpace(b.String()))
		b.Reset()
	}
	for _, r := range s {
		switch {
		case r == '"':
			inStr = !inStr
			b.WriteRune(r)
		case r == ',' && !inStr:
			flush()
		default:
			b.WriteRune(r)
		}
	}
	if inStr {
		return nil, fieldError("unterminated quoted string")
	}
	flush()
	return fields, nil
}

// looksNumeric reports whether tok is built only from number characters,
// starts like a number and contains a digit.
func looksNumeric(tok string) bool {
	if tok == "" || !strings.ContainsAny(tok[:1], "0123456789+-.") {
		return false
	}
	digit := false
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("+-.eEdD", r):
		default:
			return false
		}
	}
	return digit
}

// parseValue converts a trimmed field to a number when it looks like one.
// Fortran exponents (1.0d-3) are accepted. A double-quoted field is always
// a string.
func parseValue(tok string) (Value, error) {
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		return StringValue(tok[1 : len(tok)-1]), nil
	}
	if !looksNumeric(tok) {
		return StringValue(tok), nil
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Value{kind: ValueInt, i: i, f: float64(i), s: tok}, nil
	}
	ftok := strings.NewReplacer("d", "e", "D", "e").Replace(tok)
	f, err := strconv.ParseFloat(ftok, 64)
	if err != nil {
		return Value{}, fieldError("malformed number " + strconv.Quote(tok))
	}
	return Value{kind: ValueFloat, f: f, s: tok}, nil
}
