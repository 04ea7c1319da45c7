package deck

import (
	"strings"

	"github.com/golangfem/inpdeck/internal/lexer"
	"github.com/golangfem/inpdeck/model"
)

// requireParam returns a parameter value that must be present and non-empty.
func requireParam(kw *lexer.Keyword, name string) (string, error) {
	v := strings.TrimSpace(kw.String(name))
	if v == "" {
		return "", &model.DeckError{
			Kind:    model.KindStructural,
			Line:    kw.Line,
			Keyword: kw.Name,
			Raw:     kw.Raw,
			Message: "*" + kw.Display + " requires " + name + "=",
		}
	}
	return v, nil
}

// flagValue reads a YES/NO parameter. A bare flag counts as YES.
func flagValue(kw *lexer.Keyword, name string) (bool, error) {
	prm, ok := kw.Param(name)
	if !ok {
		return false, nil
	}
	if !prm.HasValue {
		return true, nil
	}
	switch strings.ToUpper(prm.Value.Text()) {
	case "YES", "Y", "TRUE", "ON":
		return true, nil
	case "NO", "N", "FALSE", "OFF":
		return false, nil
	}
	return false, &model.DeckError{
		Kind:    model.KindStructural,
		Line:    kw.Line,
		Keyword: kw.Name,
		Raw:     kw.Raw,
		Message: name + "=" + prm.Value.Text() + " is not YES or NO",
	}
}

func fieldError(dl *lexer.DataLine, i int, want string) error {
	got := "missing"
	if i < len(dl.Fields) {
		got = "\"" + dl.Fields[i].Text() + "\""
	}
	return &model.DeckError{
		Kind:    model.KindLex,
		Line:    dl.Line,
		Raw:     dl.Raw,
		Message: "field " + itoa(i+1) + ": expected " + want + ", got " + got,
	}
}

// intField returns field i as an integer. The field must be present.
func intField(dl *lexer.DataLine, i int, what string) (int, error) {
	if i >= len(dl.Fields) {
		return 0, fieldError(dl, i, what)
	}
	v, ok := dl.Fields[i].Int()
	if !ok {
		return 0, fieldError(dl, i, what)
	}
	return v, nil
}

// floatField returns field i as a float, or def when the field is absent
// or blank.
func floatField(dl *lexer.DataLine, i int, def float64) (float64, error) {
	if i >= len(dl.Fields) || dl.Fields[i].IsEmpty() {
		return def, nil
	}
	v, ok := dl.Fields[i].Float()
	if !ok {
		return 0, fieldError(dl, i, "a number")
	}
	return v, nil
}

// floats returns every non-blank field from start on as floats.
func floats(dl *lexer.DataLine, start int) ([]float64, error) {
	var out []float64
	for i := start; i < len(dl.Fields); i++ {
		if dl.Fields[i].IsEmpty() {
			continue
		}
		v, ok := dl.Fields[i].Float()
		if !ok {
			return nil, fieldError(dl, i, "a number")
		}
		out = append(out, v)
	}
	return out, nil
}

// ints returns every non-blank field from start on as integers.
func ints(dl *lexer.DataLine, start int, what string) ([]int, error) {
	var out []int
	for i := start; i < len(dl.Fields); i++ {
		if dl.Fields[i].IsEmpty() {
			continue
		}
		v, ok := dl.Fields[i].Int()
		if !ok {
			return nil, fieldError(dl, i, what)
		}
		out = append(out, v)
	}
	return out, nil
}

// words returns every non-blank field as text.
func words(dl *lexer.DataLine) []string {
	var out []string
	for _, f := range dl.Fields {
		if f.IsEmpty() {
			continue
		}
		out = append(out, f.Text())
	}
	return out
}
