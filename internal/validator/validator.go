package validator

import (
	"strings"
	"unicode/utf8"

	"github.com/garrettladley/bellhop/internal/xerrors"
)

// Validator is implemented by request bodies that check their own fields.
type Validator interface {
	Validate(f Fields)
}

// Fields maps a JSON field name to the first problem found with it.
type Fields map[string]string

func (f Fields) add(name string, problem string) {
	if _, ok := f[name]; !ok {
		f[name] = problem
	}
}

// Required flags value when it is empty after trimming whitespace.
func (f Fields) Required(name string, value string) {
	if strings.TrimSpace(value) == "" {
		f.add(name, "required")
	}
}

// MaxRunes flags value when it is longer than limit characters.
func (f Fields) MaxRunes(name string, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		f.add(name, "too long")
	}
}

// Validate runs v and turns any field problems into a 422 response error.
func Validate(v Validator) *xerrors.Error {
	f := make(Fields)
	v.Validate(f)
	if len(f) == 0 {
		return nil
	}
	return xerrors.Validation(f)
}
