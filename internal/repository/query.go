package repository

import (
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps page and size into valid bounds, using def when size is unset.
func NewPage(number, size, def int) Page {
	if number < 1 {
		number = 1
	}
	if def < 1 {
		def = DefaultPageSize
	}
	if size < 1 {
		size = def
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// likePattern builds a case-insensitive substring pattern for
// "LOWER(col) LIKE ? ESCAPE '\'".
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func ilike(column string) string {
	return "LOWER(" + column + `) LIKE ? ESCAPE '\'`
}
