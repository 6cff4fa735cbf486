package campus

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

type Campus struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// PrefixLetter is the uppercased first letter of the campus name, shown in front of every folio.
func (c Campus) PrefixLetter() string {
	return PrefixLetter(c.Name)
}

// PrefixLetter returns the uppercased first letter of name ("" for a blank name).
func PrefixLetter(name string) string {
	name = strings.TrimSpace(name)
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// Card is a payment card (or terminal) campuses receive money through.
// Sat cards are tax-exempt: their payments stay out of the campus's specific folio series.
type Card struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Sat      bool   `json:"sat"`
	IsActive bool   `json:"is_active"`
}
