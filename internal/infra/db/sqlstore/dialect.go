package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect picks placeholder style.
type Dialect int

const (
	MySQL Dialect = iota
	Postgres
	SQLite
)

// Rebind rewrites ? placeholders as $1, $2... for Postgres.
func (d Dialect) Rebind(q string) string {
	if d != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
