package status

import (
	"strings"
	"time"

	"SisContratacoes/internal/clock"
)

// tri is a SQL truth value: a comparison against NULL is neither true nor false.
type tri int8

const (
	triNull tri = iota
	triFalse
	triTrue
)

func triOf(b bool) tri {
	if b {
		return triTrue
	}
	return triFalse
}

type ref int

const (
	refSituacao ref = iota
	refStart
	refEnd
	refToday
)

// Row is the input of a predicate: one plan entry plus the current date.
type Row struct {
	Situacao *string
	Start    *time.Time
	End      *time.Time
	Today    time.Time
}

func (r Row) date(x ref) *time.Time {
	switch x {
	case refStart:
		return r.Start
	case refEnd:
		return r.End
	case refToday:
		t := r.Today
		return &t
	}
	return nil
}

// Columns names the SQL operands a predicate renders against. Today is any SQL
// expression of type date, e.g. "$1::date" or "CURRENT_DATE".
type Columns struct {
	Situacao string
	Start    string
	End      string
	Today    string
}

// DefaultColumns targets the pca table columns.
func DefaultColumns(today string) Columns {
	return Columns{
		Situacao: "situacao_execucao",
		Start:    "data_estimada_inicio",
		End:      "data_estimada_conclusao",
		Today:    today,
	}
}

// WithAlias qualifies the column operands with a table alias.
func (c Columns) WithAlias(alias string) Columns {
	if alias == "" {
		return c
	}
	c.Situacao = alias + "." + c.Situacao
	c.Start = alias + "." + c.Start
	c.End = alias + "." + c.End
	return c
}

func (c Columns) operand(x ref) string {
	switch x {
	case refSituacao:
		return c.Situacao
	case refStart:
		return c.Start
	case refEnd:
		return c.End
	default:
		return c.Today
	}
}

// expr is a boolean expression that can be evaluated in Go and rendered to SQL
// with identical three-valued semantics.
type expr interface {
	eval(r Row) tri
	render(b *strings.Builder, c Columns)
}

type andExpr []expr

func (a andExpr) eval(r Row) tri {
	out := triTrue
	for _, x := range a {
		switch x.eval(r) {
		case triFalse:
			return triFalse
		case triNull:
			out = triNull
		}
	}
	return out
}

func (a andExpr) render(b *strings.Builder, c Columns) {
	renderJoined(b, c, []expr(a), " AND ")
}

type orExpr []expr

func (o orExpr) eval(r Row) tri {
	out := triFalse
	for _, x := range o {
		switch x.eval(r) {
		case triTrue:
			return triTrue
		case triNull:
			out = triNull
		}
	}
	return out
}

func (o orExpr) render(b *strings.Builder, c Columns) {
	renderJoined(b, c, []expr(o), " OR ")
}

func renderJoined(b *strings.Builder, c Columns, parts []expr, sep string) {
	b.WriteByte('(')
	for i, x := range parts {
		if i > 0 {
			b.WriteString(sep)
		}
		x.render(b, c)
	}
	b.WriteByte(')')
}

type notExpr struct{ x expr }

func (n notExpr) eval(r Row) tri {
	switch n.x.eval(r) {
	case triTrue:
		return triFalse
	case triFalse:
		return triTrue
	}
	return triNull
}

func (n notExpr) render(b *strings.Builder, c Columns) {
	b.WriteString("NOT ")
	n.x.render(b, c)
}

type isNullExpr struct{ x ref }

func (e isNullExpr) eval(r Row) tri {
	if e.x == refSituacao {
		return triOf(r.Situacao == nil)
	}
	return triOf(r.date(e.x) == nil)
}

func (e isNullExpr) render(b *strings.Builder, c Columns) {
	b.WriteString(c.operand(e.x))
	b.WriteString(" IS NULL")
}

// lessExpr compares two calendar dates.
type lessExpr struct{ a, b ref }

func (e lessExpr) eval(r Row) tri {
	a, b := r.date(e.a), r.date(e.b)
	if a == nil || b == nil {
		return triNull
	}
	return triOf(clock.DateOf(*a).Before(clock.DateOf(*b)))
}

func (e lessExpr) render(b *strings.Builder, c Columns) {
	b.WriteByte('(')
	b.WriteString(c.operand(e.a))
	b.WriteString(" < ")
	b.WriteString(c.operand(e.b))
	b.WriteByte(')')
}

// foldedInExpr tests the folded execution-situation text against a set of
// already-folded values. Folding trims trimCutset, maps "Ã" to "ã" and lowers
// ASCII letters only, which keeps it independent of the database collation.
type foldedInExpr struct {
	values []string
}

func (e foldedInExpr) eval(r Row) tri {
	if r.Situacao == nil {
		return triNull
	}
	s := foldSituacao(*r.Situacao)
	for _, v := range e.values {
		if s == v {
			return triTrue
		}
	}
	return triFalse
}

func (e foldedInExpr) render(b *strings.Builder, c Columns) {
	b.WriteString("TRANSLATE(REPLACE(BTRIM(")
	b.WriteString(c.Situacao)
	b.WriteString(", ")
	b.WriteString(quoteLiteral(trimCutset))
	b.WriteString("), 'Ã', 'ã'), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz') IN (")
	for i, v := range e.values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteLiteral(v))
	}
	b.WriteByte(')')
}

// trimCutset is the Unicode white space set, NBSP included, so spreadsheet
// exports padded with U+00A0 fold like plain spaces.
const trimCutset = " \t\n\v\f\r\u0085\u00a0\u1680\u2000\u2001\u2002\u2003\u2004\u2005\u2006\u2007\u2008\u2009\u200a\u2028\u2029\u202f\u205f\u3000"

func foldSituacao(s string) string {
	s = strings.Trim(s, trimCutset)
	s = strings.ReplaceAll(s, "Ã", "ã")
	buf := []byte(s)
	for i, c := range buf {
		if c >= 'A' && c <= 'Z' {
			buf[i] = c + ('a' - 'A')
		}
	}
	return string(buf)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
