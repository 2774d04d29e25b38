// Package status derives the delayed and overdue flags of a plan entry.
//
// The rule is written once as an expression tree. Classify evaluates it in Go
// and DelayedSQL/OverdueSQL render the same tree as a Postgres predicate, so
// listings and dashboard counts cannot drift apart.
package status

import (
	"strings"
	"time"
)

// NotStartedLabel is the execution situation stored when an import row leaves
// it blank.
const NotStartedLabel = "Não iniciada"

// notStartedValues are folded with foldSituacao.
var notStartedValues = []string{
	"",
	"não iniciada",
	"nao iniciada",
	"não iniciado",
	"nao iniciado",
}

var (
	notStarted = orExpr{isNullExpr{refSituacao}, foldedInExpr{values: notStartedValues}}
	datesKnown = andExpr{notExpr{isNullExpr{refStart}}, notExpr{isNullExpr{refEnd}}}
	endPassed  = lessExpr{refEnd, refToday}

	overdueExpr = andExpr{notStarted, datesKnown, endPassed}
	delayedExpr = andExpr{notStarted, datesKnown, notExpr{endPassed}, lessExpr{refStart, refToday}}
)

// Predicate is one derived flag.
type Predicate struct {
	name string
	e    expr
}

var (
	Delayed    = Predicate{name: "atrasada", e: delayedExpr}
	Overdue    = Predicate{name: "vencida", e: overdueExpr}
	NotStarted = Predicate{name: "nao_iniciada", e: notStarted}
)

func (p Predicate) Name() string { return p.name }

// Eval reports whether the predicate holds. A SQL NULL result counts as false,
// matching how WHERE and CASE WHEN treat it.
func (p Predicate) Eval(r Row) bool {
	return p.e.eval(r) == triTrue
}

// SQL renders the predicate against the given columns.
func (p Predicate) SQL(c Columns) string {
	var b strings.Builder
	p.e.render(&b, c)
	return b.String()
}

// Result holds the derived flags of one entry.
type Result struct {
	Delayed bool `json:"atrasada"`
	Overdue bool `json:"vencida"`
}

// Classify derives the flags for one entry. Dates are compared as calendar
// dates; absent dates or a started situation yield false for both.
func Classify(situacao *string, start, end *time.Time, today time.Time) Result {
	r := Row{Situacao: situacao, Start: start, End: end, Today: today}
	return Result{
		Delayed: Delayed.Eval(r),
		Overdue: Overdue.Eval(r),
	}
}

// IsNotStarted reports whether the execution situation counts as not started.
func IsNotStarted(situacao *string) bool {
	return NotStarted.Eval(Row{Situacao: situacao})
}

func DelayedSQL(c Columns) string { return Delayed.SQL(c) }

func OverdueSQL(c Columns) string { return Overdue.SQL(c) }
