// Package query is a small composable predicate builder. Expressions are
// AND/OR trees of field predicates that compile to a parameterized SQL
// fragment and apply to a gorm query with Where.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// Expr is a boolean predicate over the columns of a query.
type Expr interface {
	// SQL returns the fragment with ? placeholders and its arguments.
	SQL() (string, []any)
}

var fieldPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

func mustField(field string) string {
	if !fieldPattern.MatchString(field) {
		panic(fmt.Sprintf("query: invalid field name %q", field))
	}
	return field
}

type compare struct {
	field string
	op    string
	value any
}

func (c compare) SQL() (string, []any) {
	return fmt.Sprintf("%s %s ?", c.field, c.op), []any{c.value}
}

// Eq matches field = value.
func Eq(field string, value any) Expr { return compare{mustField(field), "=", value} }

// Ne matches field <> value.
func Ne(field string, value any) Expr { return compare{mustField(field), "<>", value} }

// Gt matches field > value.
func Gt(field string, value any) Expr { return compare{mustField(field), ">", value} }

// Lt matches field < value.
func Lt(field string, value any) Expr { return compare{mustField(field), "<", value} }

// Like matches field LIKE pattern.
func Like(field, pattern string) Expr { return compare{mustField(field), "LIKE", pattern} }

type membership struct {
	field  string
	negate bool
	values any
}

func (m membership) SQL() (string, []any) {
	op := "IN"
	if m.negate {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s ?", m.field, op), []any{m.values}
}

// In matches field IN values. values must be a slice.
func In(field string, values any) Expr { return membership{field: mustField(field), values: values} }

// NotIn matches field NOT IN values.
func NotIn(field string, values any) Expr {
	return membership{field: mustField(field), negate: true, values: values}
}

type raw struct {
	sql  string
	args []any
}

func (r raw) SQL() (string, []any) { return r.sql, r.args }

// Exists wraps a correlated subquery.
func Exists(subquery string, args ...any) Expr {
	return raw{sql: "EXISTS (" + subquery + ")", args: args}
}

// NotExists negates Exists.
func NotExists(subquery string, args ...any) Expr {
	return raw{sql: "NOT EXISTS (" + subquery + ")", args: args}
}

// Raw is an escape hatch for fragments the builder cannot express.
func Raw(sql string, args ...any) Expr { return raw{sql: sql, args: args} }

// True always matches.
func True() Expr { return raw{sql: "1 = 1"} }

// False never matches.
func False() Expr { return raw{sql: "1 = 0"} }

type group struct {
	joiner string
	exprs  []Expr
}

func (g group) SQL() (string, []any) {
	if len(g.exprs) == 0 {
		if g.joiner == " AND " {
			return True().SQL()
		}
		return False().SQL()
	}
	if len(g.exprs) == 1 {
		return g.exprs[0].SQL()
	}
	parts := make([]string, 0, len(g.exprs))
	var args []any
	for _, e := range g.exprs {
		s, a := e.SQL()
		parts = append(parts, "("+s+")")
		args = append(args, a...)
	}
	return strings.Join(parts, g.joiner), args
}

// And matches when every expression matches. And() is True.
func And(exprs ...Expr) Expr { return group{joiner: " AND ", exprs: compact(exprs)} }

// Or matches when any expression matches. Or() is False.
func Or(exprs ...Expr) Expr { return group{joiner: " OR ", exprs: compact(exprs)} }

func compact(exprs []Expr) []Expr {
	out := exprs[:0:0]
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

type not struct{ inner Expr }

func (n not) SQL() (string, []any) {
	s, a := n.inner.SQL()
	return "NOT (" + s + ")", a
}

// Not negates e.
func Not(e Expr) Expr { return not{inner: e} }

type named struct {
	name  string
	inner Expr
}

func (n named) SQL() (string, []any) { return n.inner.SQL() }

// Named labels e so traces and logs can report which predicate was applied.
func Named(name string, e Expr) Expr { return named{name: name, inner: e} }

// NameOf returns the label given by Named, or "" for unnamed expressions.
func NameOf(e Expr) string {
	if n, ok := e.(named); ok {
		return n.name
	}
	return ""
}

// Apply adds e to db as a WHERE condition.
func Apply(db *gorm.DB, e Expr) *gorm.DB {
	if e == nil {
		return db
	}
	s, args := e.SQL()
	return db.Where(s, args...)
}
