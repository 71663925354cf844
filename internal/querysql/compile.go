// Package querysql compiles trace filter predicates into parameterized
// SQLite statements over the trace tables.
package querysql

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/framekb/internal/queryir"
)

// Table names a trace table that filters can be compiled against.
type Table string

const (
	Operations Table = "operations"
	Firings    Table = "firings"
)

// columns lists the filterable columns of each table with their kind.
// Column names are never taken from user input verbatim: a condition must
// name a column in this list.
var columns = map[Table]map[string]columnKind{
	Operations: {
		"token":   textColumn,
		"op":      textColumn,
		"outcome": textColumn,
	},
	Firings: {
		"token":      textColumn,
		"frame":      textColumn,
		"owner":      textColumn,
		"slot":       textColumn,
		"demon":      textColumn,
		"procedure":  textColumn,
		"result":     textColumn,
		"found":      boolColumn,
		"suppressed": boolColumn,
	},
}

type columnKind int

const (
	textColumn columnKind = iota
	boolColumn
)

// Columns returns the filterable columns of t in sorted order.
func Columns(t Table) []string {
	out := make([]string, 0, len(columns[t]))
	for c := range columns[t] {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Compile converts a filter predicate into a parameterized SQL statement
// selecting cols from t.
//
// Every statement ends with ORDER BY seq ASC, id COLLATE BINARY ASC so the
// result order is deterministic. Values are always bound as parameters.
// HasSlotType has no meaning for trace rows and is rejected.
func Compile(t Table, cols []string, p queryir.Predicate) (string, []any, error) {
	known, ok := columns[t]
	if !ok {
		return "", nil, fmt.Errorf("unknown table %q", t)
	}

	where, params, err := compilePredicate(known, p)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY seq ASC, id COLLATE BINARY ASC",
		strings.Join(cols, ", "), t, where)
	return sql, params, nil
}

func compilePredicate(known map[string]columnKind, p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case queryir.Equals:
		return compileEquals(known, pred)
	case queryir.And:
		return compileAnd(known, pred)
	case queryir.HasSlotType:
		return "", nil, fmt.Errorf("%s cannot filter trace records", pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(known map[string]columnKind, eq queryir.Equals) (string, []any, error) {
	kind, ok := known[eq.Slot]
	if !ok {
		return "", nil, fmt.Errorf("unknown column %q", eq.Slot)
	}

	if kind == boolColumn {
		b, err := strconv.ParseBool(eq.Value)
		if err != nil {
			return "", nil, fmt.Errorf("column %s: %q is not a bool", eq.Slot, eq.Value)
		}
		n := 0
		if b {
			n = 1
		}
		return eq.Slot + " = ?", []any{n}, nil
	}
	return eq.Slot + " = ?", []any{eq.Value}, nil
}

func compileAnd(known map[string]columnKind, and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, sub := range and.Predicates {
		sql, subParams, err := compilePredicate(known, sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, subParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}
