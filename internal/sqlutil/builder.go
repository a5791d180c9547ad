package sqlutil

import (
	"fmt"
	"strings"
)

// Op is a WHERE condition operator.
type Op int

const (
	OpEq Op = iota
	OpIsNull
	OpNotNull
	OpNotIn // column NOT IN (subquery)
)

// Cond is a single WHERE condition. Conditions of a statement are ANDed.
type Cond struct {
	Column string
	Op     Op
	Value  interface{}
	Sub    *Select
}

// Eq matches column = value.
func Eq(column string, value interface{}) Cond {
	return Cond{Column: column, Op: OpEq, Value: value}
}

// IsNull matches column IS NULL.
func IsNull(column string) Cond {
	return Cond{Column: column, Op: OpIsNull}
}

// NotNull matches column IS NOT NULL.
func NotNull(column string) Cond {
	return Cond{Column: column, Op: OpNotNull}
}

// NotIn matches column NOT IN (sub).
func NotIn(column string, sub Select) Cond {
	return Cond{Column: column, Op: OpNotIn, Sub: &sub}
}

// Select is a single-column SELECT.
type Select struct {
	Column  string
	Table   string
	Where   []Cond
	GroupBy string
	Limit   int // 0 means no limit
}

// Assignment is one SET clause entry of an Update.
type Assignment struct {
	Column string
	Value  interface{}
}

// Update is an UPDATE of a single table.
type Update struct {
	Table string
	Set   []Assignment
	Where []Cond
}

// Build renders the statement with ? placeholders and returns its arguments.
func (s Select) Build() (string, []interface{}, error) {
	column, err := QuoteIdentifierSafe(s.Column)
	if err != nil {
		return "", nil, err
	}
	table, err := QuoteIdentifierSafe(s.Table)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(column)
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	args, err := writeWhere(&sb, s.Where)
	if err != nil {
		return "", nil, err
	}

	if s.GroupBy != "" {
		groupBy, err := QuoteIdentifierSafe(s.GroupBy)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(groupBy)
	}

	if s.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", s.Limit)
	}

	return sb.String(), args, nil
}

// Build renders the statement with ? placeholders and returns its arguments.
func (u Update) Build() (string, []interface{}, error) {
	if len(u.Set) == 0 {
		return "", nil, fmt.Errorf("update of %s has no assignments", u.Table)
	}

	table, err := QuoteIdentifierSafe(u.Table)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(table)
	sb.WriteString(" SET ")

	args := make([]interface{}, 0, len(u.Set)+len(u.Where))
	for i, a := range u.Set {
		column, err := QuoteIdentifierSafe(a.Column)
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(column)
		sb.WriteString(" = ?")
		args = append(args, a.Value)
	}

	whereArgs, err := writeWhere(&sb, u.Where)
	if err != nil {
		return "", nil, err
	}

	return sb.String(), append(args, whereArgs...), nil
}

func writeWhere(sb *strings.Builder, conds []Cond) ([]interface{}, error) {
	if len(conds) == 0 {
		return nil, nil
	}

	var args []interface{}
	sb.WriteString(" WHERE ")
	for i, c := range conds {
		column, err := QuoteIdentifierSafe(c.Column)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(column)

		switch c.Op {
		case OpEq:
			sb.WriteString(" = ?")
			args = append(args, c.Value)
		case OpIsNull:
			sb.WriteString(" IS NULL")
		case OpNotNull:
			sb.WriteString(" IS NOT NULL")
		case OpNotIn:
			if c.Sub == nil {
				return nil, fmt.Errorf("NOT IN on %s without subquery", c.Column)
			}
			sub, subArgs, err := c.Sub.Build()
			if err != nil {
				return nil, err
			}
			sb.WriteString(" NOT IN (")
			sb.WriteString(sub)
			sb.WriteString(")")
			args = append(args, subArgs...)
		default:
			return nil, fmt.Errorf("unknown operator %d on %s", c.Op, c.Column)
		}
	}
	return args, nil
}
