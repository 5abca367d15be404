package dataset

import (
	"fmt"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// JoinType selects which periods survive a Merge.
type JoinType string

const (
	// InnerJoin keeps periods present in both tables.
	InnerJoin JoinType = "inner"
	// LeftJoin keeps every left period; missing right cells are empty.
	LeftJoin JoinType = "left"
)

// ParseJoinType validates a join name.
func ParseJoinType(s string) (JoinType, error) {
	switch JoinType(s) {
	case InnerJoin, LeftJoin:
		return JoinType(s), nil
	default:
		return "", fmt.Errorf("join %q (want inner or left): %w", s, domain.ErrInvalidInput)
	}
}

// Merge joins two quarterly tables on period. The output carries period,
// year and quarter first, then the left columns, then the right columns.
// A right column whose name is already taken gets a "_right" suffix.
func Merge(left, right *Table, how JoinType) (*Table, error) {
	if _, err := ParseJoinType(string(how)); err != nil {
		return nil, err
	}
	lp, err := left.Periods()
	if err != nil {
		return nil, fmt.Errorf("left table: %w", err)
	}
	rp, err := right.Periods()
	if err != nil {
		return nil, fmt.Errorf("right table: %w", err)
	}

	rightRow := make(map[domain.Period]int, len(rp))
	for i, p := range rp {
		if _, dup := rightRow[p]; dup {
			return nil, fmt.Errorf("right table: duplicate period %s: %w", p, domain.ErrInvalidInput)
		}
		rightRow[p] = i
	}

	key := map[string]bool{ColPeriod: true, ColYear: true, ColQuarter: true}
	columns := []string{ColPeriod, ColYear, ColQuarter}
	taken := map[string]bool{ColPeriod: true, ColYear: true, ColQuarter: true}

	var leftCols, rightCols []int
	for i, c := range left.Columns {
		if key[c] {
			continue
		}
		leftCols = append(leftCols, i)
		columns = append(columns, c)
		taken[c] = true
	}
	for i, c := range right.Columns {
		if key[c] {
			continue
		}
		name := c
		if taken[name] {
			name += "_right"
		}
		rightCols = append(rightCols, i)
		columns = append(columns, name)
		taken[name] = true
	}

	out := NewTable(columns...)
	seen := make(map[domain.Period]bool, len(lp))
	for li, p := range lp {
		if seen[p] {
			return nil, fmt.Errorf("left table: duplicate period %s: %w", p, domain.ErrInvalidInput)
		}
		seen[p] = true

		ri, matched := rightRow[p]
		if !matched && how == InnerJoin {
			continue
		}
		row := []string{p.String(), formatInt(p.Year), formatInt(p.Quarter)}
		for _, c := range leftCols {
			row = append(row, left.Rows[li][c])
		}
		for _, c := range rightCols {
			if matched {
				row = append(row, right.Rows[ri][c])
			} else {
				row = append(row, "")
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
