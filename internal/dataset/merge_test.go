package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

func mustRead(t *testing.T, s string) *Table {
	t.Helper()
	tbl, err := ReadCSV(strings.NewReader(s))
	require.NoError(t, err)
	return tbl
}

func TestMerge_Inner(t *testing.T) {
	claims := mustRead(t, claimsCSV)
	precip := mustRead(t, "period,total_precip_mm,natural_perils\n2014-Q2,310.5,9\n2014-Q3,402,8\n2015-Q1,120,7\n")

	got, err := Merge(claims, precip, InnerJoin)
	require.NoError(t, err)

	assert.Equal(t, []string{"period", "year", "quarter", "total_claims", "natural_perils",
		"total_precip_mm", "natural_perils_right"}, got.Columns)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, []string{"2014-Q2", "2014", "2", "35", "19", "310.5", "9"}, got.Rows[0])
}

func TestMerge_Left(t *testing.T) {
	claims := mustRead(t, claimsCSV)
	precip := mustRead(t, "year,quarter,total_precip_mm\n2014,3,402\n")

	got, err := Merge(claims, precip, LeftJoin)
	require.NoError(t, err)

	require.Equal(t, 3, got.Len())
	vals, err := got.Floats("total_precip_mm")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(vals[0]), "unmatched left rows are empty")
	assert.Equal(t, 402.0, vals[2])
}

func TestMerge_Errors(t *testing.T) {
	claims := mustRead(t, claimsCSV)
	dup := mustRead(t, "period,x\n2014-Q1,1\n2014 Q1,2\n")

	_, err := Merge(claims, dup, InnerJoin)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Merge(dup, claims, LeftJoin)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Merge(claims, claims, JoinType("outer"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseJoinType(t *testing.T) {
	j, err := ParseJoinType("left")
	require.NoError(t, err)
	assert.Equal(t, LeftJoin, j)

	_, err = ParseJoinType("cross")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
