// Package dataset moves quarterly tables between CSV files, workbooks and
// domain.Dataset values, and joins claims and precipitation tables on period.
package dataset
