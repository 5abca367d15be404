// Package report renders analyses as a Markdown report, a standalone HTML page,
// and a compact JSON summary.
package report
