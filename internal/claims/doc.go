// Package claims produces the claims side of a dataset: synthetic daily
// claims calibrated to published Bergen and Oslo statistics, their quarterly
// aggregation, and the NASK Oslo natural-peril payouts.
//
// Generation is deterministic for a given Profile and seed. There is no
// package-level random state.
package claims
