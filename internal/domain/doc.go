// Package domain models quarterly insurance-claims and precipitation data for
// Norwegian cities.
//
// # Data Sources
//
// Claims come either from the synthetic generator in package claims (daily
// counts for Bergen and Oslo, 2014-2021, calibrated against Gorji & Rødal
// 2021) or from the Finance Norway NASK natural-perils database (quarterly
// payouts in 1000 NOK). Precipitation comes from ECMWF ERA5 monthly
// reanalysis (observed) and SEAS5 seasonal hindcasts (forecast), read from
// NetCDF and aggregated to quarters by package climate.
//
// # Periods
//
// A quarter is labelled "<year>-Q<n>", e.g. "2016-Q3". The older
// "<year> Q<n>" spelling produced by earlier tooling is accepted on input and
// normalized. Periods are unique within a dataset and ordered by
// (year, quarter). See [ParsePeriod].
//
// # Precipitation Signals
//
// A signal is either a raw quarterly total in millimetres ([SignalRaw]) or a
// standardized anomaly in standard deviations from the same quarter-of-year
// climatology ([SignalAnomaly]). Fixed-threshold risk classification only makes
// sense on anomalies, so raw totals are deseasonalized before classification.
//
// # Risk Scales
//
// Two scales coexist and are kept apart on purpose:
//
//	RiskLevel  (LOW, MEDIUM, HIGH)
//	  forecast risk: fixed anomaly thresholds 0.5 and 1.5 (lower bound inclusive)
//	  actual risk:   33rd/67th percentile of the claims sample
//	PrecipRisk (LOW, NORMAL, MEDIUM, HIGH, EXTREME)
//	  ERA5 quarterly anomaly bands at -0.5, 0.5, 1.0, 1.5 (strictly greater)
//
// # Errors
//
// [ErrInvalidInput] covers malformed, mismatched or NaN-containing inputs and
// [ErrInsufficientData] covers samples too small for a statistic. Both are
// wrapped with context; match them with errors.Is.
package domain
