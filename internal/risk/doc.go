// Package risk holds the quarterly risk classification and forecast
// evaluation rules.
//
// Forecast risk uses fixed anomaly thresholds (see OrdinalRisk) while actual
// risk uses the sample's own terciles (see ClassifyActualRisk). The two are
// kept as separate functions on purpose: they answer different questions and
// only the latter depends on the rest of the sample.
//
// Every function is pure and returns domain.ErrInvalidInput or
// domain.ErrInsufficientData (wrapped) on bad input.
package risk
