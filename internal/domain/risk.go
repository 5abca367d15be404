package domain

import "fmt"

// RiskLevel is the three-level scale shared by forecast and actual risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskLevels lists the scale in ascending order; matrix rows and columns follow it.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// Index returns the position of l in RiskLevels, or -1.
func (l RiskLevel) Index() int {
	switch l {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return -1
	}
}

// PrecipRisk is the five-level ERA5 anomaly scale.
type PrecipRisk string

const (
	PrecipLow     PrecipRisk = "LOW"
	PrecipNormal  PrecipRisk = "NORMAL"
	PrecipMedium  PrecipRisk = "MEDIUM"
	PrecipHigh    PrecipRisk = "HIGH"
	PrecipExtreme PrecipRisk = "EXTREME"
)

// SignalKind says how a precipitation signal column is expressed.
type SignalKind string

const (
	// SignalRaw is a quarterly total in millimetres.
	SignalRaw SignalKind = "raw"
	// SignalAnomaly is a deseasonalized anomaly in standard deviations.
	SignalAnomaly SignalKind = "anomaly"
)

// ParseSignalKind validates a signal kind name.
func ParseSignalKind(s string) (SignalKind, error) {
	switch SignalKind(s) {
	case SignalRaw, SignalAnomaly:
		return SignalKind(s), nil
	default:
		return "", fmt.Errorf("signal kind %q (want raw or anomaly): %w", s, ErrInvalidInput)
	}
}
