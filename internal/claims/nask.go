package claims

import (
	"time"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// NASK payout flags, in thousands of NOK.
const (
	ExtremePayoutKNOK = 5000
	HighPayoutKNOK    = 3000
)

// NASKQuarter is one quarter of natural-peril payouts reported to Finance
// Norway's NASK database.
type NASKQuarter struct {
	Period           domain.Period `json:"period"`
	Date             time.Time     `json:"date"`
	PayoutKNOK       float64       `json:"payout_1000nok"`
	PayoutNOK        float64       `json:"payout_nok"`
	PayoutMillionNOK float64       `json:"payout_million_nok"`
	IsExtreme        bool          `json:"is_extreme"`
	IsHigh           bool          `json:"is_high"`
}

// osloPayouts are quarterly payouts in thousands of NOK, 2014-Q1 onward.
var osloPayouts = []float64{
	1854, 340, 337, 890,
	3744, 74, 18761, 1154, // 2015-Q3 flooding
	768, 1110, 2335, 487, // 2016-Q3 Asker cloudburst
	435, 22, 1433, 2680,
	491, 1968, 9086, 3040,
	1041, 2003, 2123, 415,
	2228, 9375, 1571, 2621,
	1948, 378, 112, 3522,
}

// OsloNASK returns the 32 Oslo payout quarters for 2014-2021.
func OsloNASK() []NASKQuarter {
	out := make([]NASKQuarter, len(osloPayouts))
	for i, k := range osloPayouts {
		p := domain.Period{Year: 2014 + i/4, Quarter: i%4 + 1}
		out[i] = NASKQuarter{
			Period:           p,
			Date:             p.Start(),
			PayoutKNOK:       k,
			PayoutNOK:        k * 1000,
			PayoutMillionNOK: k / 1000,
			IsExtreme:        k > ExtremePayoutKNOK,
			IsHigh:           k > HighPayoutKNOK,
		}
	}
	return out
}
