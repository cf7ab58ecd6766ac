package history

import (
	"math"

	"github.com/aristath/folio/internal/domain"
	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SMAPeriod is the window of the moving average overlay
const SMAPeriod = 7

// Summary describes a wealth series
type Summary struct {
	StartValue    float64 `json:"start_value"`
	EndValue      float64 `json:"end_value"`
	PeakValue     float64 `json:"peak_value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	// MaxDrawdown is the largest peak-to-trough fall, in percent of the peak
	MaxDrawdown      float64 `json:"max_drawdown"`
	MeanDailyReturn  float64 `json:"mean_daily_return"`
	DailyReturnStdev float64 `json:"daily_return_stdev"`
	// SMA is aligned with the points; entries inside the lookback are nil
	SMA []*float64 `json:"sma,omitempty"`
}

// Summarize computes change, drawdown and return statistics of the totals
func Summarize(points []domain.HistoricalDataPoint) Summary {
	var s Summary
	if len(points) == 0 {
		return s
	}

	totals := make([]float64, len(points))
	for i, p := range points {
		totals[i] = p.Total
	}

	s.StartValue = totals[0]
	s.EndValue = totals[len(totals)-1]
	s.PeakValue = floats.Max(totals)
	s.Change = s.EndValue - s.StartValue
	if s.StartValue > 0 {
		s.ChangePercent = s.Change / s.StartValue * 100
	}
	s.MaxDrawdown = maxDrawdown(totals)

	// Returns are undefined across days worth nothing
	returns := make([]float64, 0, len(totals))
	for i := 1; i < len(totals); i++ {
		if totals[i-1] > 0 {
			returns = append(returns, totals[i]/totals[i-1]-1)
		}
	}
	if len(returns) > 0 {
		s.MeanDailyReturn = stat.Mean(returns, nil)
	}
	if len(returns) > 1 {
		_, s.DailyReturnStdev = stat.MeanStdDev(returns, nil)
	}

	if len(totals) >= SMAPeriod {
		sma := talib.Sma(totals, SMAPeriod)
		s.SMA = make([]*float64, len(totals))
		for i := SMAPeriod - 1; i < len(sma); i++ {
			if v := sma[i]; !math.IsNaN(v) {
				s.SMA[i] = &v
			}
		}
	}

	return s
}

func maxDrawdown(values []float64) float64 {
	peak, worst := 0.0, 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak * 100; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
