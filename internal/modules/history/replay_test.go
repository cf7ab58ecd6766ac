package history

import (
	"testing"
	"time"

	"github.com/aristath/folio/internal/domain"
	testutil "github.com/aristath/folio/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-9

var day = testutil.Day

func pts(kv ...interface{}) Series {
	var points []domain.PricePoint
	for i := 0; i < len(kv); i += 2 {
		points = append(points, domain.PricePoint{Date: kv[i].(string), Close: float64(kv[i+1].(int))})
	}
	return NewSeries(points)
}

func TestSeries_At(t *testing.T) {
	s := pts("2024-01-02", 10, "2024-01-05", 12, "2024-01-03", 11)

	p, ok := s.At("2024-01-03")
	assert.True(t, ok)
	assert.InDelta(t, 11, p, delta)

	// Weekend falls back to the last prior close
	p, ok = s.At("2024-01-04")
	assert.True(t, ok)
	assert.InDelta(t, 11, p, delta)

	p, ok = s.At("2024-02-01")
	assert.True(t, ok)
	assert.InDelta(t, 12, p, delta)

	_, ok = s.At("2024-01-01")
	assert.False(t, ok)

	var empty Series
	p, ok = empty.At("2024-01-01")
	assert.False(t, ok)
	assert.Zero(t, p)
}

func TestSeries_AtDayUsesUTCDate(t *testing.T) {
	s := pts("2024-01-02", 10, "2024-01-03", 11)

	// 01:30 on Jan 3 in Istanbul is still Jan 2 in UTC
	ist := time.FixedZone("TRT", 3*60*60)
	p, ok := s.AtDay(time.Date(2024, 1, 3, 1, 30, 0, 0, ist))
	assert.True(t, ok)
	assert.InDelta(t, 10, p, delta)

	p, ok = s.AtDay(time.Date(2024, 1, 3, 23, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.InDelta(t, 11, p, delta)
}

func TestNewSeries_DuplicateDatesKeepLast(t *testing.T) {
	s := NewSeries([]domain.PricePoint{
		{Date: "2024-01-02", Close: 1},
		{Date: "2024-01-02", Close: 2},
	})
	require.Len(t, s, 1)
	assert.InDelta(t, 2, s[0].Close, delta)
}

func TestReplay_OnePointPerDayInclusive(t *testing.T) {
	points := Replay(nil, nil, nil, day(2024, 1, 1), day(2024, 1, 10))

	require.Len(t, points, 10)
	for i, p := range points {
		assert.True(t, p.Date.Equal(day(2024, 1, 1+i)))
		assert.Zero(t, p.Total)
	}

	assert.Empty(t, Replay(nil, nil, nil, day(2024, 1, 10), day(2024, 1, 1)))
}

func TestReplay_ValuesQuantitiesAtHistoricalCloses(t *testing.T) {
	txs := []domain.Transaction{
		testutil.Buy("b1", "XYZ", domain.CategoryLocalEquity, 10, 100, day(2024, 1, 2).Add(15*time.Hour)),
		testutil.Sell("s1", "XYZ", domain.CategoryLocalEquity, 4, 120, day(2024, 1, 4)),
	}
	prices := map[string]Series{"XYZ": pts("2024-01-01", 90, "2024-01-02", 100, "2024-01-03", 110, "2024-01-04", 120)}

	points := Replay(txs, prices, nil, day(2024, 1, 1), day(2024, 1, 5))
	require.Len(t, points, 5)

	assert.InDelta(t, 0, points[0].Total, delta)
	// A transaction late on day D counts on D
	assert.InDelta(t, 1000, points[1].Total, delta)
	assert.InDelta(t, 1100, points[2].Total, delta)
	assert.InDelta(t, 720, points[3].Total, delta)
	// No close on the 5th: last known close is used
	assert.InDelta(t, 720, points[4].Total, delta)
	assert.InDelta(t, 720, points[4].Value(domain.CategoryLocalEquity), delta)
}

func TestReplay_ForeignEquityUsesFXSeriesWithFallback(t *testing.T) {
	txs := []domain.Transaction{
		testutil.Buy("b1", "AAPL", domain.CategoryForeignEquity, 2, 100, day(2024, 1, 1)),
	}
	prices := map[string]Series{"AAPL": pts("2024-01-01", 100)}
	fx := pts("2024-01-02", 30)

	points := Replay(txs, prices, fx, day(2024, 1, 1), day(2024, 1, 3))

	// Before any FX entry the default rate applies
	assert.InDelta(t, 200*domain.DefaultUSDTRYRate, points[0].Total, delta)
	assert.InDelta(t, 6000, points[1].Total, delta)
	assert.InDelta(t, 6000, points[2].Value(domain.CategoryForeignEquity), delta)

	custom := Replay(txs, prices, nil, day(2024, 1, 1), day(2024, 1, 1), WithFallbackFX(40))
	assert.InDelta(t, 8000, custom[0].Total, delta)
}

func TestReplay_ReinvestedDividendAddsWholeShares(t *testing.T) {
	txs := []domain.Transaction{
		testutil.Buy("b1", "XYZ", domain.CategoryLocalEquity, 10, 100, day(2024, 1, 1)),
		testutil.Dividend("d1", "XYZ", domain.CategoryLocalEquity, 55, 25, true, day(2024, 1, 2)),
		testutil.Dividend("d2", "XYZ", domain.CategoryLocalEquity, 100, 25, false, day(2024, 1, 3)),
		testutil.Dividend("d3", "XYZ", domain.CategoryLocalEquity, 100, 0, true, day(2024, 1, 3)),
	}
	prices := map[string]Series{"XYZ": pts("2024-01-01", 10)}

	points := Replay(txs, prices, nil, day(2024, 1, 1), day(2024, 1, 3))

	assert.InDelta(t, 100, points[0].Total, delta)
	assert.InDelta(t, 120, points[1].Total, delta)
	assert.InDelta(t, 120, points[2].Total, delta)
}

func TestReplay_MetalsAndCategories(t *testing.T) {
	txs := []domain.Transaction{
		testutil.Buy("b1", "GAU", domain.CategoryPreciousMetal, 1.5, 2000, day(2024, 1, 1)),
		testutil.Buy("b2", "XYZ", domain.CategoryLocalEquity, 2, 50, day(2024, 1, 1)),
	}
	prices := map[string]Series{
		"GAU": pts("2024-01-01", 2000),
		"XYZ": pts("2024-01-01", 50),
	}

	p := Replay(txs, prices, nil, day(2024, 1, 1), day(2024, 1, 1))[0]

	assert.InDelta(t, 3000, p.Value(domain.CategoryPreciousMetal), delta)
	assert.InDelta(t, 100, p.Value(domain.CategoryLocalEquity), delta)
	assert.InDelta(t, 0, p.Value(domain.CategoryForeignEquity), delta)
	assert.InDelta(t, 3100, p.Total, delta)
}

func TestReplay_MissingSeriesContributesZero(t *testing.T) {
	txs := []domain.Transaction{
		testutil.Buy("b1", "GONE", domain.CategoryLocalEquity, 10, 100, day(2024, 1, 1)),
	}

	points := Replay(txs, map[string]Series{}, nil, day(2024, 1, 1), day(2024, 1, 31))

	require.Len(t, points, 31)
	for _, p := range points {
		assert.Zero(t, p.Total)
	}
}

func TestReplay_Causality(t *testing.T) {
	base := testutil.NewTransactionFixtures()
	prices := map[string]Series{
		"THYAO.IS": pts("2024-01-01", 100),
		"AAPL":     pts("2024-01-01", 180),
		"GAU":      pts("2024-01-01", 2000),
	}
	start, end := day(2024, 1, 1), day(2024, 3, 31)

	before := Replay(base, prices, nil, start, end)

	late := append(append([]domain.Transaction{}, base...),
		testutil.Buy("late", "AAPL", domain.CategoryForeignEquity, 100, 180, day(2024, 3, 1)))
	after := Replay(late, prices, nil, start, end)

	require.Equal(t, len(before), len(after))
	for i := range before {
		if before[i].Date.Before(day(2024, 3, 1)) {
			assert.Equal(t, before[i], after[i], "day %s", before[i].Date)
		} else {
			assert.Greater(t, after[i].Total, before[i].Total)
		}
	}
}

func TestReplay_Idempotent(t *testing.T) {
	txs := testutil.NewTransactionFixtures()
	prices := map[string]Series{
		"THYAO.IS": pts("2024-01-01", 100, "2024-02-01", 140),
		"AAPL":     pts("2024-01-02", 180),
	}
	fx := pts("2024-01-01", 30, "2024-02-15", 31)

	first := Replay(txs, prices, fx, day(2024, 1, 1), day(2024, 4, 1))
	second := Replay(txs, prices, fx, day(2024, 1, 1), day(2024, 4, 1))

	assert.Equal(t, first, second)
}

func TestReplay_UnsortedInput(t *testing.T) {
	txs := testutil.NewTransactionFixtures()
	reversed := make([]domain.Transaction, len(txs))
	for i := range txs {
		reversed[len(txs)-1-i] = txs[i]
	}
	prices := map[string]Series{"THYAO.IS": pts("2024-01-01", 100)}

	assert.Equal(t,
		Replay(txs, prices, nil, day(2024, 1, 1), day(2024, 2, 5)),
		Replay(reversed, prices, nil, day(2024, 1, 1), day(2024, 2, 5)))
}
