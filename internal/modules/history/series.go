package history

import (
	"sort"
	"time"

	"github.com/aristath/folio/internal/domain"
)

// DateLayout is the civil-date format of series entries
const DateLayout = "2006-01-02"

// Series is a close-price series sorted ascending by date
type Series []domain.PricePoint

// NewSeries copies points into a sorted series.
// When a date repeats the last point for that date wins.
func NewSeries(points []domain.PricePoint) Series {
	s := make(Series, len(points))
	copy(s, points)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date < s[j].Date })

	out := s[:0]
	for _, p := range s {
		if n := len(out); n > 0 && out[n-1].Date == p.Date {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// At returns the close on date, else the latest close before date.
// ok is false when the series has no entry on or before date.
func (s Series) At(date string) (price float64, ok bool) {
	// First index with Date > date
	i := sort.Search(len(s), func(i int) bool { return s[i].Date > date })
	if i == 0 {
		return 0, false
	}
	return s[i-1].Close, true
}

// AtDay is At for the civil date of t in UTC
func (s Series) AtDay(t time.Time) (float64, bool) {
	return s.At(t.UTC().Format(DateLayout))
}
