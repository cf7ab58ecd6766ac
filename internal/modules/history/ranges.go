package history

import (
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
)

// RangePreset names a chart window ending now
type RangePreset string

const (
	Range1D RangePreset = "1D"
	Range1W RangePreset = "1W"
	Range1M RangePreset = "1M"
	Range1Y RangePreset = "1Y"
	Range3Y RangePreset = "3Y"
	Range5Y RangePreset = "5Y"
)

// DefaultRange is used when no preset is given
const DefaultRange = Range1M

// Window is a resolved date range with the bar size used to fetch its prices
type Window struct {
	Preset      RangePreset        `json:"range"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	Granularity domain.Granularity `json:"granularity"`
}

// ParseRange parses a preset name. An empty name yields DefaultRange.
func ParseRange(s string) (RangePreset, error) {
	p := RangePreset(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case "":
		return DefaultRange, nil
	case Range1D, Range1W, Range1M, Range1Y, Range3Y, Range5Y:
		return p, nil
	}
	return "", domain.NewValidationError("range", "must be one of 1D, 1W, 1M, 1Y, 3Y, 5Y")
}

// ResolveRange turns a preset into a window ending at now.
// Windows up to a year use daily bars, 3Y weekly and 5Y monthly.
func ResolveRange(p RangePreset, now time.Time) Window {
	w := Window{Preset: p, End: now, Granularity: domain.GranularityDaily}

	switch p {
	case Range1D:
		w.Start = now.AddDate(0, 0, -1)
	case Range1W:
		w.Start = now.AddDate(0, 0, -7)
	case Range1Y:
		w.Start = now.AddDate(-1, 0, 0)
	case Range3Y:
		w.Start = now.AddDate(-3, 0, 0)
		w.Granularity = domain.GranularityWeekly
	case Range5Y:
		w.Start = now.AddDate(-5, 0, 0)
		w.Granularity = domain.GranularityMonthly
	default:
		w.Preset = Range1M
		w.Start = now.AddDate(0, -1, 0)
	}

	return w
}
