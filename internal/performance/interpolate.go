package performance

import (
	"sort"
	"time"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/timeutil"
)

// DailyProxy expands the sparse quarterly return series to a daily series
// over [start, end]: forward-fill the most recent recorded value, then lag
// the whole series by one calendar day (signal/execution lag). The same
// monthly return repeats on every day of its fill window; this inflates
// annualized magnitudes versus a compounding model and is a known
// simplification, applied identically to strategy and benchmark comparisons.
func DailyProxy(returns []contracts.StrategyReturn, start, end time.Time) map[time.Time]float64 {
	records := make([]contracts.StrategyReturn, len(returns))
	copy(records, returns)
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })

	// 레코드가 d 이전(포함)에 없으면 0
	valueAt := func(d time.Time) float64 {
		v := 0.0
		for _, r := range records {
			if timeutil.DateOnly(r.Date).After(d) {
				break
			}
			v = r.Return
		}
		return v
	}

	daily := make(map[time.Time]float64)
	for d := timeutil.DateOnly(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		daily[d] = valueAt(d.AddDate(0, 0, -1))
	}
	return daily
}
