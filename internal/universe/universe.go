// Package universe supplies the investable ticker pool, either from the
// strategy config or scraped from the S&P 500 constituents page.
package universe

import "github.com/wonny/longshanks/internal/strategyconfig"

// FromConfig returns the configured ticker list with duplicates removed,
// preserving the configured order.
func FromConfig(cfg *strategyconfig.Config) []string {
	seen := make(map[string]struct{}, len(cfg.Universe.Tickers))
	tickers := make([]string, 0, len(cfg.Universe.Tickers))
	for _, t := range cfg.Universe.Tickers {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tickers = append(tickers, t)
	}
	return tickers
}
