package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/internal/timeutil"
)

// CSVStore implements contracts.PanelProvider over a long-format CSV file
// (date,ticker,adj_close). DB 없이 로컬 파일만으로 백테스트 실행.
type CSVStore struct {
	path string
}

// NewCSVStore creates a CSV-backed panel provider
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Observations loads all rows within [from, to]
func (s *CSVStore) Observations(ctx context.Context, from, to time.Time) ([]contracts.Observation, error) {
	return s.load(from, to, nil)
}

// History loads rows for the given tickers within [from, to]
func (s *CSVStore) History(ctx context.Context, tickers []string, from, to time.Time) ([]contracts.Observation, error) {
	wanted := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		wanted[t] = struct{}{}
	}
	return s.load(from, to, wanted)
}

// load reads the CSV, skipping the header and malformed or out-of-range
// rows. Malformed rows are tolerated, not fatal.
func (s *CSVStore) load(from, to time.Time, wanted map[string]struct{}) ([]contracts.Observation, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read price CSV: %w", err)
	}

	var obs []contracts.Observation
	for _, rec := range records {
		if len(rec) != 3 {
			continue
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			continue // header or malformed row
		}
		date = timeutil.DateOnly(date)
		if date.Before(from) || date.After(to) {
			continue
		}

		ticker := rec[1]
		if wanted != nil {
			if _, ok := wanted[ticker]; !ok {
				continue
			}
		}

		price, err := strconv.ParseFloat(rec[2], 64)
		if err != nil || price <= 0 {
			continue
		}
		obs = append(obs, contracts.Observation{Ticker: ticker, Date: date, AdjClose: price})
	}
	return obs, nil
}

// Append writes observations to the file, creating it with a header when
// missing. Matches the long format the loader reads back.
func (s *CSVStore) Append(obs []contracts.Observation) error {
	_, statErr := os.Stat(s.path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open price CSV for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write([]string{"date", "ticker", "adj_close"}); err != nil {
			return err
		}
	}
	for _, o := range obs {
		row := []string{
			o.Date.Format("2006-01-02"),
			o.Ticker,
			strconv.FormatFloat(o.AdjClose, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
