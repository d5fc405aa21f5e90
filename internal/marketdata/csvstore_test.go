package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/longshanks/internal/contracts"
	"github.com/wonny/longshanks/pkg/config"
	"github.com/wonny/longshanks/pkg/logger"
	"github.com/wonny/longshanks/pkg/redis"
)

func writeCSV(t *testing.T, content string) *CSVStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return NewCSVStore(path)
}

func TestCSVStoreObservations(t *testing.T) {
	store := writeCSV(t, `date,ticker,adj_close
2024-01-02,AAPL,185.5
2024-01-02,MSFT,370.1
2024-01-03,AAPL,186.2
not-a-date,AAPL,1.0
2024-01-04,AAPL,-3
2024-01-05,AAPL,188.0
`)

	obs, err := store.Observations(context.Background(), date(2024, 1, 2), date(2024, 1, 4))
	require.NoError(t, err)

	// 헤더/비정상 행/비양수 가격/범위 밖은 모두 제외
	require.Len(t, obs, 3)
	assert.Equal(t, "AAPL", obs[0].Ticker)
	assert.Equal(t, 185.5, obs[0].AdjClose)
	assert.Equal(t, date(2024, 1, 2), obs[0].Date)
}

func TestCSVStoreHistory(t *testing.T) {
	store := writeCSV(t, `date,ticker,adj_close
2024-01-02,AAPL,185.5
2024-01-02,MSFT,370.1
2024-01-03,AAPL,186.2
`)

	obs, err := store.History(context.Background(), []string{"MSFT"}, date(2024, 1, 1), date(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "MSFT", obs[0].Ticker)
}

func TestCSVStoreMissingFile(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "absent.csv"))
	_, err := store.Observations(context.Background(), date(2024, 1, 1), date(2024, 1, 31))
	assert.Error(t, err)
}

func TestCSVStoreAppendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	store := NewCSVStore(path)

	first := []contracts.Observation{
		{Ticker: "AAPL", Date: date(2024, 1, 2), AdjClose: 185.5},
	}
	require.NoError(t, store.Append(first))

	// 두 번째 Append는 헤더 없이 이어씀
	second := []contracts.Observation{
		{Ticker: "AAPL", Date: date(2024, 1, 3), AdjClose: 186.25},
	}
	require.NoError(t, store.Append(second))

	obs, err := store.Observations(context.Background(), date(2024, 1, 1), date(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 185.5, obs[0].AdjClose)
	assert.Equal(t, 186.25, obs[1].AdjClose)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "date,ticker,adj_close")

	assert.Equal(t, 3, strings.Count(string(data), "\n")) // 헤더 1 + 데이터 2
}

func TestCachedProviderPassthroughWhenDisabled(t *testing.T) {
	store := writeCSV(t, `date,ticker,adj_close
2024-01-02,AAPL,185.5
`)

	// Redis 비활성 → 캐시는 전부 미스, 내부 제공자로 통과
	cfg := config.Config{}
	client, err := redis.New(&cfg)
	require.NoError(t, err)
	cache := redis.NewCache(client, "longshanks")

	provider := NewCachedProvider(store, cache, time.Minute, logger.NewNop())
	obs, err := provider.Observations(context.Background(), date(2024, 1, 1), date(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, obs, 1)

	hist, err := provider.History(context.Background(), []string{"AAPL"}, date(2024, 1, 1), date(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, hist, 1)
}
