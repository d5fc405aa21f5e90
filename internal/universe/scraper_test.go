package universe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/longshanks/internal/strategyconfig"
)

const constituentsHTML = `
<html><body>
<table class="table">
  <thead><tr><th>#</th><th>Company</th><th>Symbol</th><th>Weight</th></tr></thead>
  <tbody>
    <tr><td>1</td><td>Apple Inc.</td><td>AAPL</td><td>7.1%</td></tr>
    <tr><td>2</td><td>Microsoft</td><td>MSFT</td><td>6.5%</td></tr>
    <tr><td>3</td><td>Berkshire Hathaway</td><td>BRK.B</td><td>1.7%</td></tr>
    <tr><td>4</td><td>Apple Inc.</td><td>AAPL</td><td>7.1%</td></tr>
  </tbody>
</table>
</body></html>`

func TestParseConstituents(t *testing.T) {
	tickers, err := ParseConstituents(strings.NewReader(constituentsHTML))
	require.NoError(t, err)

	// 중복 제거 + 점 표기를 하이픈으로 변환
	assert.Equal(t, []string{"AAPL", "MSFT", "BRK-B"}, tickers)
}

func TestParseConstituentsEmptyPage(t *testing.T) {
	_, err := ParseConstituents(strings.NewReader("<html><body></body></html>"))
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	cfg := strategyconfig.Default()
	cfg.Universe.Tickers = []string{"AAPL", "MSFT", "AAPL", "NVDA"}

	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, FromConfig(cfg))
}
