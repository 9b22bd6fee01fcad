// Package marketdata supplies optional market context (sector, beta,
// 52-week range) from free sources. Everything here is best effort: any
// failure is logged and the caller simply renders without the section.
package marketdata

import (
	"math"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"go.uber.org/zap"
)

// Context is the per-ticker enrichment result. Absent fields stay nil/empty.
type Context struct {
	Sector       string   `json:"sector,omitempty"`
	Beta         *float64 `json:"beta,omitempty"`
	FiftyTwoHigh *float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoLow  *float64 `json:"fifty_two_week_low,omitempty"`
}

// barSource is the slice of the Alpaca market data client we consume.
type barSource interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Enricher fetches market context. A nil bar source disables the bar-based
// fields; an empty profile URL disables the sector scrape.
type Enricher struct {
	Bars       barSource
	HTTP       *http.Client
	ProfileURL string // printf template with one %s for the ticker
	Benchmark  string
	Logger     *zap.Logger
}

// DefaultProfileURL is the public quote page used for the sector scrape.
const DefaultProfileURL = "https://stockanalysis.com/stocks/%s/company/"

// New builds an enricher. Empty Alpaca credentials leave bar data off.
func New(apiKey, apiSecret string, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Enricher{
		HTTP:       &http.Client{Timeout: 15 * time.Second},
		ProfileURL: DefaultProfileURL,
		Benchmark:  "SPY",
		Logger:     logger,
	}
	if apiKey != "" && apiSecret != "" {
		e.Bars = marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		})
	}
	return e
}

// Enrich gathers whatever context is reachable for each ticker.
func (e *Enricher) Enrich(tickers ...string) map[string]Context {
	out := make(map[string]Context, len(tickers))

	var benchmarkReturns []float64
	if e.Bars != nil && e.Benchmark != "" {
		if bars, err := e.yearOfBars(e.Benchmark); err == nil {
			benchmarkReturns = dailyReturns(bars)
		} else {
			e.Logger.Debug("benchmark bars unavailable", zap.Error(err))
		}
	}

	for _, ticker := range tickers {
		var ctx Context

		if e.Bars != nil {
			bars, err := e.yearOfBars(ticker)
			if err != nil {
				e.Logger.Debug("bars unavailable", zap.String("ticker", ticker), zap.Error(err))
			} else if len(bars) > 0 {
				high, low := yearRange(bars)
				ctx.FiftyTwoHigh = &high
				ctx.FiftyTwoLow = &low
				if beta, ok := computeBeta(dailyReturns(bars), benchmarkReturns); ok {
					ctx.Beta = &beta
				}
			}
		}

		if e.ProfileURL != "" {
			if sector, err := e.scrapeSector(ticker); err != nil {
				e.Logger.Debug("sector unavailable", zap.String("ticker", ticker), zap.Error(err))
			} else {
				ctx.Sector = sector
			}
		}

		out[ticker] = ctx
	}
	return out
}

func (e *Enricher) yearOfBars(symbol string) ([]marketdata.Bar, error) {
	end := time.Now()
	return e.Bars.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     end.AddDate(-1, 0, 0),
		End:       end,
	})
}

func yearRange(bars []marketdata.Bar) (high, low float64) {
	high, low = bars[0].High, bars[0].Low
	for _, bar := range bars[1:] {
		if bar.High > high {
			high = bar.High
		}
		if bar.Low < low {
			low = bar.Low
		}
	}
	return high, low
}

func dailyReturns(bars []marketdata.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (bars[i].Close-prev)/prev)
	}
	return returns
}

// computeBeta regresses the ticker's daily returns against the benchmark's:
// covariance over benchmark variance. Series are aligned from the end since
// both cover the same trailing year.
func computeBeta(returns, benchmark []float64) (float64, bool) {
	n := len(returns)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n < 30 {
		return 0, false
	}
	returns = returns[len(returns)-n:]
	benchmark = benchmark[len(benchmark)-n:]

	meanR := mean(returns)
	meanB := mean(benchmark)

	var cov, varB float64
	for i := 0; i < n; i++ {
		cov += (returns[i] - meanR) * (benchmark[i] - meanB)
		varB += (benchmark[i] - meanB) * (benchmark[i] - meanB)
	}
	if varB == 0 || math.IsNaN(cov) {
		return 0, false
	}
	return cov / varB, true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
