package ingestion

import (
	"sort"

	"upsignal/internal/domain/analysis"
	"upsignal/internal/domain/marketdata"
)

// SeriesFromFactorRows 由既有因子列重建 K 線序列，供原始檔遺失時
// 餵入同一套指標引擎重算。open/high/low 以收盤價回填，僅供重建使用。
func SeriesFromFactorRows(rows []analysis.FactorRow) ([]marketdata.Candle, error) {
	candles := make([]marketdata.Candle, 0, len(rows))
	for _, r := range rows {
		if r.Date.IsZero() || r.Close <= 0 {
			continue
		}
		candles = append(candles, marketdata.Candle{
			Date:   r.Date,
			Open:   r.Close,
			High:   r.Close,
			Low:    r.Close,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}

	sort.SliceStable(candles, func(a, b int) bool {
		return candles[a].Date.Before(candles[b].Date)
	})

	if err := marketdata.ValidateSeries(candles); err != nil {
		return nil, err
	}
	return candles, nil
}
