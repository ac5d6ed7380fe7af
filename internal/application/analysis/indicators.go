package analysis

import (
	domain "upsignal/internal/domain/analysis"
	"upsignal/internal/domain/marketdata"
)

// Indicator window sizes. Fixed; identical input always yields identical output.
const (
	windowMA20   = 20
	windowMA50   = 50
	windowMA200  = 200
	windowRSI    = 14
	windowVolume = 20
)

// ComputeIndicators derives one indicator row per candle of an ascending series.
// Every windowed field stays nil until enough history exists; PctChange is nil
// on the first row and such rows must not feed factor or score math.
func ComputeIndicators(candles []marketdata.Candle) []domain.IndicatorRow {
	rows := make([]domain.IndicatorRow, len(candles))
	for i, c := range candles {
		row := domain.IndicatorRow{Candle: c}

		if i > 0 && candles[i-1].Close > 0 {
			pct := (c.Close - candles[i-1].Close) / candles[i-1].Close * 100
			row.PctChange = &pct
		}

		row.MA20 = sma(candles, i, windowMA20)
		row.MA50 = sma(candles, i, windowMA50)
		row.MA200 = sma(candles, i, windowMA200)
		row.RSI = rsi(candles, i, windowRSI)
		row.VolumeAvg = volumeAvg(candles, i, windowVolume)

		rows[i] = row
	}
	return rows
}

// sma returns the simple moving average of closes over the trailing window,
// or nil while i < window-1.
func sma(candles []marketdata.Candle, i, window int) *float64 {
	if i < window-1 {
		return nil
	}
	sum := 0.0
	for j := i - window + 1; j <= i; j++ {
		sum += candles[j].Close
	}
	avg := sum / float64(window)
	return &avg
}

// volumeAvg returns the trailing average volume, nil while i < window-1.
func volumeAvg(candles []marketdata.Candle, i, window int) *float64 {
	if i < window-1 {
		return nil
	}
	sum := 0.0
	for j := i - window + 1; j <= i; j++ {
		sum += candles[j].Volume
	}
	avg := sum / float64(window)
	return &avg
}

// rsi implements Cutler's RSI: simple rolling means of gains and losses over
// the trailing window of close-to-close changes. Needs `window` changes, so it
// stays nil while i < window. avgLoss == 0 with gains present yields 100; a
// fully flat window (avgGain == avgLoss == 0) stays nil rather than guessing.
func rsi(candles []marketdata.Candle, i, window int) *float64 {
	if i < window {
		return nil
	}
	var gain, loss float64
	for j := i - window + 1; j <= i; j++ {
		delta := candles[j].Close - candles[j-1].Close
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(window)
	avgLoss := loss / float64(window)

	if avgGain == 0 && avgLoss == 0 {
		return nil
	}
	if avgLoss == 0 {
		v := 100.0
		return &v
	}
	rs := avgGain / avgLoss
	v := 100 - 100/(1+rs)
	return &v
}
