package marketdata

import (
	"errors"
	"fmt"
	"time"
)

// Candle 描述單一交易日的 OHLCV 資料。
type Candle struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// ValidationError 收集多個驗證失敗原因。
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("candle validation failed: %v", e.Reasons)
}

// Validate 檢查欄位是否符合基本完整性條件。
func (c Candle) Validate() error {
	var reasons []string

	if c.Date.IsZero() {
		reasons = append(reasons, "date is required")
	}
	if c.Close <= 0 {
		reasons = append(reasons, "close must be positive")
	}
	if c.Open < 0 || c.High < 0 || c.Low < 0 {
		reasons = append(reasons, "prices must not be negative")
	}
	if c.Volume < 0 {
		reasons = append(reasons, "volume must not be negative")
	}

	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// ErrNoData 表示整批輸入沒有任何有效資料列，與「零符合門檻」是不同的結果。
var ErrNoData = errors.New("no valid rows in series")

// ValidateSeries 確認序列依日期嚴格遞增且無重複日期。
func ValidateSeries(candles []Candle) error {
	if len(candles) == 0 {
		return ErrNoData
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].Date.After(candles[i-1].Date) {
			return fmt.Errorf("series not strictly ascending at index %d (%s)", i, candles[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}
