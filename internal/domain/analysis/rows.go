package analysis

import (
	"time"

	"github.com/google/uuid"
)

// FactorRow 為寫入持久層的「標的 × 日期」因子列。
// 以 symbol+date 為唯一鍵，重算時以 upsert 覆蓋，可安全重複產生。
type FactorRow struct {
	ID        string       `json:"id"`
	Symbol    string       `json:"symbol"`
	Date      time.Time    `json:"date"`
	Close     float64      `json:"close"`
	PctChange *float64     `json:"pct_change"`
	MA20      *float64     `json:"ma_20"`
	MA50      *float64     `json:"ma_50"`
	MA200     *float64     `json:"ma_200"`
	RSI       *float64     `json:"rsi"`
	Volume    float64      `json:"volume"`
	Factors   FactorVector `json:"factors"`
}

// NewFactorRow 由指標列與因子向量建立持久層因子列。
func NewFactorRow(symbol string, row IndicatorRow, factors FactorVector) FactorRow {
	return FactorRow{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Date:      row.Date,
		Close:     row.Close,
		PctChange: row.PctChange,
		MA20:      row.MA20,
		MA50:      row.MA50,
		MA200:     row.MA200,
		RSI:       row.RSI,
		Volume:    row.Volume,
		Factors:   factors.Clone(),
	}
}

// DailyScoreRow 為寫入持久層的單日分數列。
type DailyScoreRow struct {
	ID             string                            `json:"id"`
	Symbol         string                            `json:"symbol"`
	Date           time.Time                         `json:"date"`
	Score          float64                           `json:"score"`
	FactorCount    int                               `json:"factor_count"`
	AboveThreshold bool                              `json:"above_threshold"`
	Breakdown      map[FactorName]FactorContribution `json:"breakdown"`
}

// NewDailyScoreRow 由單日分數建立持久層分數列。
func NewDailyScoreRow(symbol string, score DailyScore) DailyScoreRow {
	return DailyScoreRow{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		Date:           score.Date,
		Score:          score.Score,
		FactorCount:    score.FactorCount,
		AboveThreshold: score.AboveThreshold,
		Breakdown:      score.Breakdown,
	}
}

// FactorTableRow 為交易流程索引的因子子集列，值以 0/1/null 表示。
type FactorTableRow struct {
	ID            string              `json:"id"`
	TransactionID string              `json:"transaction_id"`
	Date          time.Time           `json:"date"`
	FactorData    map[FactorName]*int `json:"factor_data"`
}

// NewFactorTableRow 將因子向量轉為 0/1/null 子集列。
func NewFactorTableRow(transactionID string, date time.Time, factors FactorVector) FactorTableRow {
	data := make(map[FactorName]*int, 10)
	for _, f := range AllFactors() {
		if val := factors.Value(f); val != nil {
			n := 0
			if *val {
				n = 1
			}
			data[f] = &n
		} else {
			data[f] = nil
		}
	}
	return FactorTableRow{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		Date:          date,
		FactorData:    data,
	}
}
