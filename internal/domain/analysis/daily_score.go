package analysis

import (
	"time"
)

// FactorContribution 描述單一因子在當日分數中的貢獻。
type FactorContribution struct {
	Active       bool    `json:"active"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// DailyScore 為單一交易日的加權分數與門檻判定。
type DailyScore struct {
	Date           time.Time                         `json:"date"`
	Score          float64                           `json:"score"`
	FactorCount    int                               `json:"factor_count"`
	AboveThreshold bool                              `json:"above_threshold"`
	Breakdown      map[FactorName]FactorContribution `json:"breakdown"`
}
