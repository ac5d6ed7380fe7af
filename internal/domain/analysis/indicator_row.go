package analysis

import (
	"upsignal/internal/domain/marketdata"
)

// IndicatorRow 在 K 線之上加入指標欄位。
// 暖身期不足時欄位為 nil，不得以猜測值取代；PctChange 於序列第 0 天為 nil，
// 帶有該哨兵值的列不得進入因子與評分計算。
type IndicatorRow struct {
	marketdata.Candle

	PctChange *float64 // 收盤對收盤漲跌幅（%）
	MA20      *float64
	MA50      *float64
	MA200     *float64
	RSI       *float64 // 0–100
	VolumeAvg *float64 // 近 20 日均量
}
