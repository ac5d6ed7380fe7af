package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"upsignal/internal/domain/marketdata"
)

// 欄位別名對照，全部以小寫比對。
var headerAliases = map[string]string{
	"date":       "date",
	"trade_date": "date",
	"tradedate":  "date",
	"open":       "open",
	"high":       "high",
	"low":        "low",
	"close":      "close",
	"volume":     "volume",
	"vol":        "volume",
	// 上游匯出偶爾帶有 ticket 欄位，容忍並忽略
	"ticket": "ticket",
	"ticker": "ticket",
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "20060102"}

type columnIndex map[string]int

// ParseSeries 解析含標頭的分隔文字為遞增 K 線序列。
// 欄位比對不分大小寫；欄數不足、引號毀損、Close 無法解析或 Date 缺漏的列
// 以警告略過而不中斷；重複日期保留第一筆、其餘略過。
func ParseSeries(raw string) ([]marketdata.Candle, []string, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, marketdata.ErrNoData
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapHeader(header)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	var candles []marketdata.Candle
	line := 1

	// 逐列讀取：單列的引號毀損以警告略過，不中斷整批解析
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				warnings = append(warnings, fmt.Sprintf("line %d: malformed row (%v), skipped", perr.Line, perr.Err))
				continue
			}
			return nil, warnings, fmt.Errorf("read series: %w", err)
		}
		if len(rec) < len(header) {
			warnings = append(warnings, fmt.Sprintf("line %d: expected %d columns, got %d, skipped", line, len(header), len(rec)))
			continue
		}

		dateStr := strings.TrimSpace(rec[cols["date"]])
		date, ok := parseDate(dateStr)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("line %d: missing or unparseable date %q, skipped", line, dateStr))
			continue
		}

		closeStr := strings.TrimSpace(rec[cols["close"]])
		closeVal, err := strconv.ParseFloat(closeStr, 64)
		if err != nil || closeVal <= 0 {
			warnings = append(warnings, fmt.Sprintf("line %d: unparseable close %q, skipped", line, closeStr))
			continue
		}

		candles = append(candles, marketdata.Candle{
			Date:   date,
			Open:   floatOr(rec, cols, "open", closeVal),
			High:   floatOr(rec, cols, "high", closeVal),
			Low:    floatOr(rec, cols, "low", closeVal),
			Close:  closeVal,
			Volume: floatOr(rec, cols, "volume", 0),
		})
	}

	sort.SliceStable(candles, func(a, b int) bool {
		return candles[a].Date.Before(candles[b].Date)
	})

	deduped := candles[:0]
	for _, c := range candles {
		if len(deduped) > 0 && deduped[len(deduped)-1].Date.Equal(c.Date) {
			warnings = append(warnings, fmt.Sprintf("duplicate date %s, kept first occurrence", c.Date.Format("2006-01-02")))
			continue
		}
		deduped = append(deduped, c)
	}

	if len(deduped) == 0 {
		return nil, warnings, marketdata.ErrNoData
	}
	return deduped, warnings, nil
}

// mapHeader 將標頭列對應至正準欄位，缺少必要欄位時回傳錯誤。
func mapHeader(header []string) (columnIndex, error) {
	cols := make(columnIndex)
	for i, name := range header {
		canonical, ok := headerAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok || canonical == "ticket" {
			continue
		}
		if _, exists := cols[canonical]; !exists {
			cols[canonical] = i
		}
	}

	var missing []string
	for _, required := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// floatOr 解析非關鍵數值欄位，失敗時回退為給定值而非略過整列。
func floatOr(rec []string, cols columnIndex, name string, fallback float64) float64 {
	idx, ok := cols[name]
	if !ok || idx >= len(rec) {
		return fallback
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
