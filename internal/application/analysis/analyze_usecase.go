package analysis

import (
	"context"
	"fmt"
	"time"

	"upsignal/internal/application/ingestion"
	domain "upsignal/internal/domain/analysis"
	"upsignal/internal/domain/marketdata"
)

// FactorRepository 儲存因子與分數列。
type FactorRepository interface {
	UpsertFactorRow(ctx context.Context, row domain.FactorRow) error
	UpsertDailyScoreRow(ctx context.Context, row domain.DailyScoreRow) error
	FactorRowsBySymbol(ctx context.Context, symbol string) ([]domain.FactorRow, error)
}

// FactorTableWriter 為可選的持久層能力：寫入交易流程索引的因子子集列。
type FactorTableWriter interface {
	InsertFactorTableRows(ctx context.Context, rows []domain.FactorTableRow) error
}

type AnalyzeInput struct {
	Symbol    string
	RawSeries string
	// TransactionID 非空時，另寫一份交易流程索引的 0/1/null 因子子集。
	TransactionID string
	Derive        DeriveConfig
	Config        domain.ScoreConfig // 零值時採用 DefaultScoreConfig
}

type Failure struct {
	Date   time.Time
	Reason string
}

type AnalyzeOutput struct {
	Symbol    string
	Days      int
	Warnings  []string
	Batch     BatchResult
	Summary   Summary
	Persisted int
	Failures  []Failure

	scoredDays []ScoredDay
}

// AnalyzeUseCase 串接解析、指標、因子、評分與持久化的完整流程。
type AnalyzeUseCase struct {
	repo FactorRepository
}

// NewAnalyzeUseCase 建立分析用例。
func NewAnalyzeUseCase(repo FactorRepository) *AnalyzeUseCase {
	return &AnalyzeUseCase{repo: repo}
}

// Execute 解析原始序列並跑完整條管線，結果以 upsert 寫入持久層。
// 相同輸入重複執行會得到相同的分數序列，可安全重算。
func (u *AnalyzeUseCase) Execute(ctx context.Context, input AnalyzeInput) (AnalyzeOutput, error) {
	var out AnalyzeOutput

	if input.Symbol == "" {
		return out, fmt.Errorf("symbol is required")
	}

	candles, warnings, err := ingestion.ParseSeries(input.RawSeries)
	if err != nil {
		return out, fmt.Errorf("parse series: %w", err)
	}

	out = u.analyzeCandles(ctx, input.Symbol, candles, input.Derive, input.Config)
	out.Warnings = append(warnings, out.Warnings...)

	if input.TransactionID != "" {
		if err := u.writeFactorTable(ctx, input.TransactionID, out); err != nil {
			out.Failures = append(out.Failures, Failure{Reason: fmt.Sprintf("store factor table: %v", err)})
		}
	}
	return out, nil
}

// writeFactorTable 將本批因子向量轉為 0/1/null 子集列寫入，
// 持久層未實作 FactorTableWriter 時略過。
func (u *AnalyzeUseCase) writeFactorTable(ctx context.Context, transactionID string, out AnalyzeOutput) error {
	writer, ok := u.repo.(FactorTableWriter)
	if !ok {
		return nil
	}
	rows := make([]domain.FactorTableRow, 0, len(out.Batch.Scores))
	for _, d := range out.scoredDays {
		rows = append(rows, domain.NewFactorTableRow(transactionID, d.Row.Date, d.Factors))
	}
	return writer.InsertFactorTableRows(ctx, rows)
}

// Regenerate 在原始檔不可得時，由已儲存的因子列重建序列並重跑同一條管線。
func (u *AnalyzeUseCase) Regenerate(ctx context.Context, symbol string, derive DeriveConfig, cfg domain.ScoreConfig) (AnalyzeOutput, error) {
	var out AnalyzeOutput

	if symbol == "" {
		return out, fmt.Errorf("symbol is required")
	}

	stored, err := u.repo.FactorRowsBySymbol(ctx, symbol)
	if err != nil {
		return out, fmt.Errorf("load stored factor rows: %w", err)
	}

	candles, err := ingestion.SeriesFromFactorRows(stored)
	if err != nil {
		return out, fmt.Errorf("rebuild series: %w", err)
	}

	return u.analyzeCandles(ctx, symbol, candles, derive, cfg), nil
}

// SummarizeStored 以儲存的因子列重算分數並回傳統計，不寫入持久層。
func (u *AnalyzeUseCase) SummarizeStored(ctx context.Context, symbol string, cfg domain.ScoreConfig, onlyAbove bool) (Summary, BatchResult, error) {
	if symbol == "" {
		return Summary{}, BatchResult{}, fmt.Errorf("symbol is required")
	}
	if cfg.IsZero() {
		cfg = domain.DefaultScoreConfig()
	}

	stored, err := u.repo.FactorRowsBySymbol(ctx, symbol)
	if err != nil {
		return Summary{}, BatchResult{}, fmt.Errorf("load stored factor rows: %w", err)
	}
	if len(stored) == 0 {
		return Summary{}, BatchResult{}, marketdata.ErrNoData
	}

	days := make([]ScoredDay, 0, len(stored))
	for _, row := range stored {
		if row.PctChange == nil {
			continue
		}
		days = append(days, ScoredDay{
			Row: domain.IndicatorRow{
				Candle: marketdata.Candle{
					Date:   row.Date,
					Close:  row.Close,
					Volume: row.Volume,
				},
				PctChange: row.PctChange,
				MA20:      row.MA20,
				MA50:      row.MA50,
				MA200:     row.MA200,
				RSI:       row.RSI,
			},
			Factors: row.Factors,
		})
	}

	batch := ScoreDays(days, cfg)
	return Summarize(days, batch, onlyAbove), batch, nil
}

func (u *AnalyzeUseCase) analyzeCandles(ctx context.Context, symbol string, candles []marketdata.Candle, derive DeriveConfig, cfg domain.ScoreConfig) AnalyzeOutput {
	if cfg.IsZero() {
		cfg = domain.DefaultScoreConfig()
	}

	rows := ComputeIndicators(candles)

	// 第 0 天沒有收盤對收盤漲跌幅，不得進入因子與評分計算
	days := make([]ScoredDay, 0, len(rows))
	for _, r := range rows {
		if r.PctChange == nil {
			continue
		}
		days = append(days, ScoredDay{Row: r, Factors: DeriveFactors(r, derive)})
	}

	batch := ScoreDays(days, cfg)
	summary := Summarize(days, batch, false)

	out := AnalyzeOutput{
		Symbol:     symbol,
		Days:       len(days),
		Batch:      batch,
		Summary:    summary,
		scoredDays: days,
	}

	scoreByDate := make(map[time.Time]domain.DailyScore, len(batch.Scores))
	for _, s := range batch.Scores {
		scoreByDate[s.Date] = s
	}

	for _, d := range days {
		if err := u.repo.UpsertFactorRow(ctx, domain.NewFactorRow(symbol, d.Row, d.Factors)); err != nil {
			out.Failures = append(out.Failures, Failure{Date: d.Row.Date, Reason: fmt.Sprintf("store factor row: %v", err)})
			continue
		}
		if err := u.repo.UpsertDailyScoreRow(ctx, domain.NewDailyScoreRow(symbol, scoreByDate[d.Row.Date])); err != nil {
			out.Failures = append(out.Failures, Failure{Date: d.Row.Date, Reason: fmt.Sprintf("store daily score: %v", err)})
			continue
		}
		out.Persisted++
	}

	return out
}
