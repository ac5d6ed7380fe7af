package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	domain "upsignal/internal/domain/analysis"
)

// Repo 提供因子列與分數列的 Postgres 存取。
// 所有寫入皆以 symbol + trade_date 為唯一鍵 upsert，重算可安全覆蓋。
type Repo struct {
	db *sql.DB
}

// NewRepo 建立 Postgres 資料存取實例。
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// UpsertFactorRow 寫入或更新單日因子列。
func (r *Repo) UpsertFactorRow(ctx context.Context, row domain.FactorRow) error {
	factors, err := json.Marshal(row.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}

	const q = `
INSERT INTO factor_rows (id, symbol, trade_date, close_price, pct_change, ma_20, ma_50, ma_200, rsi, volume, factors)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (symbol, trade_date)
DO UPDATE SET close_price = EXCLUDED.close_price,
              pct_change = EXCLUDED.pct_change,
              ma_20 = EXCLUDED.ma_20,
              ma_50 = EXCLUDED.ma_50,
              ma_200 = EXCLUDED.ma_200,
              rsi = EXCLUDED.rsi,
              volume = EXCLUDED.volume,
              factors = EXCLUDED.factors,
              updated_at = NOW();
`
	_, err = r.db.ExecContext(ctx, q,
		row.ID,
		row.Symbol,
		row.Date,
		row.Close,
		row.PctChange,
		row.MA20,
		row.MA50,
		row.MA200,
		row.RSI,
		row.Volume,
		factors,
	)
	return err
}

// UpsertDailyScoreRow 寫入或更新單日分數列，breakdown 以 JSONB 保存。
func (r *Repo) UpsertDailyScoreRow(ctx context.Context, row domain.DailyScoreRow) error {
	breakdown, err := json.Marshal(row.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	const q = `
INSERT INTO daily_scores (id, symbol, trade_date, score, factor_count, above_threshold, breakdown)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (symbol, trade_date)
DO UPDATE SET score = EXCLUDED.score,
              factor_count = EXCLUDED.factor_count,
              above_threshold = EXCLUDED.above_threshold,
              breakdown = EXCLUDED.breakdown,
              updated_at = NOW();
`
	_, err = r.db.ExecContext(ctx, q,
		row.ID,
		row.Symbol,
		row.Date,
		row.Score,
		row.FactorCount,
		row.AboveThreshold,
		breakdown,
	)
	return err
}

// InsertFactorTableRows 寫入交易流程索引的因子子集列。
func (r *Repo) InsertFactorTableRows(ctx context.Context, rows []domain.FactorTableRow) error {
	const q = `
INSERT INTO factor_table_rows (id, transaction_id, trade_date, factor_data)
VALUES ($1, $2, $3, $4)
ON CONFLICT (transaction_id, trade_date)
DO UPDATE SET factor_data = EXCLUDED.factor_data;
`
	for _, row := range rows {
		data, err := json.Marshal(row.FactorData)
		if err != nil {
			return fmt.Errorf("marshal factor data: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, q, row.ID, row.TransactionID, row.Date, data); err != nil {
			return fmt.Errorf("insert factor table row %s: %w", row.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// FactorRowsBySymbol 取回單一標的的全部因子列，依日期遞增，
// 供原始檔遺失時的重算路徑使用。
func (r *Repo) FactorRowsBySymbol(ctx context.Context, symbol string) ([]domain.FactorRow, error) {
	const q = `
SELECT id, symbol, trade_date, close_price, pct_change, ma_20, ma_50, ma_200, rsi, volume, factors
FROM factor_rows
WHERE symbol = $1
ORDER BY trade_date;
`
	rows, err := r.db.QueryContext(ctx, q, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FactorRow
	for rows.Next() {
		var row domain.FactorRow
		var pctChange, ma20, ma50, ma200, rsi sql.NullFloat64
		var factors []byte
		if err := rows.Scan(
			&row.ID,
			&row.Symbol,
			&row.Date,
			&row.Close,
			&pctChange,
			&ma20,
			&ma50,
			&ma200,
			&rsi,
			&row.Volume,
			&factors,
		); err != nil {
			return nil, err
		}
		row.PctChange = nullableFloat(pctChange)
		row.MA20 = nullableFloat(ma20)
		row.MA50 = nullableFloat(ma50)
		row.MA200 = nullableFloat(ma200)
		row.RSI = nullableFloat(rsi)
		if len(factors) > 0 {
			if err := json.Unmarshal(factors, &row.Factors); err != nil {
				return nil, fmt.Errorf("unmarshal factors for %s: %w", row.Date.Format("2006-01-02"), err)
			}
		} else {
			row.Factors = domain.NewFactorVector()
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
