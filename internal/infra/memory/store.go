package memory

import (
	"context"
	"sort"
	"sync"

	domain "upsignal/internal/domain/analysis"
)

// Store 為未設定資料庫時的記憶體後備存儲，以 symbol+date 為鍵。
type Store struct {
	mu         sync.RWMutex
	factorRows map[string]map[string]domain.FactorRow      // symbol -> date -> row
	scoreRows  map[string]map[string]domain.DailyScoreRow  // symbol -> date -> row
	tableRows  map[string]map[string]domain.FactorTableRow // transactionID -> date -> row
}

// NewStore 建立空的記憶體存儲。
func NewStore() *Store {
	return &Store{
		factorRows: make(map[string]map[string]domain.FactorRow),
		scoreRows:  make(map[string]map[string]domain.DailyScoreRow),
		tableRows:  make(map[string]map[string]domain.FactorTableRow),
	}
}

const dateKeyLayout = "2006-01-02"

// UpsertFactorRow 以 symbol+date 覆蓋寫入因子列。
func (s *Store) UpsertFactorRow(_ context.Context, row domain.FactorRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.factorRows[row.Symbol] == nil {
		s.factorRows[row.Symbol] = make(map[string]domain.FactorRow)
	}
	// 存入複本，呼叫端後續改動向量不得影響存儲
	row.Factors = row.Factors.Clone()
	s.factorRows[row.Symbol][row.Date.Format(dateKeyLayout)] = row
	return nil
}

// UpsertDailyScoreRow 以 symbol+date 覆蓋寫入分數列。
func (s *Store) UpsertDailyScoreRow(_ context.Context, row domain.DailyScoreRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scoreRows[row.Symbol] == nil {
		s.scoreRows[row.Symbol] = make(map[string]domain.DailyScoreRow)
	}
	s.scoreRows[row.Symbol][row.Date.Format(dateKeyLayout)] = row
	return nil
}

// FactorRowsBySymbol 回傳單一標的的因子列，依日期遞增。
func (s *Store) FactorRowsBySymbol(_ context.Context, symbol string) ([]domain.FactorRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.factorRows[symbol]
	out := make([]domain.FactorRow, 0, len(rows))
	for _, row := range rows {
		row.Factors = row.Factors.Clone()
		out = append(out, row)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Date.Before(out[b].Date)
	})
	return out, nil
}

// InsertFactorTableRows 以 transactionID+date 覆蓋寫入因子子集列。
func (s *Store) InsertFactorTableRows(_ context.Context, rows []domain.FactorTableRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		if s.tableRows[row.TransactionID] == nil {
			s.tableRows[row.TransactionID] = make(map[string]domain.FactorTableRow)
		}
		row.FactorData = cloneFactorData(row.FactorData)
		s.tableRows[row.TransactionID][row.Date.Format(dateKeyLayout)] = row
	}
	return nil
}

func cloneFactorData(data map[domain.FactorName]*int) map[domain.FactorName]*int {
	out := make(map[domain.FactorName]*int, len(data))
	for name, val := range data {
		if val != nil {
			n := *val
			out[name] = &n
		} else {
			out[name] = nil
		}
	}
	return out
}

// FactorTableRowsByTransaction 回傳單一交易流程的因子子集列，依日期遞增。
func (s *Store) FactorTableRowsByTransaction(_ context.Context, transactionID string) ([]domain.FactorTableRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.tableRows[transactionID]
	out := make([]domain.FactorTableRow, 0, len(rows))
	for _, row := range rows {
		row.FactorData = cloneFactorData(row.FactorData)
		out = append(out, row)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Date.Before(out[b].Date)
	})
	return out, nil
}

// DailyScoresBySymbol 回傳單一標的的分數列，依日期遞增。
func (s *Store) DailyScoresBySymbol(_ context.Context, symbol string) ([]domain.DailyScoreRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.scoreRows[symbol]
	out := make([]domain.DailyScoreRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Date.Before(out[b].Date)
	})
	return out, nil
}
