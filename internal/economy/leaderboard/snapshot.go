package leaderboard

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
)

// PageSize 每頁的排行筆數
const PageSize = 10

// Snapshot 某個貨幣在某個時間點的排行快照。
// 建立後不可修改；重新計算時整份替換。
type Snapshot struct {
	entries   []domain.TopEntry
	pages     [][]domain.TopEntry
	CreatedAt time.Time
	TTL       time.Duration
}

// NewSnapshot 由掃描結果建立快照：
// 濾掉餘額 <= 0 的項目，依餘額由大到小穩定排序，再切成每頁 PageSize 筆。
// 同額時維持掃描順序。
func NewSnapshot(scanned []domain.TopEntry, createdAt time.Time, ttl time.Duration) *Snapshot {
	entries := make([]domain.TopEntry, 0, len(scanned))
	for _, e := range scanned {
		if e.Amount.GreaterThan(decimal.Zero) {
			entries = append(entries, e)
		}
	}
	slices.SortStableFunc(entries, func(a, b domain.TopEntry) int {
		return b.Amount.Cmp(a.Amount)
	})

	var pages [][]domain.TopEntry
	for start := 0; start < len(entries); start += PageSize {
		end := min(start+PageSize, len(entries))
		pages = append(pages, entries[start:end:end])
	}

	return &Snapshot{
		entries:   entries,
		pages:     pages,
		CreatedAt: createdAt,
		TTL:       ttl,
	}
}

// Expired 判斷快照在 now 時是否已過期
func (s *Snapshot) Expired(now time.Time) bool {
	return s.TTL > 0 && now.Sub(s.CreatedAt) >= s.TTL
}

// Len 排行總筆數
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// PageCount 總頁數
func (s *Snapshot) PageCount() int {
	return len(s.pages)
}

// Page 取得第 n 頁 (從 1 開始)；超出範圍回傳空切片
func (s *Snapshot) Page(n int) []domain.TopEntry {
	if n < 1 || n > len(s.pages) {
		return []domain.TopEntry{}
	}
	return slices.Clone(s.pages[n-1])
}

// Slice 取得 [offset, offset+limit) 的項目；超出範圍回傳空切片
func (s *Snapshot) Slice(offset, limit int) []domain.TopEntry {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(s.entries) {
		return []domain.TopEntry{}
	}
	end := offset + min(limit, len(s.entries)-offset)
	return slices.Clone(s.entries[offset:end])
}
