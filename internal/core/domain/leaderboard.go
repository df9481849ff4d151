package domain

import "github.com/shopspring/decimal"

// TopEntry 排行榜的一筆資料
type TopEntry struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}
