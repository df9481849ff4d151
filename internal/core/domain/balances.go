package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EncodeBalances 將餘額表序列化成持久化格式:
// 以貨幣 ID 字串為鍵、數字為值的扁平 JSON 物件，例如 {"<uuid>": 500}。
func EncodeBalances(balances map[uuid.UUID]decimal.Decimal) ([]byte, error) {
	raw := make(map[string]json.Number, len(balances))
	for id, amount := range balances {
		raw[id.String()] = json.Number(amount.String())
	}
	return json.Marshal(raw)
}

// DecodeBalances 解析持久化的餘額資料。空白或 null 視為沒有任何紀錄。
// 格式錯誤時回傳包裝 ErrMalformedBalances 的錯誤。
func DecodeBalances(data []byte) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal)
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}

	var raw map[string]decimal.Decimal
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBalances, err)
	}
	for key, amount := range raw {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%w: bad currency id %q", ErrMalformedBalances, key)
		}
		out[id] = amount
	}
	return out, nil
}
