package domain

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// OfflineID 以名稱推導出固定的帳戶 ID (Name-based UUID v3, 無 namespace)。
// 同一個名稱永遠得到同一個 ID，與 Minecraft 離線模式的 "OfflinePlayer:<name>" 規則一致。
func OfflineID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = (sum[6] & 0x0f) | 0x30 // version 3
	sum[8] = (sum[8] & 0x3f) | 0x80 // RFC 4122 variant
	return uuid.UUID(sum)
}
