package domain

import "time"

// Node 一個正在運行的帳本實例
type Node struct {
	InstanceID string    `json:"instance_id"`
	Endpoint   string    `json:"endpoint"` // HTTP API 位址 (host:port)
	StartedAt  time.Time `json:"started_at"`
}
