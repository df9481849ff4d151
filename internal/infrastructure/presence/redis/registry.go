package redis

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/JoeShih716/go-gems-ledger/internal/core/domain"
	"github.com/JoeShih716/go-gems-ledger/internal/core/ports"
	pkgRedis "github.com/JoeShih716/go-gems-ledger/pkg/redis"
)

const (
	// KeyNodeSet Set of instance IDs
	KeyNodeSet = "ledger:nodes"
	// KeyLease Key Pattern: ledger:nodes:lease:{InstanceID} -> Node (JSON)
	KeyLease = "ledger:nodes:lease:%s"

	DefaultTTL = 15 * time.Second
)

var _ ports.NodeDirectory = (*Registry)(nil)

// Registry 以 Redis 租約記錄存活的帳本實例。
// 每個實例定期續約；租約過期的實例在下次列出時從集合中清除。
type Registry struct {
	rds    *pkgRedis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRegistry 建立實例註冊表
//
// 參數:
//
//	rds: *pkgRedis.Client - Redis 客戶端
//	ttl: time.Duration - 租約存活時間 (<= 0 時使用 DefaultTTL)
//	logger: *slog.Logger - 日誌
func NewRegistry(rds *pkgRedis.Client, ttl time.Duration, logger *slog.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{rds: rds, ttl: ttl, logger: logger}
}

// Register 寫入租約並加入實例集合
func (r *Registry) Register(ctx context.Context, node domain.Node) error {
	// 1. 儲存 Lease (包含 Endpoint 與啟動時間)
	if err := r.rds.SetStruct(ctx, fmt.Sprintf(KeyLease, node.InstanceID), node, r.ttl); err != nil {
		return fmt.Errorf("failed to set lease: %w", err)
	}
	// 2. 加入實例集合 (方便列出)
	if err := r.rds.SAdd(ctx, KeyNodeSet, node.InstanceID); err != nil {
		return fmt.Errorf("failed to add to node set: %w", err)
	}
	return nil
}

// Heartbeat 更新租約 TTL；租約已過期 (例如 Redis 重啟) 時重新註冊
func (r *Registry) Heartbeat(ctx context.Context, node domain.Node) error {
	ok, err := r.rds.Expire(ctx, fmt.Sprintf(KeyLease, node.InstanceID), r.ttl)
	if err != nil {
		return err
	}
	if !ok {
		r.logger.Info("Lease expired, registering again", "instance", node.InstanceID)
		return r.Register(ctx, node)
	}
	return nil
}

// Deregister 主動移除實例
func (r *Registry) Deregister(ctx context.Context, instanceID string) error {
	if err := r.rds.Del(ctx, fmt.Sprintf(KeyLease, instanceID)); err != nil {
		return err
	}
	return r.rds.SRem(ctx, KeyNodeSet, instanceID)
}

// Nodes 列出租約仍有效的實例 (依 InstanceID 排序)，並清除已過期的成員
func (r *Registry) Nodes(ctx context.Context) ([]domain.Node, error) {
	ids, err := r.rds.SMembers(ctx, KeyNodeSet)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	nodes := make([]domain.Node, 0, len(ids))
	for _, id := range ids {
		var node domain.Node
		err := r.rds.GetStruct(ctx, fmt.Sprintf(KeyLease, id), &node)
		switch {
		case err == nil:
			nodes = append(nodes, node)
		case pkgRedis.IsNil(err):
			r.logger.Info("Removing zombie node", "instance", id)
			_ = r.rds.SRem(ctx, KeyNodeSet, id)
		default:
			return nil, fmt.Errorf("failed to read lease %s: %w", id, err)
		}
	}

	slices.SortFunc(nodes, func(a, b domain.Node) int {
		return cmp.Compare(a.InstanceID, b.InstanceID)
	})
	return nodes, nil
}

// Run 註冊後每隔 TTL/3 續約一次，直到 ctx 結束後移除租約 (Blocking)
func (r *Registry) Run(ctx context.Context, node domain.Node) {
	if err := r.Register(ctx, node); err != nil {
		r.logger.Warn("Failed to register node", "instance", node.InstanceID, "error", err)
	}

	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := r.Deregister(dctx, node.InstanceID); err != nil {
				r.logger.Warn("Failed to deregister node", "instance", node.InstanceID, "error", err)
			}
			return
		case <-ticker.C:
			if err := r.Heartbeat(ctx, node); err != nil {
				r.logger.Warn("Node heartbeat failed", "instance", node.InstanceID, "error", err)
			}
		}
	}
}
