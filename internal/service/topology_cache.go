package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"smarthotel-mr/internal/store"
)

const topologyCachePrefix = "topology:"

// CachedFetcher 在 KV 中缓存成功的远程响应（key = topology:<path>）
// 缓存读写失败只记录日志，回落到远程
type CachedFetcher struct {
	next   RemoteFetcher
	kv     store.KV
	ttl    time.Duration
	logger *zap.Logger
}

var _ RemoteFetcher = (*CachedFetcher)(nil)

func NewCachedFetcher(next RemoteFetcher, kv store.KV, ttl time.Duration, logger *zap.Logger) *CachedFetcher {
	return &CachedFetcher{next: next, kv: kv, ttl: ttl, logger: logger}
}

func (c *CachedFetcher) GetAsString(ctx context.Context, path string) (string, error) {
	key := topologyCachePrefix + path
	if v, err := c.kv.Get(ctx, key); err == nil {
		return v, nil
	} else if !errors.Is(err, store.ErrMiss) {
		c.logger.Warn("Topology cache read failed", zap.String("key", key), zap.Error(err))
	}

	body, err := c.next.GetAsString(ctx, path)
	if err != nil {
		return "", err
	}
	if err := c.kv.Set(ctx, key, body, c.ttl); err != nil {
		c.logger.Warn("Topology cache write failed", zap.String("key", key), zap.Error(err))
	}
	return body, nil
}

// Invalidate 清空拓扑缓存，返回删除的 key 数
func (c *CachedFetcher) Invalidate(ctx context.Context) (int, error) {
	keys, err := c.kv.ScanKeys(ctx, topologyCachePrefix+"*")
	if err != nil {
		return 0, err
	}
	if err := c.kv.Del(ctx, keys...); err != nil {
		return 0, err
	}
	c.logger.Info("Topology cache invalidated", zap.Int("keys", len(keys)))
	return len(keys), nil
}
