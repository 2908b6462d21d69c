package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
)

// RedisStreamPublisher 发布事件到 Redis Streams
// stream = prefix + 事件类型前缀（anchorset / anchor / sharedstate）
type RedisStreamPublisher struct {
	client *redis.Client
	prefix string
	maxLen int64
}

func NewRedisStreamPublisher(client *redis.Client, prefix string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, prefix: prefix, maxLen: 10000}
}

// StreamFor 事件所在 stream
func (p *RedisStreamPublisher) StreamFor(eventType string) string {
	kind, _, _ := strings.Cut(eventType, ".")
	return p.prefix + kind
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, ev Event) error {
	jsonBytes, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// 使用 XADD 命令添加消息（近似裁剪，避免 stream 无限增长）
	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.StreamFor(ev.Type),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":      ev.Type,
			"data":      string(jsonBytes),
			"timestamp": fmt.Sprintf("%d", ev.OccurredAt.Unix()),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", ev.Type, err)
	}
	return nil
}
