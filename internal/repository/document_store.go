package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrNotFound FindOne 未命中（取代 nil 文档）
var ErrNotFound = errors.New("document not found")

// Filter 文档字段相等过滤（字段名为 JSON 字段名）；空 Filter 匹配全部
type Filter map[string]any

// ByID id == x
func ByID(id string) Filter {
	return Filter{"id": id}
}

// DocumentStore 通用文档存储
// 每个文档类型对应一个集合，集合名为类型名（AnchorSet / SharedState / SensorData / DesiredData）
type DocumentStore[T any] interface {
	Find(ctx context.Context, filter Filter) ([]T, error)
	FindOne(ctx context.Context, filter Filter) (T, error)
	InsertOne(ctx context.Context, doc T) (T, error)
	// ReplaceOne 替换第一个匹配的文档；无匹配时插入（upsert）
	ReplaceOne(ctx context.Context, filter Filter, doc T) error
	// DeleteOne 删除第一个匹配的文档；无匹配不报错
	DeleteOne(ctx context.Context, filter Filter) error
	FindIn(ctx context.Context, field string, values []string) ([]T, error)
}

// CollectionName 文档类型名
func CollectionName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// documentID 取文档 JSON 中的 "id"
func documentID(raw []byte) (string, error) {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", fmt.Errorf("decode document id: %w", err)
	}
	if head.ID == "" {
		return "", errors.New("document has no id")
	}
	return head.ID, nil
}
