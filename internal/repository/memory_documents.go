package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// MemoryDocumentStore 内存文档存储（STORE_DRIVER=memory 及测试）
// 按插入顺序保存 JSON 副本，读写都做深拷贝
type MemoryDocumentStore[T any] struct {
	mu   sync.RWMutex
	docs []memoryDoc
}

type memoryDoc struct {
	raw    []byte
	fields map[string]any
}

func NewMemoryDocumentStore[T any]() *MemoryDocumentStore[T] {
	return &MemoryDocumentStore[T]{}
}

var _ DocumentStore[struct{}] = (*MemoryDocumentStore[struct{}])(nil)

func (s *MemoryDocumentStore[T]) Find(_ context.Context, filter Filter) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0)
	for _, d := range s.docs {
		if !d.matches(filter) {
			continue
		}
		v, err := decodeMemoryDoc[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *MemoryDocumentStore[T]) FindOne(_ context.Context, filter Filter) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	i := s.indexOf(filter)
	if i < 0 {
		return zero, ErrNotFound
	}
	return decodeMemoryDoc[T](s.docs[i])
}

func (s *MemoryDocumentStore[T]) InsertOne(_ context.Context, doc T) (T, error) {
	d, err := encodeMemoryDoc(doc)
	if err != nil {
		var zero T
		return zero, err
	}
	s.mu.Lock()
	s.docs = append(s.docs, d)
	s.mu.Unlock()
	return decodeMemoryDoc[T](d)
}

func (s *MemoryDocumentStore[T]) ReplaceOne(_ context.Context, filter Filter, doc T) error {
	d, err := encodeMemoryDoc(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(filter); i >= 0 {
		s.docs[i] = d
		return nil
	}
	s.docs = append(s.docs, d)
	return nil
}

func (s *MemoryDocumentStore[T]) DeleteOne(_ context.Context, filter Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(filter); i >= 0 {
		s.docs = append(s.docs[:i], s.docs[i+1:]...)
	}
	return nil
}

func (s *MemoryDocumentStore[T]) FindIn(_ context.Context, field string, values []string) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	out := make([]T, 0)
	for _, d := range s.docs {
		str, ok := d.fields[field].(string)
		if !ok {
			continue
		}
		if _, hit := set[str]; !hit {
			continue
		}
		v, err := decodeMemoryDoc[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Len 文档数量
func (s *MemoryDocumentStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// indexOf 调用方持锁
func (s *MemoryDocumentStore[T]) indexOf(filter Filter) int {
	for i, d := range s.docs {
		if d.matches(filter) {
			return i
		}
	}
	return -1
}

func (d memoryDoc) matches(filter Filter) bool {
	for k, want := range filter {
		got, ok := d.fields[k]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(got, normalize(want)) {
			return false
		}
	}
	return true
}

// normalize 把过滤值转换成与 JSON 解码结果可比较的形式（数字 -> float64 等）
func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func encodeMemoryDoc[T any](doc T) (memoryDoc, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return memoryDoc{}, fmt.Errorf("encode document: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return memoryDoc{}, fmt.Errorf("document must be a JSON object: %w", err)
	}
	return memoryDoc{raw: raw, fields: fields}, nil
}

func decodeMemoryDoc[T any](d memoryDoc) (T, error) {
	var v T
	if err := json.Unmarshal(d.raw, &v); err != nil {
		return v, fmt.Errorf("decode document: %w", err)
	}
	return v, nil
}
