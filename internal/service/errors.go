package service

import (
	"errors"
	"fmt"

	"smarthotel-mr/internal/repository"
)

// ErrInvalidArgument 参数缺失或非法
var ErrInvalidArgument = errors.New("invalid argument")

// NoAnchorSetError 指定的锚点集合不存在
type NoAnchorSetError struct {
	AnchorSetID string
}

func (e *NoAnchorSetError) Error() string {
	return fmt.Sprintf("no anchor set exists with id '%s'", e.AnchorSetID)
}

// Unwrap errors.Is(err, repository.ErrNotFound) 成立
func (e *NoAnchorSetError) Unwrap() error {
	return repository.ErrNotFound
}

// RemoteFetchError Digital Twins 返回非 2xx
type RemoteFetchError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("remote fetch %s failed with status %d: %s", e.Path, e.StatusCode, e.Body)
}
