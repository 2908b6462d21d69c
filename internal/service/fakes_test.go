package service

import (
	"context"
	"fmt"
	"sync"

	"smarthotel-mr/internal/events"
)

// fakeFetcher 按 path 返回预设响应；未配置的 path 视为 404
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: map[string]string{}}
}

func (f *fakeFetcher) set(path, body string) *fakeFetcher {
	f.responses[path] = body
	return f
}

func (f *fakeFetcher) GetAsString(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	body, ok := f.responses[path]
	if !ok {
		return "", &RemoteFetchError{Path: path, StatusCode: 404, Body: fmt.Sprintf("no fixture for %s", path)}
	}
	return body, nil
}

func (f *fakeFetcher) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == path {
			n++
		}
	}
	return n
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
