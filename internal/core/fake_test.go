package core

import (
	"context"
	"sync"

	"github.com/RecoveryAshes/ssaudir/internal/models"
)

// fakeFetcher 按URL返回预置的页面或状态码,记录请求顺序
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	statuses map[string]int
	requests []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:    make(map[string]string),
		statuses: make(map[string]int),
	}
}

func (f *fakeFetcher) page(url, body string) *fakeFetcher {
	f.pages[url] = body
	return f
}

func (f *fakeFetcher) status(url string, code int) *fakeFetcher {
	f.statuses[url] = code
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*models.Page, error) {
	f.mu.Lock()
	f.requests = append(f.requests, url)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, models.NewCrawlError(models.KindNetwork, url, err)
	}
	if code, ok := f.statuses[url]; ok {
		return nil, models.StatusError(url, code)
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, models.StatusError(url, 404)
	}
	return &models.Page{URL: url, StatusCode: 200, Body: []byte(body)}, nil
}

func (f *fakeFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// countingPacer 不等待,只计数
type countingPacer struct {
	calls int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.calls++
	return ctx.Err()
}
