package crawlers

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RatePacer 以固定间隔放行请求
// 第一次Wait立即返回,之后每次至少间隔interval
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer 创建节奏控制器,interval<=0时不限速
func NewRatePacer(interval time.Duration) *RatePacer {
	if interval <= 0 {
		return &RatePacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RatePacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait 阻塞直到允许下一次请求
func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
