package core

import (
	"github.com/RecoveryAshes/ssaudir/internal/crawlers"
	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
)

// 抓取模式
const (
	FetchModeStatic  = "static"
	FetchModeDynamic = "dynamic"
)

// NewFetcher 根据 fetch.mode 创建抓取器
// 返回的closer在运行结束后调用,释放浏览器等资源
func NewFetcher(cfg FetchConfig, headers models.HeaderProvider) (models.Fetcher, func() error) {
	if cfg.Mode == FetchModeDynamic {
		utils.Infof("抓取模式: 浏览器渲染 (headless=%v)", cfg.Headless)
		df := crawlers.NewDynamicFetcher(crawlers.DynamicConfig{
			Headless:        cfg.Headless,
			Timeout:         cfg.Timeout,
			MinFreeMemoryMB: cfg.MinFreeMemoryMB,
		}, headers)
		return df, df.Close
	}

	utils.Debugf("抓取模式: 静态HTTP")
	return crawlers.NewStaticFetcher(cfg.Timeout, headers), func() error { return nil }
}
