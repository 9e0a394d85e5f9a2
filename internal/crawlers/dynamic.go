package crawlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/shirou/gopsutil/v3/mem"
)

// DynamicConfig 浏览器抓取配置
type DynamicConfig struct {
	Headless        bool
	Timeout         time.Duration
	MinFreeMemoryMB uint64 // 启动浏览器所需的最小可用内存,0表示不检查
}

// DynamicFetcher 基于go-rod的浏览器抓取器
// 浏览器在第一次Fetch时启动,整个运行期间复用,每个URL使用独立的标签页
type DynamicFetcher struct {
	config         DynamicConfig
	headerProvider models.HeaderProvider

	mu      sync.Mutex
	browser *rod.Browser
}

// NewDynamicFetcher 创建浏览器抓取器
func NewDynamicFetcher(config DynamicConfig, headerProvider models.HeaderProvider) *DynamicFetcher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &DynamicFetcher{
		config:         config,
		headerProvider: headerProvider,
	}
}

// CheckBrowserResources 检查系统可用内存是否足够启动浏览器
func CheckBrowserResources(minFreeMB uint64) error {
	if minFreeMB == 0 {
		return nil
	}
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		// 无法获取时不阻止启动
		utils.Warnf("获取系统内存失败: %v", err)
		return nil
	}
	availableMB := vmStat.Available / (1024 * 1024)
	utils.Debugf("系统可用内存: %d MB (要求 %d MB)", availableMB, minFreeMB)
	if availableMB < minFreeMB {
		return fmt.Errorf("可用内存不足: %d MB < %d MB", availableMB, minFreeMB)
	}
	return nil
}

// launchBrowser 启动并连接浏览器
func (df *DynamicFetcher) launchBrowser() (*rod.Browser, error) {
	df.mu.Lock()
	defer df.mu.Unlock()

	if df.browser != nil {
		return df.browser, nil
	}

	if err := CheckBrowserResources(df.config.MinFreeMemoryMB); err != nil {
		return nil, err
	}

	controlURL, err := launcher.New().Headless(df.config.Headless).Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s", controlURL)
	df.browser = browser
	return browser, nil
}

// Close 关闭浏览器
func (df *DynamicFetcher) Close() error {
	df.mu.Lock()
	defer df.mu.Unlock()

	if df.browser == nil {
		return nil
	}
	err := df.browser.Close()
	df.browser = nil
	utils.Debugf("浏览器已关闭")
	return err
}

// Fetch 在新标签页中打开URL,返回渲染后的HTML
// 状态码取自主文档的网络响应
func (df *DynamicFetcher) Fetch(ctx context.Context, url string) (*models.Page, error) {
	browser, err := df.launchBrowser()
	if err != nil {
		return nil, models.NewCrawlError(models.KindNetwork, url, err)
	}

	ctx, cancel := context.WithTimeout(ctx, df.config.Timeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewCrawlError(models.KindNetwork, url, fmt.Errorf("创建标签页失败: %w", err))
	}
	defer func() {
		if err := page.Close(); err != nil {
			utils.Debugf("关闭标签页失败 [%s]: %v", url, err)
		}
	}()

	if err := df.applyHeaders(page); err != nil {
		utils.Warnf("设置HTTP头部失败: %v", err)
	}

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return nil, models.NewCrawlError(models.KindNetwork, url, err)
	}

	var status int
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			status = e.Response.Status
			return true
		}
		return false
	})

	if err := page.Navigate(url); err != nil {
		return nil, models.NewCrawlError(models.KindNetwork, url, fmt.Errorf("导航失败: %w", err))
	}
	wait()

	if status == 0 {
		return nil, models.NewCrawlError(models.KindNetwork, url, fmt.Errorf("没有收到文档响应"))
	}
	if status < 200 || status >= 300 {
		return nil, models.StatusError(url, status)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, models.NewCrawlError(models.KindNetwork, url, fmt.Errorf("等待页面加载失败: %w", err))
	}

	html, err := page.HTML()
	if err != nil {
		return nil, models.NewCrawlError(models.KindParse, url, fmt.Errorf("读取页面HTML失败: %w", err))
	}

	utils.Debugf("页面加载完成: %s (HTTP %d)", url, status)

	return &models.Page{
		URL:         url,
		StatusCode:  status,
		ContentType: "text/html",
		Body:        []byte(html),
	}, nil
}

// applyHeaders 为标签页设置额外的请求头部
func (df *DynamicFetcher) applyHeaders(page *rod.Page) error {
	if df.headerProvider == nil {
		return nil
	}
	headers, err := df.headerProvider.GetHeaders()
	if err != nil {
		return err
	}

	dict := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		// 浏览器自行协商压缩
		if len(values) == 0 || name == "Accept-Encoding" {
			continue
		}
		dict = append(dict, name, values[0])
	}
	if len(dict) == 0 {
		return nil
	}
	_, err = page.SetExtraHeaders(dict)
	return err
}
