package crawlers

import (
	"bytes"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
)

// DefaultTimeout 单次请求的默认超时
const DefaultTimeout = 30 * time.Second

// StaticFetcher 基于Colly的静态页面抓取器
// 一次Fetch只访问一个URL,不跟随页面中的链接
type StaticFetcher struct {
	collector      *colly.Collector
	headerProvider models.HeaderProvider
}

// NewStaticFetcher 创建静态抓取器
func NewStaticFetcher(timeout time.Duration, headerProvider models.HeaderProvider) *StaticFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// 同一页面可能在多次运行中被重复请求
	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(timeout)

	utils.Debugf("静态抓取器: 请求超时 %s", timeout)

	return &StaticFetcher{
		collector:      c,
		headerProvider: headerProvider,
	}
}

// Fetch 抓取单个URL
//
// 返回的错误均为*models.CrawlError:
//   - 状态码为0(连接失败、超时、DNS): KindNetwork
//   - 404: KindNotFound
//   - 其他非2xx: KindHTTPStatus
func (sf *StaticFetcher) Fetch(ctx context.Context, url string) (*models.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewCrawlError(models.KindNetwork, url, err)
	}

	// Clone共享HTTP后端但不共享回调,每次抓取使用独立的回调
	c := sf.collector.Clone()

	var (
		page     *models.Page
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if sf.headerProvider == nil {
			return
		}
		headers, err := sf.headerProvider.GetHeaders()
		if err != nil {
			utils.Warnf("获取HTTP头部失败: %v", err)
			return
		}
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
		utils.Debugf("请求: %s", r.URL.String())
	})

	c.OnResponse(func(r *colly.Response) {
		body, err := decompressBody(r.Headers.Get("Content-Encoding"), r.Body)
		if err != nil {
			fetchErr = models.NewCrawlError(models.KindNetwork, url, err)
			return
		}
		page = &models.Page{
			URL:         url,
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        body,
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r == nil || r.StatusCode == 0 {
			fetchErr = models.NewCrawlError(models.KindNetwork, url, err)
			return
		}
		fetchErr = models.StatusError(url, r.StatusCode)
	})

	visitErr := c.Visit(url)

	switch {
	case fetchErr != nil:
		return nil, fetchErr
	case page != nil:
		return page, nil
	case visitErr != nil:
		// URL无效等情况下Colly不会触发OnError
		return nil, models.NewCrawlError(models.KindNetwork, url, visitErr)
	default:
		return nil, models.NewCrawlError(models.KindNetwork, url, fmt.Errorf("没有收到响应"))
	}
}

// decompressBody 根据Content-Encoding解压响应体
// gzip由Colly的HTTP后端处理,这里只处理deflate和br
func decompressBody(contentEncoding string, body []byte) ([]byte, error) {
	var reader io.Reader

	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "deflate":
		fr := flate.NewReader(bytes.NewReader(body))
		defer fr.Close()
		reader = fr
	case "br":
		reader = brotli.NewReader(bytes.NewReader(body))
	case "", "gzip", "identity":
		return body, nil
	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%s解压失败: %w", contentEncoding, err)
	}
	return decompressed, nil
}
