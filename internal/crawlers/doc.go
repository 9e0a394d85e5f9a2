// Package crawlers 提供抓取单个页面的两种实现和请求节奏控制
//
// # 概述
//
// 爬取流程中的"抓取"一步由models.Fetcher接口描述。本包提供两个实现,
// 由配置项 fetch.mode 选择:
//
//   - static: StaticFetcher,基于Colly,直接发送HTTP GET
//   - dynamic: DynamicFetcher,基于go-rod,在无头浏览器中渲染页面
//
// 两者返回的错误都是*models.CrawlError,编排器只根据错误分类决定
// 跳过页面还是结束当前学院。
//
// # StaticFetcher
//
//	fetcher := NewStaticFetcher(30*time.Second, headerManager)
//	page, err := fetcher.Fetch(ctx, "https://ssau.ru/rasp")
//	if models.IsNotFound(err) { /* 该学院的课程到此为止 */ }
//
// 响应体按Content-Encoding解压(gzip由Colly处理,br使用brotli,deflate使用标准库)。
//
// # DynamicFetcher
//
// 第一次Fetch时启动浏览器。启动前用gopsutil检查系统可用内存,
// 低于 fetch.min_free_memory_mb 时拒绝启动:
//
//	fetcher := NewDynamicFetcher(DynamicConfig{Headless: true, MinFreeMemoryMB: 512}, headerManager)
//	defer fetcher.Close()
//
// 状态码取自主文档的Network.responseReceived事件,因此404同样被识别为KindNotFound。
//
// # RatePacer
//
// 基于golang.org/x/time/rate的固定间隔节奏控制,实现models.Pacer:
//
//	pacer := NewRatePacer(500 * time.Millisecond)
//	if err := pacer.Wait(ctx); err != nil { return err }
//
// interval<=0时不限速,测试中使用。
package crawlers
