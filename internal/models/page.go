package models

import "context"

// Page 一次成功抓取的页面
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher 抓取单个URL
//
// 错误均为*CrawlError: 传输失败为KindNetwork, 404为KindNotFound,
// 其他非2xx为KindHTTPStatus
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// PageAdapter 目标站点的页面结构适配器
// 所有选择器都集中在实现中,爬取逻辑只依赖该接口
type PageAdapter interface {
	ExtractInstitutes(body []byte) ([]Institute, error)
	ExtractGroups(body []byte) ([]Group, error)
	ExtractStaff(body []byte) ([]StaffMember, error)
	ExtractSchedule(body []byte) ([]ScheduleSlot, error)
}

// Pacer 请求节奏控制
// Wait 阻塞直到允许下一次请求,ctx取消时返回错误
type Pacer interface {
	Wait(ctx context.Context) error
}
