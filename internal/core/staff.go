package core

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/ssaudir/internal/crawlers"
	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
)

// StaffCrawler 教职工目录爬取器
// 按页码升序抓取固定范围的列表页,任何一页失败都只跳过该页
type StaffCrawler struct {
	config  StaffConfig
	fetcher models.Fetcher
	adapter models.PageAdapter

	pacer    models.Pacer
	progress Progress
}

// NewStaffCrawler 创建教职工爬取器
func NewStaffCrawler(config StaffConfig, fetcher models.Fetcher, adapter models.PageAdapter) *StaffCrawler {
	return &StaffCrawler{
		config:   config,
		fetcher:  fetcher,
		adapter:  adapter,
		pacer:    crawlers.NewRatePacer(config.PageDelay),
		progress: noopProgress{},
	}
}

// SetPacer 替换页面间的节奏控制
func (sc *StaffCrawler) SetPacer(p models.Pacer) {
	sc.pacer = p
}

// SetProgress 设置进度显示(每页前进一步)
func (sc *StaffCrawler) SetProgress(p Progress) {
	if p == nil {
		p = noopProgress{}
	}
	sc.progress = p
}

// PageURL 列表页URL
func (sc *StaffCrawler) PageURL(page int) string {
	return fmt.Sprintf("%s?page=%d", sc.config.BaseURL, page)
}

// CrawlPage 抓取并解析一页
// 解析过程中的panic被恢复为KindParse错误
func (sc *StaffCrawler) CrawlPage(ctx context.Context, pageNum int) (members []models.StaffMember, err error) {
	url := sc.PageURL(pageNum)

	defer func() {
		if r := recover(); r != nil {
			members = nil
			err = models.NewCrawlError(models.KindParse, url, fmt.Errorf("解析panic: %v", r))
		}
	}()

	page, err := sc.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	members, err = sc.adapter.ExtractStaff(page.Body)
	if err != nil {
		return nil, fmt.Errorf("第%d页: %w", pageNum, err)
	}
	return members, nil
}

// Collect 抓取全部页面,不写文件
// 只有ctx被取消时返回错误
func (sc *StaffCrawler) Collect(ctx context.Context, report *models.RunReport) (models.Directory, error) {
	total := sc.config.LastPage - sc.config.FirstPage + 1
	sc.progress.ChangeMax(total)
	defer sc.progress.Finish()

	staff := models.NewDirectory()
	for pageNum := sc.config.FirstPage; pageNum <= sc.config.LastPage; pageNum++ {
		if err := sc.pacer.Wait(ctx); err != nil {
			return staff, err
		}

		utils.Infof("处理第 %d 页...", pageNum)
		members, err := sc.CrawlPage(ctx, pageNum)
		_ = sc.progress.Add(1)
		if err != nil {
			if ctx.Err() != nil {
				return staff, ctx.Err()
			}
			utils.Warnf("  第 %d 页跳过: %v", pageNum, err)
			report.Stats.RecordFailure(sc.PageURL(pageNum), err)
			continue
		}

		report.Stats.PagesFetched++
		staff.Merge(models.StaffDirectory(members))
		utils.Infof("  第 %d 页完成, 找到教职工: %d", pageNum, len(members))
	}

	return staff, nil
}

// Run 完整执行一次教职工爬取并写入输出文件
// 写文件失败只记录日志;运行被取消时不写文件
func (sc *StaffCrawler) Run(ctx context.Context) (*models.RunReport, error) {
	report := models.NewRunReport(models.PipelineStaff, sc.config.Output)
	defer report.Finish()

	staff, err := sc.Collect(ctx, report)
	if err != nil {
		report.Error = err.Error()
		utils.Error(err, "教职工爬取被中断, 不写入文件")
		return report, err
	}

	report.Stats.Entries = len(staff)
	persist(report, staff)
	return report, nil
}
