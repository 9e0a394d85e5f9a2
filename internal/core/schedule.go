package core

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/storage"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
)

// ScheduleCrawler 单个组或教师的课表抓取器
type ScheduleCrawler struct {
	config  ScheduleConfig
	fetcher models.Fetcher
	adapter models.PageAdapter
}

// ScheduleResult 一次课表抓取的结果
type ScheduleResult struct {
	URL     string
	Target  models.ScheduleTarget
	Slots   []models.ScheduleSlot
	Removed int      // 清理掉的"无课"时段数
	Files   []string // 写入的文件
}

// NewScheduleCrawler 创建课表抓取器
func NewScheduleCrawler(config ScheduleConfig, fetcher models.Fetcher, adapter models.PageAdapter) *ScheduleCrawler {
	return &ScheduleCrawler{
		config:  config,
		fetcher: fetcher,
		adapter: adapter,
	}
}

// ResolveTarget 构造目标URL并校验主机
// URL查询参数中的groupId、staffId、selectedWeek覆盖target中的值
func (sc *ScheduleCrawler) ResolveTarget(target models.ScheduleTarget) (models.ScheduleTarget, string, error) {
	rawURL, err := target.ScheduleURL(sc.config.BaseURL)
	if err != nil {
		return target, "", err
	}
	if err := utils.HostAllowed(rawURL, sc.config.AllowedHost); err != nil {
		return target, "", err
	}

	parsed, err := models.ParseHTTPURL(rawURL)
	if err != nil {
		return target, "", err
	}
	query := parsed.Query()
	if query.Has("groupId") {
		target.GroupID = query.Get("groupId")
	}
	if query.Has("staffId") {
		target.StaffID = query.Get("staffId")
	}
	if query.Has("selectedWeek") {
		target.Week = query.Get("selectedWeek")
	}
	target.URL = rawURL

	return target, rawURL, nil
}

// Run 抓取、清理并保存课表
//
// 目标无效或抓取失败时返回错误且不写文件;
// 页面结构缺失时记录警告并写入空课表。
func (sc *ScheduleCrawler) Run(ctx context.Context, target models.ScheduleTarget) (*ScheduleResult, error) {
	resolved, rawURL, err := sc.ResolveTarget(target)
	if err != nil {
		return nil, fmt.Errorf("课表目标无效: %w", err)
	}

	utils.Infof("解析课表: %s", rawURL)
	page, err := sc.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("获取课表页面失败: %w", err)
	}

	slots, err := sc.adapter.ExtractSchedule(page.Body)
	if err != nil {
		if models.KindOf(err) != models.KindStructure {
			return nil, fmt.Errorf("解析课表失败: %w", err)
		}
		utils.Warnf("课表页面结构不完整: %v", err)
		slots = []models.ScheduleSlot{}
	}

	cleaned, removed := models.CleanSchedule(slots, sc.config.DropEmptySlots)
	utils.Infof("删除空时段: %d", removed)

	files, err := storage.WriteSchedule(sc.config.DataDir, resolved, rawURL, cleaned)
	if err != nil {
		return nil, fmt.Errorf("保存课表失败: %w", err)
	}
	for _, f := range files {
		utils.Infof("写入文件: %s", f)
	}

	return &ScheduleResult{
		URL:     rawURL,
		Target:  resolved,
		Slots:   cleaned,
		Removed: removed,
		Files:   files,
	}, nil
}

// RunWithReport 执行Run并生成运行报告
func (sc *ScheduleCrawler) RunWithReport(ctx context.Context, target models.ScheduleTarget) (*ScheduleResult, *models.RunReport, error) {
	report := models.NewRunReport(models.PipelineSchedule, "")
	defer report.Finish()

	result, err := sc.Run(ctx, target)
	if err != nil {
		report.Error = err.Error()
		report.Stats.RecordFailure(target.URL, err)
		return nil, report, err
	}

	report.Stats.PagesFetched = 1
	report.Stats.Entries = len(result.Slots)
	report.OutputFile = result.Files[0]
	report.Written = true
	return result, report, nil
}
