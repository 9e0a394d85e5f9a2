package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/RecoveryAshes/ssaudir/internal/crawlers"
	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/storage"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
)

// GroupCrawler 学术组目录爬取器
// 先从发现页获取学院列表,再按课程号逐页抓取每个学院的组
type GroupCrawler struct {
	config  GroupsConfig
	fetcher models.Fetcher
	adapter models.PageAdapter

	coursePacer    models.Pacer
	institutePacer models.Pacer
	progress       Progress
}

// NewGroupCrawler 创建组爬取器,节奏控制取自配置中的延迟
func NewGroupCrawler(config GroupsConfig, fetcher models.Fetcher, adapter models.PageAdapter) *GroupCrawler {
	return &GroupCrawler{
		config:         config,
		fetcher:        fetcher,
		adapter:        adapter,
		coursePacer:    crawlers.NewRatePacer(config.CourseDelay),
		institutePacer: crawlers.NewRatePacer(config.InstituteDelay),
		progress:       noopProgress{},
	}
}

// SetPacers 替换课程和学院的节奏控制
func (gc *GroupCrawler) SetPacers(course, institute models.Pacer) {
	gc.coursePacer = course
	gc.institutePacer = institute
}

// SetProgress 设置进度显示(每个学院前进一步)
func (gc *GroupCrawler) SetProgress(p Progress) {
	if p == nil {
		p = noopProgress{}
	}
	gc.progress = p
}

// CourseURL 学院某个课程的页面URL
func (gc *GroupCrawler) CourseURL(instituteID string, course int) string {
	return fmt.Sprintf("%s/faculty/%s?course=%d", strings.TrimRight(gc.config.BaseURL, "/"), instituteID, course)
}

// DiscoverInstitutes 抓取发现页并提取学院列表
// 抓取或解析失败、结果为空都返回错误,调用方应终止整个运行
func (gc *GroupCrawler) DiscoverInstitutes(ctx context.Context) ([]models.Institute, error) {
	page, err := gc.fetcher.Fetch(ctx, gc.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("获取学院列表失败: %w", err)
	}

	institutes, err := gc.adapter.ExtractInstitutes(page.Body)
	if err != nil {
		return nil, fmt.Errorf("解析学院列表失败: %w", err)
	}
	if len(institutes) == 0 {
		return nil, models.ErrNoInstitutes
	}

	utils.Infof("找到学院: %d", len(institutes))
	return institutes, nil
}

// CrawlInstitute 按课程号升序抓取一个学院的组
//
// 404表示该学院没有更多课程,立即结束且不视为错误;
// 其他错误记录到stats后继续下一个课程。
// 只有ctx被取消时返回错误,此时已收集的组仍然返回。
func (gc *GroupCrawler) CrawlInstitute(ctx context.Context, institute models.Institute, stats *models.RunStats) (models.Directory, error) {
	groups := models.NewDirectory()

	for course := gc.config.FirstCourse; course <= gc.config.LastCourse; course++ {
		if err := gc.coursePacer.Wait(ctx); err != nil {
			return groups, err
		}

		url := gc.CourseURL(institute.ID, course)
		page, err := gc.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return groups, ctx.Err()
			}
			if models.IsNotFound(err) {
				stats.NotFound++
				utils.Infof("  课程 %d 不存在, 结束学院 %s", course, institute.ID)
				break
			}
			utils.Warnf("  抓取课程 %d 失败 (学院 %s): %v", course, institute.ID, err)
			stats.RecordFailure(url, err)
			continue
		}
		stats.PagesFetched++

		found, err := gc.adapter.ExtractGroups(page.Body)
		if err != nil {
			utils.Warnf("  解析课程 %d 失败 (学院 %s): %v", course, institute.ID, err)
			stats.RecordFailure(url, err)
			continue
		}

		groups.Merge(models.GroupsDirectory(found))
		utils.Infof("  已处理课程 %d, 找到组: %d", course, len(found))
	}

	return groups, nil
}

// Collect 发现学院并抓取全部组,不写文件
// 后处理的学院覆盖先处理的学院中相同id的组
func (gc *GroupCrawler) Collect(ctx context.Context, report *models.RunReport) (models.Directory, error) {
	institutes, err := gc.DiscoverInstitutes(ctx)
	if err != nil {
		return nil, err
	}
	report.Stats.Units = len(institutes)

	gc.progress.ChangeMax(len(institutes))
	defer gc.progress.Finish()

	all := models.NewDirectory()
	for i, institute := range institutes {
		if err := gc.institutePacer.Wait(ctx); err != nil {
			return all, err
		}

		utils.Infof("[%d/%d] 解析学院 '%s' (ID: %s)", i+1, len(institutes), institute.Name, institute.ID)
		groups, err := gc.CrawlInstitute(ctx, institute, &report.Stats)
		all.Merge(groups)
		_ = gc.progress.Add(1)
		if err != nil {
			return all, err
		}
		utils.Infof("  学院 %s 共收集组: %d", institute.ID, len(groups))
	}

	return all, nil
}

// Run 完整执行一次组爬取并写入输出文件
//
// 学院发现失败或运行被取消时不写文件并返回错误;
// 写文件失败只记录日志,报告中Written为false。
func (gc *GroupCrawler) Run(ctx context.Context) (*models.RunReport, error) {
	report := models.NewRunReport(models.PipelineGroups, gc.config.Output)
	defer report.Finish()

	groups, err := gc.Collect(ctx, report)
	if err != nil {
		report.Error = err.Error()
		utils.Error(err, "组爬取终止, 不写入文件")
		return report, err
	}

	report.Stats.Entries = len(groups)
	persist(report, groups)
	return report, nil
}

// persist 写入目录文件,失败时只记录
func persist(report *models.RunReport, dir models.Directory) {
	if err := storage.WriteDirectory(report.OutputFile, dir); err != nil {
		report.Error = err.Error()
		utils.Error(err, "保存文件失败")
		return
	}
	report.Written = true
	utils.Infof("✅ 结果已保存到 %s, 共 %d 条", report.OutputFile, len(dir))
}
