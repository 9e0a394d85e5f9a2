package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/ssaudir/internal/core"
	"github.com/RecoveryAshes/ssaudir/internal/parsers"
	"github.com/RecoveryAshes/ssaudir/internal/server"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
)

// 子命令参数
var (
	groupsOutput string

	staffOutput string
	staffFrom   int
	staffTo     int

	scheduleGroup string
	scheduleStaff string
	scheduleURL   string
	scheduleWeek  string
	scheduleDir   string

	servePort int
	serveData string
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "抓取全部学术组,写入 groups.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig.Groups
		if cmd.Flags().Changed("output") {
			cfg.Output = groupsOutput
		}

		fetcher, closeFetcher, err := newFetcher()
		if err != nil {
			return err
		}
		defer closeFetcher()

		adapter := parsers.NewSSAU()
		adapter.FacultyPath = cfg.FacultyPathPrefix

		crawler := core.NewGroupCrawler(cfg, fetcher, adapter)
		crawler.SetProgress(utils.NewProgressBar(-1, "学院"))

		report, err := crawler.Run(cmd.Context())
		writeReport(report)
		printSummary(report)
		if err != nil {
			// 爬取失败已记录,不影响退出码
			utils.Warnf("组爬取未完成: %v", err)
		}
		return nil
	},
}

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "抓取教职工列表,写入 staff.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig.Staff
		if cmd.Flags().Changed("output") {
			cfg.Output = staffOutput
		}
		if cmd.Flags().Changed("from") {
			cfg.FirstPage = staffFrom
		}
		if cmd.Flags().Changed("to") {
			cfg.LastPage = staffTo
		}
		if err := ValidatePageRange(cfg.FirstPage, cfg.LastPage); err != nil {
			return err
		}

		fetcher, closeFetcher, err := newFetcher()
		if err != nil {
			return err
		}
		defer closeFetcher()

		crawler := core.NewStaffCrawler(cfg, fetcher, parsers.NewSSAU())
		crawler.SetProgress(utils.NewProgressBar(-1, "页面"))

		report, err := crawler.Run(cmd.Context())
		writeReport(report)
		printSummary(report)
		if err != nil {
			utils.Warnf("教职工爬取未完成: %v", err)
		}
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "抓取单个组或教师的课表",
	Example: `  ssaudir schedule --group 531873998 --week 5
  ssaudir schedule --staff 335301000 --week 1
  ssaudir schedule --url "https://ssau.ru/rasp?groupId=531873998&selectedWeek=5"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := ScheduleTargetFromFlags(scheduleGroup, scheduleStaff, scheduleURL, scheduleWeek)
		if err != nil {
			return err
		}

		cfg := appConfig.Schedule
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = scheduleDir
		}

		fetcher, closeFetcher, err := newFetcher()
		if err != nil {
			return err
		}
		defer closeFetcher()

		crawler := core.NewScheduleCrawler(cfg, fetcher, parsers.NewSSAU())

		// 目标本身无效属于用法错误
		if _, _, err := crawler.ResolveTarget(target); err != nil {
			return fmt.Errorf("课表目标无效: %w", err)
		}

		result, report, err := crawler.RunWithReport(cmd.Context(), target)
		writeReport(report)
		if err != nil {
			utils.Error(err, "课表抓取失败")
			return nil
		}

		fmt.Println("写入文件:")
		for _, f := range result.Files {
			fmt.Printf("  - %s\n", f)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动目录和课表HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig.Server
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = serveData
		}
		if err := ValidatePort(cfg.Port); err != nil {
			return err
		}

		fetcher, closeFetcher, err := newFetcher()
		if err != nil {
			return err
		}
		defer closeFetcher()

		// 刷新的课表写入服务读取的目录
		scheduleCfg := appConfig.Schedule
		scheduleCfg.DataDir = cfg.DataDir
		refresher := core.NewScheduleCrawler(scheduleCfg, fetcher, parsers.NewSSAU())

		srv := server.New(server.Config{
			Port:           cfg.Port,
			DataDir:        cfg.DataDir,
			PublicDir:      cfg.PublicDir,
			AllowedHost:    scheduleCfg.AllowedHost,
			RefreshTimeout: cfg.RefreshTimeout,
		}, refresher)

		return srv.ListenAndServe(cmd.Context())
	},
}

func init() {
	groupsCmd.Flags().StringVarP(&groupsOutput, "output", "o", "groups.json", "输出文件")

	staffCmd.Flags().StringVarP(&staffOutput, "output", "o", "staff.json", "输出文件")
	staffCmd.Flags().IntVar(&staffFrom, "from", 1, "起始页码")
	staffCmd.Flags().IntVar(&staffTo, "to", 129, "结束页码 (含)")

	scheduleCmd.Flags().StringVar(&scheduleGroup, "group", "", "组ID")
	scheduleCmd.Flags().StringVar(&scheduleStaff, "staff", "", "教师ID")
	scheduleCmd.Flags().StringVar(&scheduleURL, "url", "", "完整的课表URL")
	scheduleCmd.Flags().StringVar(&scheduleWeek, "week", "", "周次 (默认1)")
	scheduleCmd.Flags().StringVar(&scheduleDir, "data-dir", "data", "课表输出目录")

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 3000, "监听端口")
	serveCmd.Flags().StringVar(&serveData, "data-dir", "data", "数据目录")
}
