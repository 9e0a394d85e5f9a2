package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/ssaudir/internal/core"
	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 全局参数
var (
	configFile     string
	logLevel       string
	fetchMode      string
	reportDir      string
	headers        []string
	validateConfig bool
)

// appConfig 在PersistentPreRunE中加载,子命令共享
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "ssaudir",
	Short: "SSAU 学术组与教职工目录爬取工具",
	Long: `ssaudir - 抓取 ssau.ru 的学术组目录、教职工目录和课表

子命令:
  groups    发现学院并按课程抓取全部学术组,写入 groups.json
  staff     抓取教职工列表页,写入 staff.json
  schedule  抓取单个组或教师的课表
  serve     提供目录和课表的HTTP API

HTTP头部配置示例:
  # 通过配置文件 (configs/config.yaml 中的 fetch.headers)
  ssaudir groups

  # 通过命令行参数
  ssaudir staff -H "User-Agent: MyBot/1.0" -H "Accept-Language: ru"

  # 验证配置
  ssaudir --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		if cmd.Flags().Changed("mode") {
			config.Fetch.Mode = fetchMode
		}
		if cmd.Flags().Changed("report-dir") {
			config.Output.ReportDir = reportDir
		}
		if err := ValidateMode(config.Fetch.Mode); err != nil {
			return err
		}

		logConfig := config.LogConfig()
		if logLevel != "" {
			logConfig.Level = logLevel
		}
		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		appConfig = config
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !validateConfig {
			return cmd.Help()
		}

		utils.Info("🔍 验证HTTP头部配置...")
		headerManager, err := core.NewHeaderManager(appConfig.Fetch.Headers, headers)
		if err != nil {
			return fmt.Errorf("配置验证失败: %w", err)
		}

		safeHeaders := headerManager.GetSafeHeaders()
		utils.Info("✅ 配置验证通过!")
		utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
		for name, value := range safeHeaders {
			utils.Infof("  %s: %s", name, value)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	// 不需要加载配置
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ssaudir %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// newFetcher 根据配置和-H参数创建抓取器
func newFetcher() (models.Fetcher, func() error, error) {
	headerManager, err := core.NewHeaderManager(appConfig.Fetch.Headers, headers)
	if err != nil {
		return nil, nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	fetcher, closer := core.NewFetcher(appConfig.Fetch, headerManager)
	return fetcher, closer, nil
}

// writeReport 写入运行报告,失败只记录
func writeReport(report *models.RunReport) {
	if report == nil {
		return
	}
	if err := utils.NewReporter(appConfig.Output.ReportDir).WriteReport(report); err != nil {
		utils.Warnf("写入运行报告失败: %v", err)
	}
}

// printSummary 打印运行统计
func printSummary(report *models.RunReport) {
	stats := report.Stats
	fmt.Println("\n==================================================")
	fmt.Printf("📊 %s 统计\n", report.Pipeline)
	fmt.Println("==================================================")
	if report.Pipeline == models.PipelineGroups {
		fmt.Printf("🏛  学院数: %d\n", stats.Units)
	}
	fmt.Printf("✅ 成功页面: %d\n", stats.PagesFetched)
	fmt.Printf("❌ 跳过页面: %d\n", stats.PagesSkipped)
	fmt.Printf("📄 条目数: %d\n", stats.Entries)
	if report.Written {
		fmt.Printf("💾 输出文件: %s\n", report.OutputFile)
	} else {
		fmt.Println("💾 未写入输出文件")
	}
	fmt.Printf("⏱️  总耗时: %.2f秒\n", report.Duration)
	fmt.Println("==================================================")
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVarP(&fetchMode, "mode", "m", core.FetchModeStatic, "抓取模式 (static|dynamic)")
	rootCmd.PersistentFlags().StringVar(&reportDir, "report-dir", "", "运行报告目录 (为空时不写报告)")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.Flags().BoolVar(&validateConfig, "validate-config", false, "验证配置和HTTP头部")

	rootCmd.AddCommand(versionCmd, groupsCmd, staffCmd, scheduleCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
