package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/RecoveryAshes/ssaudir/internal/core"
	"github.com/RecoveryAshes/ssaudir/internal/crawlers"
	"github.com/go-rod/rod/lib/launcher"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  ssaudir 环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	fmt.Printf("✅ Go版本: %s\n", runtime.Version())
	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 配置文件
	fmt.Println()
	fmt.Println("检查配置...")
	cfg, err := core.LoadConfig("")
	if err != nil {
		fmt.Printf("❌ 加载配置失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ 配置有效 (抓取模式: %s)\n", cfg.Fetch.Mode)

	// 动态模式需要本地浏览器
	fmt.Println()
	fmt.Println("检查浏览器...")
	if path, found := launcher.LookPath(); found {
		fmt.Printf("✅ 找到浏览器: %s\n", path)
	} else if cfg.Fetch.Mode == core.FetchModeDynamic {
		fmt.Println("⚠️  未找到Chrome/Chromium,首次动态抓取时会自动下载")
	} else {
		fmt.Println("⚠️  未找到Chrome/Chromium - 动态抓取模式将需要下载浏览器")
	}

	if err := crawlers.CheckBrowserResources(cfg.Fetch.MinFreeMemoryMB); err != nil {
		fmt.Printf("⚠️  %v\n", err)
	} else {
		fmt.Println("✅ 系统内存满足浏览器要求")
	}

	// 输出目录可写
	fmt.Println()
	fmt.Println("检查输出目录...")
	for _, dir := range []string{cfg.Schedule.DataDir, cfg.Server.DataDir, cfg.Logging.LogDir, cfg.Output.ReportDir} {
		if dir == "" {
			continue
		}
		if err := checkWritable(dir); err != nil {
			fmt.Printf("❌ %s 不可写: %v\n", dir, err)
			allOK = false
		} else {
			fmt.Printf("✅ %s/\n", dir)
		}
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'ssaudir groups' 抓取学习组目录")
		fmt.Println("  2. 运行 'ssaudir staff' 抓取教职工目录")
		fmt.Println("  3. 运行 'ssaudir serve' 启动API服务")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}

// checkWritable 创建目录并尝试写入临时文件
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".ssaudir_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}
