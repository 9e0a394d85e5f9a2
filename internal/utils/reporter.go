package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 运行报告写入器
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告写入器,outputDir为空时不写报告
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// Enabled 是否配置了报告目录
func (r *Reporter) Enabled() bool {
	return r != nil && r.outputDir != ""
}

// ReportPath 返回某条流水线的报告路径
func (r *Reporter) ReportPath(pipeline models.Pipeline) string {
	return filepath.Join(r.outputDir, fmt.Sprintf("%s_report.json", pipeline))
}

// WriteReport 写入运行报告 <outputDir>/<pipeline>_report.json
func (r *Reporter) WriteReport(report *models.RunReport) error {
	if !r.Enabled() {
		return nil
	}
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	data, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	path := r.ReportPath(report.Pipeline)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Infof("✅ 报告已生成: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
