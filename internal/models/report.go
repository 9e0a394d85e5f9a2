package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Pipeline 流水线名称
type Pipeline string

const (
	PipelineGroups   Pipeline = "groups"
	PipelineStaff    Pipeline = "staff"
	PipelineSchedule Pipeline = "schedule"
)

// FailedPage 被跳过的页面
type FailedPage struct {
	URL        string    `json:"url"`
	Kind       ErrorKind `json:"kind"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message"`
}

// RunStats 一次运行的统计
type RunStats struct {
	Units        int          `json:"units"`         // 学院数(staff流水线为0)
	PagesFetched int          `json:"pages_fetched"` // 成功抓取的页面
	PagesSkipped int          `json:"pages_skipped"` // 出错被跳过的页面
	NotFound     int          `json:"not_found"`     // 触发提前结束的404
	Entries      int          `json:"entries"`       // 输出中的条目数
	Failures     []FailedPage `json:"failures"`
}

// RecordFailure 记录一个被跳过的页面
func (s *RunStats) RecordFailure(url string, err error) {
	fp := FailedPage{
		URL:     url,
		Kind:    KindOf(err),
		Message: err.Error(),
	}
	var ce *CrawlError
	if errors.As(err, &ce) {
		fp.StatusCode = ce.StatusCode
	}
	s.PagesSkipped++
	s.Failures = append(s.Failures, fp)
}

// RunReport 运行报告
type RunReport struct {
	ID         string    `json:"id"`
	Pipeline   Pipeline  `json:"pipeline"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Duration   float64   `json:"duration"` // 秒
	OutputFile string    `json:"output_file"`
	Written    bool      `json:"written"` // 输出文件是否成功写入
	Error      string    `json:"error,omitempty"`
	Stats      RunStats  `json:"stats"`
}

// NewRunReport 创建新报告
func NewRunReport(pipeline Pipeline, outputFile string) *RunReport {
	return &RunReport{
		ID:         NewRunID(),
		Pipeline:   pipeline,
		StartedAt:  time.Now(),
		OutputFile: outputFile,
		Stats: RunStats{
			Failures: []FailedPage{},
		},
	}
}

// Finish 记录结束时间
func (r *RunReport) Finish() {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt).Seconds()
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
