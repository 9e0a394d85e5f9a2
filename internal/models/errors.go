package models

import (
	"errors"
	"fmt"
)

// ErrorKind 爬取步骤的错误分类
// 编排器根据分类决定跳过页面、结束当前单元或终止整个运行
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"     // 传输层失败(连接、超时、DNS)
	KindNotFound   ErrorKind = "not_found"   // HTTP 404
	KindHTTPStatus ErrorKind = "http_status" // 其他非2xx状态码
	KindParse      ErrorKind = "parse"       // HTML无法解析或解析时panic
	KindStructure  ErrorKind = "structure"   // 预期的DOM层级缺失
	KindWrite      ErrorKind = "write"       // 输出文件写入失败
	KindUnknown    ErrorKind = "unknown"
)

// ErrNoInstitutes 发现页没有产生任何学院
var ErrNoInstitutes = errors.New("未发现任何学院")

// CrawlError 单个抓取/解析步骤的错误
type CrawlError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Cause      error
}

// Error 实现error接口
func (e *CrawlError) Error() string {
	msg := string(e.Kind)
	if e.URL != "" {
		msg += fmt.Sprintf(" [%s]", e.URL)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" HTTP %d", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap 支持errors.Unwrap
func (e *CrawlError) Unwrap() error {
	return e.Cause
}

// NewCrawlError 创建分类错误
func NewCrawlError(kind ErrorKind, url string, cause error) *CrawlError {
	return &CrawlError{Kind: kind, URL: url, Cause: cause}
}

// StatusError 根据HTTP状态码创建错误,404归为KindNotFound
func StatusError(url string, status int) *CrawlError {
	kind := KindHTTPStatus
	if status == 404 {
		kind = KindNotFound
	}
	return &CrawlError{
		Kind:       kind,
		URL:        url,
		StatusCode: status,
		Cause:      fmt.Errorf("意外的状态码 %d", status),
	}
}

// StructureError 创建DOM层级缺失错误
func StructureError(url string, what string) *CrawlError {
	return &CrawlError{
		Kind:  KindStructure,
		URL:   url,
		Cause: fmt.Errorf("未找到%s", what),
	}
}

// KindOf 返回错误链中第一个CrawlError的分类
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsNotFound 判断错误是否为404
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// ValidationError 头部验证错误
type ValidationError struct {
	// Field 出错的字段 ("name" 或 "value")
	Field string

	// HeaderName 头部名称
	HeaderName string

	// Reason 错误原因
	Reason string

	// Suggestion 修复建议 (可选)
	Suggestion string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	FilePath string
	Cause    error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
