package core

import (
	"net/http"

	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
)

// DefaultUserAgent 默认User-Agent
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

// HeaderManager 管理HTTP请求头部,实现models.HeaderProvider
// 优先级: 默认 < 配置文件 fetch.headers < 命令行 -H
type HeaderManager struct {
	defaults http.Header
	config   http.Header
	cli      http.Header

	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor

	merged http.Header
}

var _ models.HeaderProvider = (*HeaderManager)(nil)

// NewHeaderManager 创建头部管理器并校验全部头部
func NewHeaderManager(configHeaders map[string]string, cliHeaders []string) (*HeaderManager, error) {
	hm := &HeaderManager{
		defaults:  getDefaultHeaders(),
		config:    make(http.Header),
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
	}

	for name, value := range configHeaders {
		hm.config.Set(name, value)
	}

	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}
	hm.cli = cli

	if err := hm.Validate(); err != nil {
		return nil, err
	}
	hm.merged = hm.merge()

	utils.Debugf("HTTP头部: %v", hm.GetSafeHeaders())
	return hm, nil
}

// getDefaultHeaders 返回系统默认头部
func getDefaultHeaders() http.Header {
	return http.Header{
		"User-Agent":      []string{DefaultUserAgent},
		"Accept":          []string{"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"Accept-Encoding": []string{"gzip, br"},
	}
}

// Validate 按 默认 → 配置 → 命令行 的顺序校验头部
func (hm *HeaderManager) Validate() error {
	if err := hm.validator.Validate(hm.config); err != nil {
		utils.Errorf("配置文件头部验证失败: %v", err)
		return err
	}
	if err := hm.validator.Validate(hm.cli); err != nil {
		utils.Errorf("命令行头部验证失败: %v", err)
		return err
	}
	return nil
}

func (hm *HeaderManager) merge() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[name] = values
		}
	}
	return result
}

// GetSafeHeaders 返回脱敏后的头部 (用于日志)
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return hm.redactor.Redact(hm.merged)
}

// GetHeaders 实现 HeaderProvider 接口
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	return hm.merged.Clone(), nil
}
