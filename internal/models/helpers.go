package models

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// ParseHTTPURL 解析并校验抓取目标URL
// 只接受带主机名的http/https地址
func ParseHTTPURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("URL不能为空")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("URL必须是HTTP或HTTPS协议: %s", rawURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("URL必须包含主机名: %s", rawURL)
	}
	return parsed, nil
}

// ValidateURL 验证URL
func ValidateURL(rawURL string) error {
	_, err := ParseHTTPURL(rawURL)
	return err
}

// NewRunID 生成运行报告ID
func NewRunID() string {
	return uuid.New().String()
}
