package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/ssaudir/internal/models"
)

// HostAllowed 检查URL的主机名是否包含allowed
// allowed为空时不做限制
func HostAllowed(rawURL, allowed string) error {
	parsed, err := models.ParseHTTPURL(rawURL)
	if err != nil {
		return err
	}
	if allowed == "" {
		return nil
	}
	if !strings.Contains(parsed.Host, allowed) {
		return fmt.Errorf("主机名必须属于 %s, 实际为 %s", allowed, parsed.Host)
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^0-9a-zA-Z_-]`)

// SanitizeFilePart 将字符串转换为可用作文件名片段的形式
// 非 [0-9a-zA-Z_-] 字符替换为下划线,截断到64个字符
func SanitizeFilePart(s string) string {
	s = unsafeFileChars.ReplaceAllString(s, "_")
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
