package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	tempDir := t.TempDir()
	var console bytes.Buffer

	config := LogConfig{
		Level:      "debug",
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		NoColor:    true,
		Console:    &console,
	}

	require.NoError(t, InitLogger(config))

	Info("测试信息日志")
	Warnf("格式化警告日志: %d", 123)
	Error(errors.New("boom"), "测试错误日志")

	assert.Contains(t, console.String(), "测试信息日志")
	assert.Contains(t, console.String(), "格式化警告日志: 123")

	mainLog, err := os.ReadFile(filepath.Join(tempDir, mainLogName))
	require.NoError(t, err)
	assert.Contains(t, string(mainLog), "测试信息日志")

	// 错误日志文件只包含error及以上级别
	errorLog, err := os.ReadFile(filepath.Join(tempDir, errorLogName))
	require.NoError(t, err)
	assert.Contains(t, string(errorLog), "测试错误日志")
	assert.NotContains(t, string(errorLog), "测试信息日志")
}

func TestLogLevels(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, InitLogger(LogConfig{Level: "info", NoColor: true, Console: &console}))

	Debug("调试日志测试 - 级别为info时不显示")
	Infof("格式化信息日志: %s", "测试")

	out := console.String()
	assert.NotContains(t, out, "调试日志测试")
	assert.Contains(t, out, "格式化信息日志: 测试")
}

func TestInitLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, InitLogger(LogConfig{Level: "verbose", NoColor: true, Console: &console}))

	Debug("不应出现")
	Info("应该出现")

	assert.False(t, strings.Contains(console.String(), "不应出现"))
	assert.Contains(t, console.String(), "应该出现")
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	assert.Equal(t, "info", config.Level)
	assert.Equal(t, "logs", config.LogDir)
	assert.Equal(t, 10, config.MaxSize)
	assert.Equal(t, 3, config.MaxBackups)
	assert.Equal(t, 28, config.MaxAge)
	assert.True(t, config.Compress)
}
