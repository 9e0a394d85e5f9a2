// Package storage 负责目录和课表的JSON持久化
package storage

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
)

// GenericScheduleFile 最近一次抓取的课表
const GenericScheduleFile = "schedule.json"

// Marshal 序列化为4空格缩进的JSON,不转义非ASCII和HTML字符
// map的键按字典序输出,相同输入得到相同字节
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// writeJSON 写入JSON文件,必要时创建父目录
func writeJSON(path string, v interface{}) error {
	data, err := Marshal(v)
	if err != nil {
		return models.NewCrawlError(models.KindWrite, path, fmt.Errorf("序列化JSON失败: %w", err))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return models.NewCrawlError(models.KindWrite, path, fmt.Errorf("创建目录失败: %w", err))
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return models.NewCrawlError(models.KindWrite, path, err)
	}

	utils.Debugf("写入文件: %s (%d bytes)", path, len(data))
	return nil
}

// WriteDirectory 将目录写入path,覆盖已有文件
func WriteDirectory(path string, dir models.Directory) error {
	if dir == nil {
		dir = models.NewDirectory()
	}
	return writeJSON(path, dir)
}

// ReadDirectory 读取目录文件
func ReadDirectory(path string) (models.Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dir := models.NewDirectory()
	if err := json.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return dir, nil
}

// ScheduleFileName 课表目标对应的文件名
//
//	schedule_group_<id>_<week>.json
//	schedule_staff_<id>_<week>.json
//	schedule_url_<sha1(url)>.json  (没有id时)
func ScheduleFileName(target models.ScheduleTarget, url string) string {
	week := ""
	if target.Week != "" {
		week = "_" + utils.SanitizeFilePart(target.Week)
	}

	switch {
	case target.GroupID != "":
		return fmt.Sprintf("schedule_group_%s%s.json", utils.SanitizeFilePart(target.GroupID), week)
	case target.StaffID != "":
		return fmt.Sprintf("schedule_staff_%s%s.json", utils.SanitizeFilePart(target.StaffID), week)
	default:
		sum := sha1.Sum([]byte(url))
		return fmt.Sprintf("schedule_url_%s.json", hex.EncodeToString(sum[:]))
	}
}

// WriteSchedule 写入课表: 目标专属文件和通用的schedule.json
// 返回: 写入的文件路径
func WriteSchedule(dataDir string, target models.ScheduleTarget, url string, slots []models.ScheduleSlot) ([]string, error) {
	if slots == nil {
		slots = []models.ScheduleSlot{}
	}

	paths := []string{
		filepath.Join(dataDir, ScheduleFileName(target, url)),
		filepath.Join(dataDir, GenericScheduleFile),
	}
	for _, path := range paths {
		if err := writeJSON(path, slots); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// ReadSchedule 读取课表文件的原始JSON
func ReadSchedule(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s 不是有效的JSON", path)
	}
	return json.RawMessage(data), nil
}

// ListScheduleFiles 列出dataDir中的课表文件名
func ListScheduleFiles(dataDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dataDir, "schedule*.json"))
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Base(m))
	}
	return files, nil
}
