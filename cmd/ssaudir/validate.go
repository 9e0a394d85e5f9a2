package main

import (
	"fmt"

	"github.com/RecoveryAshes/ssaudir/internal/core"
	"github.com/RecoveryAshes/ssaudir/internal/models"
)

// ValidateMode 验证抓取模式
func ValidateMode(mode string) error {
	validModes := map[string]bool{
		core.FetchModeStatic:  true,
		core.FetchModeDynamic: true,
	}
	if !validModes[mode] {
		return fmt.Errorf("无效的抓取模式: %s (有效值: static, dynamic)", mode)
	}
	return nil
}

// ValidatePageRange 验证教职工页码范围
func ValidatePageRange(from, to int) error {
	if from < 1 {
		return fmt.Errorf("起始页码必须大于0,当前值: %d", from)
	}
	if to < from {
		return fmt.Errorf("结束页码不能小于起始页码: %d < %d", to, from)
	}
	return nil
}

// ValidatePort 验证端口
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("端口必须在1-65535之间,当前值: %d", port)
	}
	return nil
}

// ScheduleTargetFromFlags 由 --group/--staff/--url/--week 构造课表目标
// 三者必须且只能指定一个
func ScheduleTargetFromFlags(groupID, staffID, rawURL, week string) (models.ScheduleTarget, error) {
	set := 0
	for _, v := range []string{groupID, staffID, rawURL} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return models.ScheduleTarget{}, fmt.Errorf("必须且只能指定 --group、--staff、--url 之一")
	}

	if rawURL != "" {
		if err := models.ValidateURL(rawURL); err != nil {
			return models.ScheduleTarget{}, fmt.Errorf("无效的课表URL: %w", err)
		}
		return models.ScheduleTarget{URL: rawURL, Week: week}, nil
	}

	return models.ScheduleTarget{GroupID: groupID, StaffID: staffID, Week: week}, nil
}
