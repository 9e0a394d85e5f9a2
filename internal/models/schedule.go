package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// NoLessonsMessage 空时段条目的消息
const NoLessonsMessage = "No lessons on this time"

// LessonGroup 课程所属的组
// 页面上要么是一个纯文本标签,要么是若干带链接的组
type LessonGroup struct {
	Label  string
	Number string
	Href   string
}

// MarshalJSON 纯文本标签序列化为字符串,链接组序列化为 {number, href}
func (g LessonGroup) MarshalJSON() ([]byte, error) {
	if g.Label != "" {
		return json.Marshal(g.Label)
	}
	return json.Marshal(struct {
		Number string `json:"number"`
		Href   string `json:"href"`
	}{g.Number, g.Href})
}

// UnmarshalJSON 与MarshalJSON对称
func (g *LessonGroup) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*g = LessonGroup{Label: label}
		return nil
	}
	var linked struct {
		Number string `json:"number"`
		Href   string `json:"href"`
	}
	if err := json.Unmarshal(data, &linked); err != nil {
		return err
	}
	*g = LessonGroup{Number: linked.Number, Href: linked.Href}
	return nil
}

// Lesson 一节课
// 文本为空的字段序列化为null
type Lesson struct {
	Discipline *string       `json:"discipline"`
	Place      *string       `json:"place"`
	Teacher    *string       `json:"teacher"`
	Groups     []LessonGroup `json:"groups"`
}

// ScheduleEntry 时段中的一个条目: 课程或"无课"消息
type ScheduleEntry struct {
	Message string `json:"message,omitempty"`
	*Lesson
}

// IsEmpty 是否为"无课"条目
func (e ScheduleEntry) IsEmpty() bool {
	return e.Lesson == nil && e.Message == NoLessonsMessage
}

// ScheduleSlot 课表中的一个时段
type ScheduleSlot []ScheduleEntry

// EmptySlot 返回只含"无课"消息的时段
func EmptySlot() ScheduleSlot {
	return ScheduleSlot{{Message: NoLessonsMessage}}
}

// HasNoLessons 时段中是否含有"无课"条目
func (s ScheduleSlot) HasNoLessons() bool {
	for _, e := range s {
		if e.IsEmpty() {
			return true
		}
	}
	return false
}

// CleanSchedule 删除最多limit个含"无课"条目的时段(按出现顺序)
// 返回: 清理后的时段和实际删除数
func CleanSchedule(slots []ScheduleSlot, limit int) ([]ScheduleSlot, int) {
	cleaned := make([]ScheduleSlot, 0, len(slots))
	removed := 0
	for _, slot := range slots {
		if removed < limit && slot.HasNoLessons() {
			removed++
			continue
		}
		cleaned = append(cleaned, slot)
	}
	return cleaned, removed
}

// ScheduleTarget 课表抓取目标
type ScheduleTarget struct {
	GroupID string
	StaffID string
	Week    string
	URL     string // 显式URL;为空时由GroupID/StaffID构造
}

// ScheduleURL 构造目标URL
// 显式URL原样返回;否则以base为基础拼接groupId/staffId和selectedWeek
func (t ScheduleTarget) ScheduleURL(base string) (string, error) {
	if t.URL != "" {
		return t.URL, nil
	}
	week := t.Week
	if week == "" {
		week = "1"
	}
	q := url.Values{}
	switch {
	case t.StaffID != "":
		q.Set("staffId", t.StaffID)
	case t.GroupID != "":
		q.Set("groupId", t.GroupID)
	default:
		return "", fmt.Errorf("需要groupId、staffId或url")
	}
	q.Set("selectedWeek", week)

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode(), nil
}
