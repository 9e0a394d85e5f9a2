// Package parsers 封装目标站点的页面结构
//
// 所有CSS选择器和class字符串都集中在这里,爬取逻辑只通过models.PageAdapter访问。
// 站点改版时只需要修改本包。
package parsers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/RecoveryAshes/ssaudir/internal/models"
)

// 学院发现页
const (
	instituteSelector  = "div.faculties div.faculties__item a.h3-text[href]"
	DefaultFacultyPath = "/rasp/faculty/"
)

// 课程页
const (
	groupSelector = "a.btn-text.group-catalog__group[href]"
	groupIDMarker = "groupId="
)

// 教职工列表页,class属性需要完全匹配
const (
	staffContainerSelector = `div.container:not([class*=" "])`
	staffRowSelector       = "div.row"
	staffColumnSelector    = `div[class="col-12 col-md-8 order-2 order-md-1"]`
	staffListSelector      = "ul.list-group"
	staffItemSelector      = `li[class="list-group-item list-group-item-action"]`
)

// 课表页
const (
	timetableSelector     = "div.container.timetable"
	timetableCardSelector = "div.card-default.timetable-card"
	scheduleSelector      = "div.schedule"
	scheduleItemsSelector = "div.schedule__items"
	scheduleItemSelector  = "div.schedule__item"
	lessonSelector        = "div.schedule__lesson"
	lessonWrapperSelector = "div.schedule__lesson-wrapper"
	lessonInfoSelector    = "div.schedule__lesson-info"
	disciplineSelector    = "div.body-text.schedule__discipline"
	placeSelector         = "div.caption-text.schedule__place"
	teacherSelector       = "div.schedule__teacher"
	lessonGroupsSelector  = "div.schedule__groups"
	groupsLabelSelector   = "span.caption-text"
	groupLinkSelector     = "a.caption-text.schedule__group"
)

// SSAU 目标站点的页面适配器,实现models.PageAdapter
type SSAU struct {
	// FacultyPath 学院链接中位于学院id之前的路径
	FacultyPath string
}

// NewSSAU 创建适配器
func NewSSAU() *SSAU {
	return &SSAU{FacultyPath: DefaultFacultyPath}
}

var _ models.PageAdapter = (*SSAU)(nil)

// parse 解析HTML文档
func parse(body []byte) (*goquery.Document, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewCrawlError(models.KindParse, "", fmt.Errorf("HTML解析失败: %w", err))
	}
	return goquery.NewDocumentFromNode(root), nil
}

// afterLast 返回s中最后一个sep之后的部分,不含sep时返回s
func afterLast(s, sep string) string {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[i+len(sep):]
	}
	return s
}

// ExtractInstitutes 从发现页提取学院
// 重复的id保留第一次出现的位置,名称取最后一次出现的
func (a *SSAU) ExtractInstitutes(body []byte) ([]models.Institute, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}

	prefix := a.FacultyPath
	if prefix == "" {
		prefix = DefaultFacultyPath
	}

	var institutes []models.Institute
	position := make(map[string]int)

	doc.Find(instituteSelector).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		id, _, _ := strings.Cut(afterLast(href, prefix), "?")
		if id == "" {
			return
		}
		name := strings.TrimSpace(link.Text())

		if i, ok := position[id]; ok {
			institutes[i].Name = name
			return
		}
		position[id] = len(institutes)
		institutes = append(institutes, models.Institute{ID: id, Name: name})
	})

	return institutes, nil
}

// ExtractGroups 从课程页提取学术组
func (a *SSAU) ExtractGroups(body []byte) ([]models.Group, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}

	var groups []models.Group
	doc.Find(groupSelector).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		id := afterLast(href, groupIDMarker)

		number := models.GroupNumberPlaceholder
		if span := link.Find("span").First(); span.Length() > 0 {
			number = strings.TrimSpace(span.Text())
		}

		if id == "" || number == "" {
			return
		}
		groups = append(groups, models.Group{ID: id, Number: number})
	})

	return groups, nil
}

// ExtractStaff 从教职工列表页提取条目
// 页面结构的任一层缺失时返回KindStructure错误;列表为空不是错误
func (a *SSAU) ExtractStaff(body []byte) ([]models.StaffMember, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}

	container := doc.Find(staffContainerSelector).First()
	if container.Length() == 0 {
		return nil, models.StructureError("", "容器 'container'")
	}

	rows := container.Find(staffRowSelector)
	if rows.Length() < 2 {
		return nil, models.StructureError("", "第二个 'row' 块")
	}

	column := rows.Eq(1).Find(staffColumnSelector).First()
	if column.Length() == 0 {
		return nil, models.StructureError("", "目标列")
	}

	list := column.Find(staffListSelector).First()
	if list.Length() == 0 {
		return nil, models.StructureError("", "教职工列表")
	}

	var members []models.StaffMember
	list.Find(staffItemSelector).Each(func(_ int, item *goquery.Selection) {
		link := item.Find("a[href]").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		id := afterLast(href, "/")
		name := strings.TrimSpace(link.Text())
		if id == "" || name == "" {
			return
		}
		members = append(members, models.StaffMember{ID: id, Name: name})
	})

	return members, nil
}

// ExtractSchedule 从课表页提取时段
// 每个schedule__item对应一个时段:没有课程时为"无课"条目,否则为课程列表
func (a *SSAU) ExtractSchedule(body []byte) ([]models.ScheduleSlot, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}

	timetable := doc.Find(timetableSelector)
	if timetable.Length() == 0 {
		return nil, models.StructureError("", "课表容器 'timetable'")
	}

	items := timetable.
		Find(timetableCardSelector).
		Find(scheduleSelector).
		Find(scheduleItemsSelector)
	if items.Length() == 0 {
		return nil, models.StructureError("", "课表块 'schedule__items'")
	}

	slots := []models.ScheduleSlot{}
	items.Find(scheduleItemSelector).Each(func(_ int, item *goquery.Selection) {
		lessons := item.Find(lessonSelector)
		if lessons.Length() == 0 {
			slots = append(slots, models.EmptySlot())
			return
		}

		var slot models.ScheduleSlot
		lessons.Each(func(_ int, lesson *goquery.Selection) {
			info := lesson.Find(lessonWrapperSelector).Find(lessonInfoSelector)
			if info.Length() == 0 {
				return
			}
			slot = append(slot, models.ScheduleEntry{Lesson: extractLesson(info)})
		})

		if len(slot) == 0 {
			slot = models.EmptySlot()
		}
		slots = append(slots, slot)
	})

	return slots, nil
}

func extractLesson(info *goquery.Selection) *models.Lesson {
	lesson := &models.Lesson{
		Discipline: textOrNil(info.Find(disciplineSelector)),
		Place:      textOrNil(info.Find(placeSelector)),
		Teacher:    textOrNil(info.Find(teacherSelector)),
		Groups:     []models.LessonGroup{},
	}

	container := info.Find(lessonGroupsSelector)
	if container.Length() == 0 {
		return lesson
	}

	if label := container.Find(groupsLabelSelector).First(); label.Length() > 0 {
		if text := strings.TrimSpace(label.Text()); text != "" {
			lesson.Groups = append(lesson.Groups, models.LessonGroup{Label: text})
		}
		return lesson
	}

	container.Find(groupLinkSelector).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		lesson.Groups = append(lesson.Groups, models.LessonGroup{
			Number: strings.TrimSpace(link.Text()),
			Href:   href,
		})
	})
	return lesson
}

// textOrNil 去除空白后的文本,为空时返回nil
func textOrNil(sel *goquery.Selection) *string {
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return nil
	}
	return &text
}
