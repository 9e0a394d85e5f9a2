package models

import "sort"

// GroupNumberPlaceholder 组链接中缺少编号元素时使用的占位文本
const GroupNumberPlaceholder = "Номер не найден"

// Institute 学院(一级组织单元)
// 仅用于驱动组爬取循环,不单独持久化
type Institute struct {
	ID   string `json:"id"`   // 从href路径中提取的标识
	Name string `json:"name"` // 链接文本
}

// Group 学术组
type Group struct {
	ID     string `json:"id"`     // href中groupId=之后的部分
	Number string `json:"number"` // 显示编号,如 "3401-000123D"
}

// StaffMember 教职工条目
type StaffMember struct {
	ID   string `json:"id"`   // href最后一段路径
	Name string `json:"name"` // 显示姓名
}

// Directory 扁平的 id -> 值 映射
// 同一id重复写入时后写覆盖先写
type Directory map[string]string

// NewDirectory 创建空目录
func NewDirectory() Directory {
	return make(Directory)
}

// Set 写入一个条目,空id或空值被忽略
// 返回: 条目是否被写入
func (d Directory) Set(id, value string) bool {
	if id == "" || value == "" {
		return false
	}
	d[id] = value
	return true
}

// Merge 将other合并到d中(键覆盖并集)
func (d Directory) Merge(other Directory) {
	for id, value := range other {
		d[id] = value
	}
}

// SortedIDs 返回按字典序排序的全部id
func (d Directory) SortedIDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GroupsDirectory 将组列表折叠为目录
func GroupsDirectory(groups []Group) Directory {
	dir := NewDirectory()
	for _, g := range groups {
		dir.Set(g.ID, g.Number)
	}
	return dir
}

// StaffDirectory 将教职工列表折叠为目录
func StaffDirectory(members []StaffMember) Directory {
	dir := NewDirectory()
	for _, m := range members {
		dir.Set(m.ID, m.Name)
	}
	return dir
}
