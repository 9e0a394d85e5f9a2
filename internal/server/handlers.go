package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/storage"
	"github.com/RecoveryAshes/ssaudir/internal/utils"
)

// 目录文件名,与爬取命令的默认输出一致
const (
	GroupsFile = "groups.json"
	StaffFile  = "staff.json"
)

// SearchLimit 每类搜索结果的最大条数
const SearchLimit = 40

type groupEntry struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

type staffEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type searchResponse struct {
	Groups []groupEntry `json:"groups"`
	Staff  []staffEntry `json:"staff"`
}

type scheduleMeta struct {
	For string `json:"for"`
}

type scheduleResponse struct {
	Meta scheduleMeta    `json:"meta"`
	Data json.RawMessage `json:"data"`
}

type refreshResponse struct {
	OK    bool     `json:"ok"`
	Files []string `json:"files"`
}

func (s *Server) readDirectory(name string) (models.Directory, error) {
	return storage.ReadDirectory(filepath.Join(s.config.DataDir, name))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	dir, err := s.readDirectory(GroupsFile)
	if err != nil {
		utils.Debugf("读取组目录失败: %v", err)
		writeError(w, http.StatusInternalServerError, GroupsFile+" not found")
		return
	}
	writeJSON(w, http.StatusOK, groupEntries(dir, ""))
}

func (s *Server) handleStaff(w http.ResponseWriter, r *http.Request) {
	dir, err := s.readDirectory(StaffFile)
	if err != nil {
		utils.Debugf("读取教职工目录失败: %v", err)
		writeError(w, http.StatusInternalServerError, StaffFile+" not found")
		return
	}
	writeJSON(w, http.StatusOK, staffEntries(dir, ""))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	resp := searchResponse{Groups: []groupEntry{}, Staff: []staffEntry{}}
	if q == "" {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	// 文件缺失按空目录处理
	groups, _ := s.readDirectory(GroupsFile)
	staff, _ := s.readDirectory(StaffFile)

	resp.Groups = limit(groupEntries(groups, q), SearchLimit)
	resp.Staff = limit(staffEntries(staff, q), SearchLimit)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("groupId")
	week := r.URL.Query().Get("week")

	if groupID != "" && week != "" {
		name := storage.ScheduleFileName(models.ScheduleTarget{GroupID: groupID, Week: week}, "")
		if data, err := storage.ReadSchedule(filepath.Join(s.config.DataDir, name)); err == nil {
			writeJSON(w, http.StatusOK, scheduleResponse{Meta: scheduleMeta{For: "specific"}, Data: data})
			return
		}
	}

	if data, err := storage.ReadSchedule(filepath.Join(s.config.DataDir, storage.GenericScheduleFile)); err == nil {
		writeJSON(w, http.StatusOK, scheduleResponse{Meta: scheduleMeta{For: "fallback"}, Data: data})
		return
	}

	writeError(w, http.StatusNotFound, "schedule file not found, call /api/refresh-schedule first")
}

func (s *Server) handleRefreshSchedule(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "schedule refresh is disabled")
		return
	}

	target, msg := parseRefreshTarget(r, s.config.AllowedHost)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RefreshTimeout)
	defer cancel()

	if _, err := s.refresher.Run(ctx, target); err != nil {
		utils.Error(err, "刷新课表失败")
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{"ok": false, "error": err.Error()})
		return
	}

	files, err := storage.ListScheduleFiles(s.config.DataDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{OK: true, Files: files})
}

// parseRefreshTarget 按 url > staffId > groupId 的优先级解析刷新目标
// 返回非空msg表示请求无效
func parseRefreshTarget(r *http.Request, allowedHost string) (models.ScheduleTarget, string) {
	query := r.URL.Query()
	week := strings.TrimSpace(query.Get("week"))
	if week == "" {
		week = "1"
	}

	switch {
	case query.Has("url"):
		rawURL := query.Get("url")
		if err := utils.HostAllowed(rawURL, allowedHost); err != nil {
			return models.ScheduleTarget{}, "invalid url parameter: " + err.Error()
		}
		return models.ScheduleTarget{URL: rawURL}, ""
	case query.Has("staffId"):
		staffID := strings.TrimSpace(query.Get("staffId"))
		if staffID == "" {
			return models.ScheduleTarget{}, "staffId required"
		}
		return models.ScheduleTarget{StaffID: staffID, Week: week}, ""
	case query.Has("groupId"):
		groupID := strings.TrimSpace(query.Get("groupId"))
		if groupID == "" {
			return models.ScheduleTarget{}, "groupId required"
		}
		return models.ScheduleTarget{GroupID: groupID, Week: week}, ""
	default:
		return models.ScheduleTarget{}, "provide url or staffId or groupId"
	}
}

// groupEntries 按id排序,q非空时只保留编号包含q的条目
func groupEntries(dir models.Directory, q string) []groupEntry {
	entries := []groupEntry{}
	for _, id := range dir.SortedIDs() {
		if q == "" || strings.Contains(strings.ToLower(dir[id]), q) {
			entries = append(entries, groupEntry{ID: id, Number: dir[id]})
		}
	}
	return entries
}

// staffEntries 按id排序,q非空时只保留姓名包含q的条目
func staffEntries(dir models.Directory, q string) []staffEntry {
	entries := []staffEntry{}
	for _, id := range dir.SortedIDs() {
		if q == "" || strings.Contains(strings.ToLower(dir[id]), q) {
			entries = append(entries, staffEntry{ID: id, Name: dir[id]})
		}
	}
	return entries
}

func limit[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
