package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecoveryAshes/ssaudir/internal/models"
)

// chdir 切换工作目录,避免读到仓库中的configs/config.yaml
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "https://ssau.ru/rasp", cfg.Groups.BaseURL)
	assert.Equal(t, 1, cfg.Groups.FirstCourse)
	assert.Equal(t, 6, cfg.Groups.LastCourse)
	assert.Equal(t, 500*time.Millisecond, cfg.Groups.CourseDelay)
	assert.Equal(t, time.Second, cfg.Groups.InstituteDelay)
	assert.Equal(t, "groups.json", cfg.Groups.Output)

	assert.Equal(t, "https://ssau.ru/staff", cfg.Staff.BaseURL)
	assert.Equal(t, 129, cfg.Staff.LastPage)
	assert.Equal(t, "staff.json", cfg.Staff.Output)

	assert.Equal(t, FetchModeStatic, cfg.Fetch.Mode)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 7, cfg.Schedule.DropEmptySlots)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Server.RefreshTimeout)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
staff:
  last_page: 10
  page_delay: 250ms
fetch:
  headers:
    X-Client: ssaudir
`), 0644))

	t.Setenv("SSAUDIR_GROUPS_OUTPUT", "out/groups.json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Staff.LastPage)
	assert.Equal(t, 250*time.Millisecond, cfg.Staff.PageDelay)
	assert.Equal(t, "out/groups.json", cfg.Groups.Output)
	assert.Equal(t, "ssaudir", cfg.Fetch.Headers["x-client"])
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  mode: turbo\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)

	var cfgErr *models.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestHeaderManager(t *testing.T) {
	hm, err := NewHeaderManager(
		map[string]string{"accept": "text/html", "x-token": "secret-value-123"},
		[]string{"Accept: application/json", "X-Extra: 1"},
	)
	require.NoError(t, err)

	headers, err := hm.GetHeaders()
	require.NoError(t, err)

	assert.Equal(t, DefaultUserAgent, headers.Get("User-Agent"))
	assert.Equal(t, "gzip, br", headers.Get("Accept-Encoding"))
	assert.Equal(t, "application/json", headers.Get("Accept"))
	assert.Equal(t, "1", headers.Get("X-Extra"))

	// 返回副本,修改不影响后续请求
	headers.Set("Accept", "changed")
	again, _ := hm.GetHeaders()
	assert.Equal(t, "application/json", again.Get("Accept"))

	assert.Equal(t, "secr***-123", hm.GetSafeHeaders()["X-Token"])
}

func TestHeaderManager_Invalid(t *testing.T) {
	_, err := NewHeaderManager(nil, []string{"no-colon"})
	assert.Error(t, err)

	_, err = NewHeaderManager(nil, []string{"Host: evil.example"})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = NewHeaderManager(map[string]string{"X-Bad": "line\nbreak"}, nil)
	assert.Error(t, err)
}
