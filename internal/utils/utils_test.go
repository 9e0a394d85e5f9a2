package utils

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostAllowed(t *testing.T) {
	assert.NoError(t, HostAllowed("https://ssau.ru/rasp?groupId=1", "ssau.ru"))
	assert.NoError(t, HostAllowed("https://cabinet.ssau.ru/x", "ssau.ru"))
	assert.NoError(t, HostAllowed("https://example.com", ""))
	assert.Error(t, HostAllowed("https://example.com/rasp", "ssau.ru"))
	assert.Error(t, HostAllowed("not a url", "ssau.ru"))
}

func TestSanitizeFilePart(t *testing.T) {
	assert.Equal(t, "42", SanitizeFilePart("42"))
	assert.Equal(t, "a_b_c-d", SanitizeFilePart("a/b.c-d"))
	assert.Equal(t, "____", SanitizeFilePart("груп"))

	long := SanitizeFilePart(strings.Repeat("x", 100))
	assert.Len(t, long, 64)
}

func TestHeaderValidator(t *testing.T) {
	hv := NewHeaderValidator()

	assert.NoError(t, hv.ValidateHeader("User-Agent", "Mozilla/5.0"))
	assert.Error(t, hv.ValidateHeader("Host", "ssau.ru"))
	assert.Error(t, hv.ValidateHeader("", "x"))
	assert.Error(t, hv.ValidateHeader("Bad Name", "x"))
	assert.Error(t, hv.ValidateHeader("X-Test", "line\nbreak"))
	assert.Error(t, hv.ValidateHeader("X-Test", strings.Repeat("a", MaxHeaderValueLength+1)))

	var verr *models.ValidationError
	err := hv.Validate(http.Header{"Content-Length": {"1"}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Content-Length", verr.HeaderName)
}

func TestHeaderRedactor(t *testing.T) {
	hr := NewHeaderRedactor()

	assert.True(t, hr.IsSensitiveHeader("Authorization"))
	assert.True(t, hr.IsSensitiveHeader("X-Api-Key"))
	assert.False(t, hr.IsSensitiveHeader("Accept"))

	redacted := hr.Redact(http.Header{
		"Authorization": {"Bearer abcdef"},
		"Cookie":        {"session=0123456789"},
		"Accept":        {"text/html"},
	})
	assert.Equal(t, "Bearer ***", redacted["Authorization"])
	assert.Equal(t, "sess***6789", redacted["Cookie"])
	assert.Equal(t, "text/html", redacted["Accept"])
}

func TestReporter_WriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	reporter := NewReporter(dir)
	require.True(t, reporter.Enabled())

	report := models.NewRunReport(models.PipelineGroups, "groups.json")
	report.Stats.Units = 2
	report.Stats.Entries = 10
	report.Written = true
	report.Finish()

	require.NoError(t, reporter.WriteReport(report))

	data, err := os.ReadFile(filepath.Join(dir, "groups_report.json"))
	require.NoError(t, err)

	var decoded models.RunReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.ID, decoded.ID)
	assert.Equal(t, 10, decoded.Stats.Entries)
}

func TestReporter_Disabled(t *testing.T) {
	reporter := NewReporter("")
	assert.False(t, reporter.Enabled())
	assert.NoError(t, reporter.WriteReport(models.NewRunReport(models.PipelineStaff, "staff.json")))
}
