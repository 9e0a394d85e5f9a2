package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/parsers"
)

const testRaspBase = "https://ssau.test/rasp"

func institutesPage(ids ...string) string {
	var b strings.Builder
	b.WriteString(`<div class="faculties">`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<div class="faculties__item"><a class="h3-text" href="/rasp/faculty/%s?tab=1">Institute %s</a></div>`, id, id)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func coursePage(groups map[string]string) string {
	var b strings.Builder
	for id, number := range groups {
		fmt.Fprintf(&b, `<a class="btn-text group-catalog__group" href="/rasp?groupId=%s"><span>%s</span></a>`, id, number)
	}
	return b.String()
}

func newTestGroupCrawler(t *testing.T, fetcher models.Fetcher) (*GroupCrawler, *countingPacer, *countingPacer) {
	t.Helper()
	cfg := GroupsConfig{
		BaseURL:     testRaspBase,
		FirstCourse: 1,
		LastCourse:  6,
		Output:      filepath.Join(t.TempDir(), "groups.json"),
	}
	gc := NewGroupCrawler(cfg, fetcher, parsers.NewSSAU())
	course, institute := &countingPacer{}, &countingPacer{}
	gc.SetPacers(course, institute)
	return gc, course, institute
}

func TestGroupCrawler_CourseURL(t *testing.T) {
	gc, _, _ := newTestGroupCrawler(t, newFakeFetcher())
	assert.Equal(t, "https://ssau.test/rasp/faculty/492430598?course=3", gc.CourseURL("492430598", 3))
}

func TestGroupCrawler_EndToEnd(t *testing.T) {
	fetcher := newFakeFetcher().
		page(testRaspBase, `<div class="faculties"><div class="faculties__item">`+
			`<a class="h3-text" href="/rasp/faculty/1?tab=1">Institute A</a></div></div>`).
		page(testRaspBase+"/faculty/1?course=1",
			`<a class="btn-text group-catalog__group" href="/rasp?groupId=42"><span>3401-000123D</span></a>`)

	gc, _, _ := newTestGroupCrawler(t, fetcher)

	institutes, err := gc.DiscoverInstitutes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Institute{{ID: "1", Name: "Institute A"}}, institutes)

	report, err := gc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Written)

	data, err := os.ReadFile(report.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"42\": \"3401-000123D\"\n}", string(data))
}

func TestGroupCrawler_NotFoundStopsInstitute(t *testing.T) {
	fetcher := newFakeFetcher().
		page(testRaspBase+"/faculty/7?course=1", coursePage(map[string]string{"1": "1101"})).
		page(testRaspBase+"/faculty/7?course=2", coursePage(map[string]string{"2": "2101"})).
		status(testRaspBase+"/faculty/7?course=3", 404).
		page(testRaspBase+"/faculty/7?course=4", coursePage(map[string]string{"4": "4101"}))

	gc, coursePacer, _ := newTestGroupCrawler(t, fetcher)
	report := models.NewRunReport(models.PipelineGroups, "")

	groups, err := gc.CrawlInstitute(context.Background(), models.Institute{ID: "7"}, &report.Stats)
	require.NoError(t, err)

	assert.Equal(t, models.Directory{"1": "1101", "2": "2101"}, groups)
	assert.Equal(t, 1, report.Stats.NotFound)
	assert.Equal(t, 2, report.Stats.PagesFetched)
	assert.Equal(t, 3, coursePacer.calls)
	assert.NotContains(t, fetcher.requested(), testRaspBase+"/faculty/7?course=4")
}

func TestGroupCrawler_OtherErrorsSkipCourse(t *testing.T) {
	fetcher := newFakeFetcher().
		status(testRaspBase+"/faculty/7?course=1", 500).
		page(testRaspBase+"/faculty/7?course=2", coursePage(map[string]string{"2": "2101"})).
		status(testRaspBase+"/faculty/7?course=3", 404)

	gc, _, _ := newTestGroupCrawler(t, fetcher)
	report := models.NewRunReport(models.PipelineGroups, "")

	groups, err := gc.CrawlInstitute(context.Background(), models.Institute{ID: "7"}, &report.Stats)
	require.NoError(t, err)

	assert.Equal(t, models.Directory{"2": "2101"}, groups)
	require.Len(t, report.Stats.Failures, 1)
	assert.Equal(t, 500, report.Stats.Failures[0].StatusCode)
	assert.Equal(t, models.KindHTTPStatus, report.Stats.Failures[0].Kind)
}

func TestGroupCrawler_LaterInstituteWins(t *testing.T) {
	fetcher := newFakeFetcher().
		page(testRaspBase, institutesPage("1", "2")).
		page(testRaspBase+"/faculty/1?course=1", coursePage(map[string]string{"10": "A", "11": "B"})).
		page(testRaspBase+"/faculty/2?course=1", coursePage(map[string]string{"11": "C"}))

	gc, _, institutePacer := newTestGroupCrawler(t, fetcher)
	report := models.NewRunReport(models.PipelineGroups, "")

	groups, err := gc.Collect(context.Background(), report)
	require.NoError(t, err)

	assert.Equal(t, models.Directory{"10": "A", "11": "C"}, groups)
	assert.Equal(t, 2, report.Stats.Units)
	assert.Equal(t, 2, institutePacer.calls)
}

func TestGroupCrawler_CourseOrder(t *testing.T) {
	fetcher := newFakeFetcher().page(testRaspBase, institutesPage("5"))
	for course := 1; course <= 6; course++ {
		fetcher.page(fmt.Sprintf("%s/faculty/5?course=%d", testRaspBase, course), "")
	}

	gc, _, _ := newTestGroupCrawler(t, fetcher)
	_, err := gc.Collect(context.Background(), models.NewRunReport(models.PipelineGroups, ""))
	require.NoError(t, err)

	requests := fetcher.requested()
	require.Len(t, requests, 7)
	for i, url := range requests[1:] {
		assert.Equal(t, fmt.Sprintf("%s/faculty/5?course=%d", testRaspBase, i+1), url)
	}
}

func TestGroupCrawler_DiscoveryFailureWritesNothing(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
	}{
		{"发现页返回500", newFakeFetcher().status(testRaspBase, 500)},
		{"发现页没有学院", newFakeFetcher().page(testRaspBase, "<html></html>")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc, _, _ := newTestGroupCrawler(t, tt.fetcher)

			report, err := gc.Run(context.Background())
			require.Error(t, err)
			assert.False(t, report.Written)
			assert.NotEmpty(t, report.Error)

			_, statErr := os.Stat(report.OutputFile)
			assert.True(t, os.IsNotExist(statErr))
		})
	}

	gc, _, _ := newTestGroupCrawler(t, newFakeFetcher().page(testRaspBase, "<p></p>"))
	_, err := gc.DiscoverInstitutes(context.Background())
	assert.ErrorIs(t, err, models.ErrNoInstitutes)
}

func TestGroupCrawler_Idempotent(t *testing.T) {
	fetcher := newFakeFetcher().
		page(testRaspBase, institutesPage("1", "2")).
		page(testRaspBase+"/faculty/1?course=1", coursePage(map[string]string{"10": "A", "12": "Б"})).
		page(testRaspBase+"/faculty/2?course=1", coursePage(map[string]string{"20": "C"}))

	gc, _, _ := newTestGroupCrawler(t, fetcher)

	_, err := gc.Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(gc.config.Output)
	require.NoError(t, err)

	_, err = gc.Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(gc.config.Output)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGroupCrawler_Canceled(t *testing.T) {
	fetcher := newFakeFetcher().page(testRaspBase, institutesPage("1"))
	gc, _, _ := newTestGroupCrawler(t, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := gc.Run(ctx)
	require.Error(t, err)
	assert.False(t, report.Written)
}

func TestGroupCrawler_WriteFailureIsNotAnError(t *testing.T) {
	fetcher := newFakeFetcher().
		page(testRaspBase, institutesPage("1")).
		page(testRaspBase+"/faculty/1?course=1", coursePage(map[string]string{"10": "A"}))

	gc, _, _ := newTestGroupCrawler(t, fetcher)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	gc.config.Output = filepath.Join(blocker, "groups.json")

	report, err := gc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Written)
	assert.Equal(t, 1, report.Stats.Entries)
	assert.NotEmpty(t, report.Error)
}
