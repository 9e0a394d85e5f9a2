package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecoveryAshes/ssaudir/internal/models"
	"github.com/RecoveryAshes/ssaudir/internal/parsers"
)

const testStaffBase = "https://ssau.test/staff"

func staffListPage(items ...string) string {
	page := `<div class="container"><div class="row"></div><div class="row">` +
		`<div class="col-12 col-md-8 order-2 order-md-1"><ul class="list-group">`
	for _, item := range items {
		page += item
	}
	return page + `</ul></div></div></div>`
}

func staffItem(id, name string) string {
	return fmt.Sprintf(`<li class="list-group-item list-group-item-action"><a href="/staff/%s">%s</a></li>`, id, name)
}

func newTestStaffCrawler(t *testing.T, fetcher models.Fetcher, adapter models.PageAdapter, last int) (*StaffCrawler, *countingPacer) {
	t.Helper()
	cfg := StaffConfig{
		BaseURL:   testStaffBase,
		FirstPage: 1,
		LastPage:  last,
		Output:    filepath.Join(t.TempDir(), "staff.json"),
	}
	sc := NewStaffCrawler(cfg, fetcher, adapter)
	pacer := &countingPacer{}
	sc.SetPacer(pacer)
	return sc, pacer
}

func TestStaffCrawler_EndToEnd(t *testing.T) {
	fetcher := newFakeFetcher().page(testStaffBase+"?page=1", staffListPage(staffItem("555", "Ivanov I.I.")))
	sc, _ := newTestStaffCrawler(t, fetcher, parsers.NewSSAU(), 1)

	report, err := sc.Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.Written)

	data, err := os.ReadFile(report.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"555\": \"Ivanov I.I.\"\n}", string(data))
}

func TestStaffCrawler_FailuresContinue(t *testing.T) {
	fetcher := newFakeFetcher().
		page(testStaffBase+"?page=1", staffListPage(staffItem("1", "Первый"))).
		status(testStaffBase+"?page=2", 404).
		status(testStaffBase+"?page=3", 503).
		page(testStaffBase+"?page=4", `<div class="container wide"></div>`).
		page(testStaffBase+"?page=5", `<div class="container"><div class="row"></div></div>`).
		page(testStaffBase+"?page=6", staffListPage(staffItem("6", "Шестой"), staffItem("1", "Первый-2")))

	sc, pacer := newTestStaffCrawler(t, fetcher, parsers.NewSSAU(), 6)
	report := models.NewRunReport(models.PipelineStaff, "")

	staff, err := sc.Collect(context.Background(), report)
	require.NoError(t, err)

	assert.Equal(t, models.Directory{"1": "Первый-2", "6": "Шестой"}, staff)
	assert.Equal(t, 6, pacer.calls)
	assert.Equal(t, 2, report.Stats.PagesFetched)
	assert.Equal(t, 4, report.Stats.PagesSkipped)

	kinds := make([]models.ErrorKind, 0, len(report.Stats.Failures))
	for _, f := range report.Stats.Failures {
		kinds = append(kinds, f.Kind)
	}
	assert.Equal(t, []models.ErrorKind{
		models.KindNotFound,
		models.KindHTTPStatus,
		models.KindStructure,
		models.KindStructure,
	}, kinds)
}

func TestStaffCrawler_PageOrder(t *testing.T) {
	fetcher := newFakeFetcher()
	sc, _ := newTestStaffCrawler(t, fetcher, parsers.NewSSAU(), 4)

	_, err := sc.Collect(context.Background(), models.NewRunReport(models.PipelineStaff, ""))
	require.NoError(t, err)

	assert.Equal(t, []string{
		testStaffBase + "?page=1",
		testStaffBase + "?page=2",
		testStaffBase + "?page=3",
		testStaffBase + "?page=4",
	}, fetcher.requested())
}

// panickingAdapter 第一次解析时panic
type panickingAdapter struct {
	parsers.SSAU
	calls int
}

func (a *panickingAdapter) ExtractStaff(body []byte) ([]models.StaffMember, error) {
	a.calls++
	if a.calls == 1 {
		panic("unexpected markup")
	}
	return a.SSAU.ExtractStaff(body)
}

func TestStaffCrawler_RecoversFromPanic(t *testing.T) {
	page := staffListPage(staffItem("2", "Второй"))
	fetcher := newFakeFetcher().
		page(testStaffBase+"?page=1", page).
		page(testStaffBase+"?page=2", page)

	sc, _ := newTestStaffCrawler(t, fetcher, &panickingAdapter{}, 2)
	report := models.NewRunReport(models.PipelineStaff, "")

	staff, err := sc.Collect(context.Background(), report)
	require.NoError(t, err)

	assert.Equal(t, models.Directory{"2": "Второй"}, staff)
	require.Len(t, report.Stats.Failures, 1)
	assert.Equal(t, models.KindParse, report.Stats.Failures[0].Kind)
}

func TestStaffCrawler_AllPagesFailStillWrites(t *testing.T) {
	sc, _ := newTestStaffCrawler(t, newFakeFetcher(), parsers.NewSSAU(), 3)

	report, err := sc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Written)

	data, err := os.ReadFile(report.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestStaffCrawler_Canceled(t *testing.T) {
	sc, _ := newTestStaffCrawler(t, newFakeFetcher(), parsers.NewSSAU(), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := sc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, report.Written)
}
