package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/api"
	"github.com/de-tools/job-pulse/pkg/models/store"
	"github.com/de-tools/job-pulse/pkg/store/duckdb"
	"github.com/de-tools/job-pulse/pkg/store/duckdb/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var fixedNow = time.Date(2024, 9, 30, 9, 0, 0, 0, time.UTC)

type fixture struct {
	dir    string
	config string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func writeFile(t *testing.T, path, content string) {
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupFixture(t *testing.T, title, extra string) *fixture {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hk.csv"), "run_date,jobs\n2024-09-01,100\n2024-09-02,150\n")
	writeFile(t, filepath.Join(dir, "uk.csv"), "run_date,jobs\n2024-09-01,200\nbroken,1\n")

	config := filepath.Join(dir, "publish.yaml")
	writeFile(t, config, fmt.Sprintf(`title: %q
space: "OPS"
baseline: 1899206
author: "scheduler"
history_db: %q
%s
sources:
  - tag: HK
    path: %q
    columns:
      date: run_date
      value: jobs
  - tag: UK
    path: %q
    columns:
      date: run_date
      value: jobs
`, title, filepath.Join(dir, "history.db"), extra, filepath.Join(dir, "hk.csv"), filepath.Join(dir, "uk.csv")))

	return &fixture{
		dir:    dir,
		config: config,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
}

func (f *fixture) run(args ...string) error {
	cli := NewCLI(Options{
		Output: f.stdout,
		Errors: f.stderr,
		Now:    func() time.Time { return fixedNow },
	})
	cli.SetArgs(args)
	return cli.ExecuteContext(context.Background())
}

func TestPublish_Simulate(t *testing.T) {
	// Given
	f := setupFixture(t, "Cron Job Count - September", "")
	body := filepath.Join(f.dir, "body.xhtml")
	xlsx := filepath.Join(f.dir, "report.xlsx")

	// When
	err := f.run("publish", "--config", f.config, "--simulate", "--body", body, "--xlsx", xlsx)

	// Then
	require.NoError(t, err)
	out := f.stdout.String()
	assert.Contains(t, out, "Cron Job Count - September (monthly report)")
	assert.Contains(t, out, "Action: simulate")
	assert.Contains(t, out, "=== Top 4 Peak Days - September 2024 ===")
	assert.Contains(t, out, "SIMULATED -> DONE")

	written, err := os.ReadFile(body)
	require.NoError(t, err)
	assert.Contains(t, string(written), "Generated 2024-09-30 09:00 UTC by scheduler")

	wb, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer wb.Close()
	sheets := wb.GetSheetList()
	require.NotEmpty(t, sheets)
	assert.Equal(t, "1 Daily Job Totals", sheets[0])
	header, err := wb.GetCellValue(sheets[0], "A3")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)
	total, err := wb.GetCellValue(sheets[0], "B4")
	require.NoError(t, err)
	assert.Equal(t, "300", total)
}

func TestPublish_TestMarkerDaily(t *testing.T) {
	f := setupFixture(t, "CIReleaseNote_daily", "")

	err := f.run("publish", "--config", f.config, "--simulate", "--test", "--source", "HK")

	require.NoError(t, err)
	out := f.stdout.String()
	assert.Contains(t, out, "[TEST] CIReleaseNote_daily (daily report)")
	assert.Contains(t, out, "[peaks-suppressed]")
	assert.NotContains(t, out, "Jobs by Source")
}

func TestPublish_UnknownSource(t *testing.T) {
	f := setupFixture(t, "Cron Job Count", "")
	err := f.run("publish", "--config", f.config, "--simulate", "--source", "SG")
	assert.ErrorContains(t, err, `source "SG" is not configured`)
}

func TestPublish_RequiresConfig(t *testing.T) {
	f := setupFixture(t, "Cron Job Count", "")
	err := f.run("publish")
	assert.ErrorContains(t, err, `required flag(s) "config" not set`)
}

func TestPublish_UpdatesRemoteDocumentAndRecordsHistory(t *testing.T) {
	// Given: a document store holding version 5 of the page
	var updated api.Content
	var authHeader string
	wikiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		switch r.Method {
		case http.MethodGet:
			_, _ = fmt.Fprint(w, `{"results":[{"id":"123","type":"page","title":"Cron Job Count","version":{"number":5}}]}`)
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&updated)
			_, _ = fmt.Fprint(w, `{"id":"123","type":"page","title":"Cron Job Count","version":{"number":6}}`)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer wikiSrv.Close()

	dir := t.TempDir()
	credentials := filepath.Join(dir, "credentials")
	writeFile(t, credentials, "[wiki]\ntoken = pat-123\n")

	f := setupFixture(t, "Cron Job Count", fmt.Sprintf("credentials_file: %q\ndocument_store:\n  url: %q\n", credentials, wikiSrv.URL))

	// When
	err := f.run("publish", "--config", f.config)

	// Then
	require.NoError(t, err)
	assert.Equal(t, "Bearer pat-123", authHeader)
	require.NotNil(t, updated.Version)
	assert.Equal(t, 6, updated.Version.Number)
	assert.Contains(t, f.stdout.String(), "Document: 123 (version 6)")

	// And the run is listed by the history command
	f.stdout.Reset()
	require.NoError(t, f.run("history", "--db", filepath.Join(f.dir, "history.db"), "--title", "Cron Job Count"))
	assert.Contains(t, f.stdout.String(), "published")
	assert.Contains(t, f.stdout.String(), "update")
	assert.Contains(t, f.stdout.String(), "v6")
}

func TestPublish_WriteRejected(t *testing.T) {
	wikiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = fmt.Fprint(w, `[]`)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = fmt.Fprint(w, `{"message":"not permitted"}`)
	}))
	defer wikiSrv.Close()

	dir := t.TempDir()
	credentials := filepath.Join(dir, "credentials")
	writeFile(t, credentials, "[wiki]\nusername = bot\ntoken = secret\n")

	f := setupFixture(t, "Cron Job Count", fmt.Sprintf("credentials_file: %q\ndocument_store:\n  url: %q\n", credentials, wikiSrv.URL))

	err := f.run("publish", "--config", f.config)
	assert.ErrorContains(t, err, "publish failed")
	assert.ErrorContains(t, err, "403")
	assert.Contains(t, f.stdout.String(), "FAILED")
}

func TestHistory_Empty(t *testing.T) {
	f := setupFixture(t, "Cron Job Count", "")
	err := f.run("history", "--db", filepath.Join(f.dir, "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, f.stdout.String(), "No publish history found.")
}

func TestHistory_ListsRecords(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: dbPath})
	require.NoError(t, err)
	s, err := history.NewStore(db)
	require.NoError(t, err)
	msg := "document lookup failed: 503"
	require.NoError(t, s.Record(context.Background(), store.PublishRecord{
		RunID: "run-1", Title: "Cron Job Count", Space: "OPS", Mode: "monthly",
		Action: "none", Status: "failed", Error: &msg, PublishedAt: fixedNow,
	}))
	require.NoError(t, db.Close())

	f := &fixture{dir: dir, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	require.NoError(t, f.run("history", "--db", dbPath, "--limit", "5"))

	out := f.stdout.String()
	assert.True(t, strings.HasPrefix(out, "2024-09-30 09:00:00"))
	assert.Contains(t, out, "error: document lookup failed: 503")
}
