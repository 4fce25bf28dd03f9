package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"iris/internal/apperr"
	"iris/internal/models"
	"iris/internal/testutil"
	"iris/pkg/validator"
)

func dateRange() (string, string) {
	now := time.Now()
	return now.AddDate(0, 0, -1).Format(validator.DateLayout), now.Format(validator.DateLayout)
}

func parseCSV(t *testing.T, content []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	return records
}

func TestExportGrassroot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	long := strings.Repeat("a", 120)
	grassroots := NewGrassrootService(env.store, env.resolver)
	in := grassrootInput(long)
	in.CategoryID = env.fx.Category.ID
	if _, err := grassroots.Submit(ctx, env.fx.Ideator, in); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	from, to := dateRange()
	report, err := NewReportService(env.store, nil).Export(ctx, ReportGrassroot, from, to)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if want := "grassroot_report_" + from + "_to_" + to + ".csv"; report.FileName != want {
		t.Errorf("file name = %q, want %q", report.FileName, want)
	}

	records := parseCSV(t, report.Content)
	if len(records) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(records))
	}
	if got := strings.Join(records[0], ","); got != "Ideator,Category,Subcategory,Status,Created At,Proposed Idea" {
		t.Errorf("header = %q", got)
	}
	row := records[1]
	if row[0] != "Ian Ideator" || row[1] != "Process" || row[2] != "N/A" || row[3] != string(models.GrassrootSubmittedRM) {
		t.Errorf("row = %v", row)
	}
	if _, err := time.Parse(ReportTimeLayout, row[4]); err != nil {
		t.Errorf("created at %q is not a timestamp: %v", row[4], err)
	}
	if len(row[5]) != 100 {
		t.Errorf("proposed idea length = %d, want 100", len(row[5]))
	}
}

func TestExportChallengesAndIdeas(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := createLive(t, env, "Exported")
	ideas := NewIdeaService(env.store, nil, nil, 0)
	if _, err := ideas.SubmitIdea(ctx, env.fx.Ideator, c.ID, ideaInput("Row"), nil); err != nil {
		t.Fatalf("SubmitIdea failed: %v", err)
	}

	svc := NewReportService(env.store, nil)
	from, to := dateRange()

	report, err := svc.Export(ctx, ReportChallenges, from, to)
	if err != nil {
		t.Fatalf("Export challenges failed: %v", err)
	}
	records := parseCSV(t, report.Content)
	if len(records) != 2 || records[1][0] != "Exported" || records[1][4] != "Olivia Owner" || records[1][1] != "LIVE" {
		t.Errorf("challenge records = %v", records)
	}

	report, err = svc.Export(ctx, ReportIdeas, from, to)
	if err != nil {
		t.Fatalf("Export ideas failed: %v", err)
	}
	records = parseCSV(t, report.Content)
	if got := strings.Join(records[0], ","); got != "Title,Submitter,Challenge,Status,Submission Date,Sharing Scope" {
		t.Errorf("header = %q", got)
	}
	if len(records) != 2 || records[1][1] != "Ian Ideator" || records[1][2] != "Exported" {
		t.Errorf("idea records = %v", records)
	}
	if _, err := time.Parse(ReportTimeLayout, records[1][4]); err != nil {
		t.Errorf("submission date %q is not a timestamp: %v", records[1][4], err)
	}

	// the range excludes everything after to_date
	old := time.Now().AddDate(0, 0, -10).Format(validator.DateLayout)
	older := time.Now().AddDate(0, 0, -5).Format(validator.DateLayout)
	report, err = svc.Export(ctx, ReportIdeas, old, older)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if report.Rows != 0 {
		t.Errorf("rows = %d, want 0", report.Rows)
	}
}

func TestExportValidation(t *testing.T) {
	svc := NewReportService(testutil.NewMemStore(), nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		kind     string
		from, to string
	}{
		{"unknown kind", "payroll", "2025-01-01", "2025-01-31"},
		{"missing kind", "", "2025-01-01", "2025-01-31"},
		{"missing from", ReportIdeas, "", "2025-01-31"},
		{"bad format", ReportIdeas, "01/01/2025", "2025-01-31"},
		{"reversed", ReportIdeas, "2025-02-01", "2025-01-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Export(ctx, tt.kind, tt.from, tt.to)
			assertKind(t, err, apperr.KindValidation)
		})
	}
}

func TestParseReportRangeIsHalfOpen(t *testing.T) {
	from, to, err := ParseReportRange(ReportIdeas, "2025-03-01", "2025-03-01")
	if err != nil {
		t.Fatalf("ParseReportRange failed: %v", err)
	}
	if to.Sub(from) != 24*time.Hour {
		t.Errorf("range = %s..%s, want one day", from, to)
	}
}

func TestArchiveReport(t *testing.T) {
	store := testutil.NewMemStore()
	files := testutil.NewFakeFileStore()
	from, to := dateRange()

	ref, err := NewReportService(store, files).Archive(context.Background(), ReportChallenges, from, to)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if !strings.HasPrefix(ref, "reports/challenges_report_") {
		t.Errorf("ref = %q", ref)
	}
	if !bytes.HasPrefix(files.Objects[ref], []byte("Title,Status")) {
		t.Errorf("archived content = %q", files.Objects[ref])
	}

	_, err = NewReportService(store, nil).Archive(context.Background(), ReportChallenges, from, to)
	assertKind(t, err, apperr.KindPreconditionFailed)
}
