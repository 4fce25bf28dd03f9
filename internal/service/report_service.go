package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"iris/internal/apperr"
	"iris/internal/models"
	"iris/internal/repository"
	"iris/pkg/validator"
)

// Report kinds
const (
	ReportChallenges = "challenges"
	ReportIdeas      = "ideas"
	ReportGrassroot  = "grassroot"
)

const (
	reportNA          = "N/A"
	reportGeneral     = "General"
	reportIdeaExcerpt = 100

	// ReportTimeLayout formats submission and creation timestamps
	ReportTimeLayout = "2006-01-02 15:04:05"
)

// Report is a rendered CSV export
type Report struct {
	FileName string
	Content  []byte
	Rows     int
}

// ReportService renders the CSV exports
type ReportService struct {
	store repository.Store
	files FileStore
}

// NewReportService creates a new report service. files may be nil when
// archiving is not needed.
func NewReportService(store repository.Store, files FileStore) *ReportService {
	return &ReportService{store: store, files: files}
}

// ParseReportRange validates the export parameters and returns the half-open
// range [from, to+1 day)
func ParseReportRange(kind, fromDate, toDate string) (time.Time, time.Time, error) {
	if strings.TrimSpace(kind) == "" {
		return time.Time{}, time.Time{}, apperr.Validation("report_type is required")
	}
	from, err := validator.ParseDate("from_date", fromDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation(err.Error())
	}
	to, err := validator.ParseDate("to_date", toDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation(err.Error())
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperr.Validation("to_date must not be before from_date")
	}
	return from, to.AddDate(0, 0, 1), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(validator.DateLayout)
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

// Export renders the report of kind for the dates fromDate..toDate inclusive
func (s *ReportService) Export(ctx context.Context, kind, fromDate, toDate string) (*Report, error) {
	from, to, err := ParseReportRange(kind, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	reports := s.store.Repos().Reports

	var records [][]string
	switch kind {
	case ReportChallenges:
		rows, err := reports.ChallengeRows(ctx, from, to)
		if err != nil {
			return nil, err
		}
		records = challengeRecords(rows)
	case ReportIdeas:
		rows, err := reports.IdeaRows(ctx, from, to)
		if err != nil {
			return nil, err
		}
		records = ideaRecords(rows)
	case ReportGrassroot:
		rows, err := reports.GrassrootRows(ctx, from, to)
		if err != nil {
			return nil, err
		}
		records = grassrootRecords(rows)
	default:
		return nil, apperr.Validation(fmt.Sprintf("invalid report_type '%s': must be challenges, ideas or grassroot", kind))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}

	report := &Report{
		FileName: fmt.Sprintf("%s_report_%s_to_%s.csv", kind, fromDate, toDate),
		Content:  buf.Bytes(),
		Rows:     len(records) - 1,
	}
	slog.Info("Report exported", "report_type", kind, "from", fromDate, "to", toDate, "rows", report.Rows)
	return report, nil
}

// Archive renders a report and uploads it to the file store, returning its reference
func (s *ReportService) Archive(ctx context.Context, kind, fromDate, toDate string) (string, error) {
	if s.files == nil {
		return "", apperr.Precondition("file storage is not configured")
	}
	report, err := s.Export(ctx, kind, fromDate, toDate)
	if err != nil {
		return "", err
	}
	ref, err := s.files.Put(ctx, "reports/"+report.FileName, bytes.NewReader(report.Content), int64(len(report.Content)), "text/csv")
	if err != nil {
		return "", fmt.Errorf("failed to archive report: %w", err)
	}
	slog.Info("Report archived", "ref", ref)
	return ref, nil
}

func challengeRecords(rows []models.ChallengeReportRow) [][]string {
	out := [][]string{{"Title", "Status", "Start Date", "End Date", "Created By", "Target Audience", "Visibility"}}
	for _, r := range rows {
		out = append(out, []string{
			r.Title,
			string(r.Status),
			formatDate(r.StartDate),
			formatDate(r.EndDate),
			orDefault(r.CreatedBy, reportNA),
			string(r.TargetAudience),
			string(r.Visibility),
		})
	}
	return out
}

func ideaRecords(rows []models.IdeaReportRow) [][]string {
	out := [][]string{{"Title", "Submitter", "Challenge", "Status", "Submission Date", "Sharing Scope"}}
	for _, r := range rows {
		out = append(out, []string{
			r.Title,
			orDefault(r.Submitter, reportNA),
			orDefault(r.Challenge, reportGeneral),
			string(r.Status),
			r.SubmissionDate.Format(ReportTimeLayout),
			string(r.SharingScope),
		})
	}
	return out
}

func grassrootRecords(rows []models.GrassrootReportRow) [][]string {
	out := [][]string{{"Ideator", "Category", "Subcategory", "Status", "Created At", "Proposed Idea"}}
	for _, r := range rows {
		out = append(out, []string{
			r.Ideator,
			orDefault(r.Category, reportNA),
			orDefault(r.Subcategory, reportNA),
			string(r.Status),
			r.CreatedAt.Format(ReportTimeLayout),
			truncate(r.ProposedIdea, reportIdeaExcerpt),
		})
	}
	return out
}
