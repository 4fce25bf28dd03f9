package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"iris/internal/middleware"
	"iris/internal/service"
)

// ReportHandler serves CSV report downloads
type ReportHandler struct {
	reports *service.ReportService
	auditMw *middleware.AuditMiddleware
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService, auditMw *middleware.AuditMiddleware) *ReportHandler {
	return &ReportHandler{reports: reports, auditMw: auditMw}
}

// Export streams a CSV report for a date range
// @Summary Export report
// @Description Dates are YYYY-MM-DD and inclusive
// @Tags Reports
// @Produce text/csv
// @Security BearerAuth
// @Param report_type query string true "Report type" Enums(challenges, ideas, grassroot)
// @Param from_date query string true "First day"
// @Param to_date query string true "Last day"
// @Success 200 {file} file
// @Failure 400 {object} map[string]string "Invalid report type or dates"
// @Router /reports/export [get]
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := q.Get("report_type")

	report, err := h.reports.Export(r.Context(), kind, q.Get("from_date"), q.Get("to_date"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	userID, _ := middleware.GetUserID(r)
	h.auditMw.LogAction(r, userID, AuditActionReportExport, "reports",
		fmt.Sprintf("%s report, %d rows", kind, report.Rows), http.StatusOK)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.Content); err != nil {
		slog.Error("Failed to write report", "error", err)
	}
}
