package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"property-backend/internal/archive"
	"property-backend/internal/ledger"
	"property-backend/internal/portfolio"
	"property-backend/internal/services"
	"property-backend/internal/timeutil"
	"property-backend/pkg/utils"
)

// ArchiveKeyHeader carries the object key when an export was archived
const ArchiveKeyHeader = "X-Archive-Key"

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: service}
}

// parseSummaryQuery reads from, to (YYYY-MM-DD, both optional) and property_id
func parseSummaryQuery(q url.Values) (services.SummaryQuery, error) {
	var out services.SummaryQuery
	if v := q.Get("from"); v != "" {
		d, err := timeutil.ParseDate(v)
		if err != nil {
			return out, ledger.ErrInvalidDate
		}
		out.Range.Start = d
	}
	if v := q.Get("to"); v != "" {
		d, err := timeutil.ParseDate(v)
		if err != nil {
			return out, ledger.ErrInvalidDate
		}
		out.Range.End = d
	}
	if !out.Range.Start.IsZero() && !out.Range.End.IsZero() && out.Range.End.Before(out.Range.Start) {
		return out, ledger.ErrInvalidDate
	}
	if v := q.Get("property_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id < 0 {
			return out, fmt.Errorf("%w: property_id", errBadQuery)
		}
		out.PropertyID = id
	}
	return out, nil
}

func (h *ReportHandler) summary(ctx context.Context, w http.ResponseWriter, r *http.Request) (int, services.SummaryQuery, portfolio.Summary, bool) {
	landlord, ok := landlordID(w, r)
	if !ok {
		return 0, services.SummaryQuery{}, portfolio.Summary{}, false
	}
	q, err := parseSummaryQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return 0, q, portfolio.Summary{}, false
	}
	s, err := h.Service.Summary(ctx, landlord, q)
	if err != nil {
		writeError(w, r, err)
		return 0, q, portfolio.Summary{}, false
	}
	return landlord, q, s, true
}

// GetSummary handles GET /api/reports/summary
func (h *ReportHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	_, _, s, ok := h.summary(ctx, w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, s)
}

// GetSummaryCSV handles GET /api/reports/summary/csv
func (h *ReportHandler) GetSummaryCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	landlord, q, s, ok := h.summary(ctx, w, r)
	if !ok {
		return
	}
	csvData, err := h.Service.SummaryCSV(s)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.download(ctx, w, r, landlord, services.ReportFileName(q, "csv"), "text/csv", csvData)
}

// GetSummaryPDF handles GET /api/reports/summary/pdf
func (h *ReportHandler) GetSummaryPDF(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	landlord, q, s, ok := h.summary(ctx, w, r)
	if !ok {
		return
	}
	pdfData, err := h.Service.SummaryPDF(s)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.download(ctx, w, r, landlord, services.ReportFileName(q, "pdf"), "application/pdf", pdfData)
}

// GetStatementsZip handles GET /api/reports/statements.zip: one statement PDF
// per lease of the landlord
func (h *ReportHandler) GetStatementsZip(w http.ResponseWriter, r *http.Request) {
	landlord, ok := landlordID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	zipData, err := h.Service.StatementsZip(ctx, landlord)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("lease_statements_%s.zip", timeutil.Now().Format(timeutil.DateLayout))
	h.download(ctx, w, r, landlord, filename, "application/zip", zipData)
}

// download writes the export as an attachment. With archive=1 it is also
// uploaded first. Asking for an archive that is not configured is a 503; an
// upload failure is logged and the download still happens.
func (h *ReportHandler) download(ctx context.Context, w http.ResponseWriter, r *http.Request, landlord int, filename, contentType string, data []byte) {
	if r.URL.Query().Get("archive") == "1" {
		key, err := h.Service.ArchiveReport(ctx, landlord, filename, contentType, data)
		switch {
		case errors.Is(err, archive.ErrNotConfigured):
			writeError(w, r, err)
			return
		case err != nil:
			log.Printf("[Reports] Archive of %s for landlord %d failed: %v", filename, landlord, err)
		default:
			w.Header().Set(ArchiveKeyHeader, key)
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Write(data)
}
