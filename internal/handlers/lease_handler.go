package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"property-backend/internal/services"
	"property-backend/pkg/utils"
)

type LeaseHandler struct {
	Service *services.LeaseService
	Reports *services.ReportService
}

func NewLeaseHandler(s *services.LeaseService, reports *services.ReportService) *LeaseHandler {
	return &LeaseHandler{Service: s, Reports: reports}
}

func (h *LeaseHandler) LeaseDetails(w http.ResponseWriter, r *http.Request) {
	landlord, ok := landlordID(w, r)
	if !ok {
		return
	}
	leaseID, ok := pathID(w, r, "lease_id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	details, err := h.Service.LeaseDetails(ctx, landlord, leaseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, details)
}

// StatementPDF downloads the lease statement
func (h *LeaseHandler) StatementPDF(w http.ResponseWriter, r *http.Request) {
	landlord, ok := landlordID(w, r)
	if !ok {
		return
	}
	leaseID, ok := pathID(w, r, "lease_id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	details, err := h.Service.LeaseDetails(ctx, landlord, leaseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pdfData, err := h.Reports.LeaseStatementPDF(details)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("lease_%d_statement.pdf", leaseID)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Write(pdfData)
}

type TenantHandler struct {
	Service *services.TenantService
}

func NewTenantHandler(s *services.TenantService) *TenantHandler {
	return &TenantHandler{Service: s}
}

func (h *TenantHandler) Reliability(w http.ResponseWriter, r *http.Request) {
	landlord, ok := landlordID(w, r)
	if !ok {
		return
	}
	tenantID, ok := pathID(w, r, "tenant_id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := h.Service.Reliability(ctx, landlord, tenantID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}
