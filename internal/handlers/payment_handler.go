package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"property-backend/internal/ledger"
	"property-backend/internal/models"
	"property-backend/internal/money"
	"property-backend/internal/services"
	"property-backend/internal/timeutil"
	"property-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type PaymentHandler struct {
	Service *services.PaymentService
}

func NewPaymentHandler(s *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: s}
}

// parsePaymentRequest turns raw form values into typed ones. The first bad
// field decides the error.
func parsePaymentRequest(req models.RecordPaymentRequest) (services.NewPayment, error) {
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return services.NewPayment{}, ledger.ErrInvalidAmount
	}
	date, err := timeutil.ParseDate(strings.TrimSpace(req.PaymentDate))
	if err != nil {
		return services.NewPayment{}, ledger.ErrInvalidDate
	}
	method, err := ledger.ParseMethod(req.PaymentMethod)
	if err != nil {
		return services.NewPayment{}, err
	}
	paymentType := ledger.TypeRent
	if req.PaymentType != "" {
		if paymentType, err = ledger.ParseType(req.PaymentType); err != nil {
			return services.NewPayment{}, err
		}
	}
	return services.NewPayment{
		Amount:      amount,
		PaymentDate: date,
		Method:      method,
		Type:        paymentType,
		Notes:       req.Notes,
	}, nil
}

func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	landlord, ok := landlordID(w, r)
	if !ok {
		return
	}
	leaseID, ok := pathID(w, r, "lease_id")
	if !ok {
		return
	}

	var req models.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in, err := parsePaymentRequest(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	payment, err := h.Service.RecordPayment(ctx, landlord, leaseID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
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

	payments, err := h.Service.PaymentHistory(ctx, landlord, leaseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	landlord, ok := landlordID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	payment, err := h.Service.GetPayment(ctx, landlord, mux.Vars(r)["payment_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) VoidPayment(w http.ResponseWriter, r *http.Request) {
	landlord, ok := landlordID(w, r)
	if !ok {
		return
	}

	var req models.VoidPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	payment, err := h.Service.VoidPayment(ctx, landlord, mux.Vars(r)["payment_id"], req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) RestorePayment(w http.ResponseWriter, r *http.Request) {
	landlord, ok := landlordID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	payment, err := h.Service.RestorePayment(ctx, landlord, mux.Vars(r)["payment_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	landlord, ok := landlordID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.Service.DeletePayment(ctx, landlord, mux.Vars(r)["payment_id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
