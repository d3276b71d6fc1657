package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"property-backend/internal/archive"
	"property-backend/internal/ledger"
	"property-backend/internal/middleware"
	"property-backend/internal/services"
	"property-backend/pkg/utils"

	"github.com/gorilla/mux"
)

var errBadQuery = errors.New("invalid query parameter")

// statusFor maps ledger and service errors to HTTP statuses. Unknown errors
// are 500 and their text is not sent to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidDate),
		errors.Is(err, ledger.ErrInvalidMethod),
		errors.Is(err, ledger.ErrInvalidType),
		errors.Is(err, ledger.ErrMissingReason),
		errors.Is(err, ledger.ErrNegativeResult),
		errors.Is(err, errBadQuery):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadyVoided),
		errors.Is(err, ledger.ErrNotVoided),
		errors.Is(err, ledger.ErrDuplicatePayment):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrLeaseMismatch),
		errors.Is(err, ledger.ErrInvalidTerms):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, archive.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", r.Method, r.URL.Path, err)
		utils.Error(w, status, "Internal server error")
		return
	}
	utils.Error(w, status, err.Error())
}

func landlordID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := middleware.LandlordIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Landlord not found in context")
	}
	return id, ok
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}
