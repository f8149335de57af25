package handler

import (
	"errors"
	"net/http"

	"github.com/Dan9191/bnpl-service/internal/service"
	"github.com/Dan9191/bnpl-service/internal/settlement"
)

var statusByError = []struct {
	err    error
	status int
}{
	{settlement.ErrNotFound, http.StatusNotFound},
	{settlement.ErrAlreadyPaid, http.StatusConflict},
	{settlement.ErrExpired, http.StatusConflict},
	{settlement.ErrInvalidState, http.StatusConflict},
	{settlement.ErrSelfPaymentForbidden, http.StatusForbidden},
	{settlement.ErrInvalidInstallments, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrUserExists, http.StatusConflict},
	{service.ErrMerchantExists, http.StatusConflict},
	{service.ErrNotMerchant, http.StatusForbidden},
	{service.ErrInvalidAmount, http.StatusBadRequest},
	{service.ErrInvalidQR, http.StatusBadRequest},
	{service.ErrInvalidPeriod, http.StatusBadRequest},
}

// writeServiceError maps service and settlement errors onto HTTP responses
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var creditErr *settlement.CreditError
	if errors.As(err, &creditErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":            "Insufficient credit",
			"available_credit": creditErr.Available.String(),
			"requested":        creditErr.Requested.String(),
		})
		return
	}
	if errors.Is(err, settlement.ErrConflict) {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusConflict, "Account is busy, retry later")
		return
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.err.Error())
			return
		}
	}

	h.log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
