package handler

import (
	"net/http"

	"github.com/Dan9191/bnpl-service/internal/config"
	"github.com/Dan9191/bnpl-service/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"
)

// NewRouter wires every route. retries, when not nil, wraps the payment endpoints.
func NewRouter(h *Handler, cfg *config.Config, log *logrus.Logger, retries alice.Constructor) http.Handler {
	standard := alice.New(middleware.Recover(log), middleware.RequestLogger(log), middleware.SecureHeaders)
	auth := standard.Append(middleware.AuthMiddleware(cfg))
	payments := auth
	if retries != nil {
		payments = auth.Append(retries)
	}

	r := mux.NewRouter()
	// Public routes
	r.Handle("/register", standard.ThenFunc(h.Register)).Methods(http.MethodPost)
	r.Handle("/login", standard.ThenFunc(h.Login)).Methods(http.MethodPost)
	r.Handle("/healthz", standard.ThenFunc(h.Health)).Methods(http.MethodGet)

	// Merchant routes
	r.Handle("/merchants/apply", auth.ThenFunc(h.ApplyMerchant)).Methods(http.MethodPost)
	r.Handle("/merchant/payment-requests", auth.ThenFunc(h.CreatePaymentRequest)).Methods(http.MethodPost)

	// Customer routes
	r.Handle("/payment-requests/resolve", auth.ThenFunc(h.ResolvePaymentRequest)).Methods(http.MethodPost)
	r.Handle("/payment-requests/{id}", auth.ThenFunc(h.GetPaymentRequest)).Methods(http.MethodGet)
	r.Handle("/payment-requests/{id}/pay", payments.ThenFunc(h.PayPaymentRequest)).Methods(http.MethodPost)
	r.Handle("/bills", auth.ThenFunc(h.UnpaidBills)).Methods(http.MethodGet)
	r.Handle("/bills/{id}/pay", payments.ThenFunc(h.PayBill)).Methods(http.MethodPost)
	r.Handle("/home/bills", auth.ThenFunc(h.AllBills)).Methods(http.MethodGet)
	r.Handle("/me/summary", auth.ThenFunc(h.CreditSummary)).Methods(http.MethodGet)
	r.Handle("/me/transactions", auth.ThenFunc(h.Transactions)).Methods(http.MethodGet)
	r.Handle("/me/statement.xml", auth.ThenFunc(h.Statement)).Methods(http.MethodGet)

	return r
}
