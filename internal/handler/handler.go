package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Dan9191/bnpl-service/internal/middleware"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/Dan9191/bnpl-service/internal/service"
	"github.com/Dan9191/bnpl-service/internal/statement"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc      *service.Service
	log      *logrus.Logger
	validate *validator.Validate
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log, validate: validator.New()}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type applyMerchantRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	TaxID        string `json:"tax_id" validate:"required,max=20"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email,max=255"`
	ContactPhone string `json:"contact_phone" validate:"omitempty,max=20"`
}

type createPaymentRequestRequest struct {
	Amount money.Amount `json:"amount" validate:"gt=0"`
}

type resolveRequest struct {
	Payload string `json:"payload" validate:"required"`
}

type payRequest struct {
	InstallmentMonths *int `json:"installment_months" validate:"omitempty,min=1,max=12"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password, req.Phone)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.svc.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ApplyMerchant opens a merchant operated by the caller
func (h *Handler) ApplyMerchant(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req applyMerchantRequest
	if !h.decode(w, r, &req) {
		return
	}
	merchant, err := h.svc.ApplyMerchant(r.Context(), userID, service.MerchantApplication{
		Name:         req.Name,
		TaxID:        req.TaxID,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, merchant)
}

// CreatePaymentRequest issues a payment request with its QR payload
func (h *Handler) CreatePaymentRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req createPaymentRequestRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.svc.CreatePaymentRequest(r.Context(), userID, req.Amount)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// ResolvePaymentRequest turns a scanned QR payload into the request it names
func (h *Handler) ResolvePaymentRequest(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	var req resolveRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.svc.ResolvePaymentRequest(r.Context(), req.Payload)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetPaymentRequest shows one payment request
func (h *Handler) GetPaymentRequest(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := h.svc.GetPaymentRequest(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// PayPaymentRequest settles a payment request against the caller's credit line
func (h *Handler) PayPaymentRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req payRequest
	if !h.decode(w, r, &req) {
		return
	}
	months := 1
	if req.InstallmentMonths != nil {
		months = *req.InstallmentMonths
	}

	receipt, err := h.svc.Pay(r.Context(), userID, id, months)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// UnpaidBills lists the caller's open installments
func (h *Handler) UnpaidBills(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	bills, err := h.svc.UnpaidBills(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

// AllBills lists every installment of the caller
func (h *Handler) AllBills(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	bills, err := h.svc.AllBills(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

// PayBill repays one installment
func (h *Handler) PayBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bill, err := h.svc.RepayBill(r.Context(), userID, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// CreditSummary shows the caller's credit line
func (h *Handler) CreditSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.CreditSummary(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Transactions shows the caller's ledger
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	history, err := h.svc.TransactionHistory(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// Statement exports the caller's transactions between ?from= and ?to= as XML
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	from, errFrom := time.Parse(dateLayout, r.URL.Query().Get("from"))
	to, errTo := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if errFrom != nil || errTo != nil {
		writeError(w, http.StatusBadRequest, "from and to must be dates in YYYY-MM-DD format")
		return
	}

	st, err := h.svc.Statement(r.Context(), userID, from, to)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=statement.xml")
	if err := statement.Render(w, *st); err != nil {
		h.log.WithError(err).Error("Failed to write statement")
	}
}

// decode reads a JSON body into dst and validates it. An empty body decodes as {}.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+" ("+fe.Tag()+")")
			}
			writeError(w, http.StatusBadRequest, "Invalid fields: "+strings.Join(fields, ", "))
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid input")
		return false
	}
	return true
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
