package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/GiorgiUbiria/fakebank/internal/auth"
	"github.com/GiorgiUbiria/fakebank/internal/currency"
	"github.com/GiorgiUbiria/fakebank/internal/httputil"
	"github.com/GiorgiUbiria/fakebank/internal/identity"
	"github.com/GiorgiUbiria/fakebank/internal/ledger"
	"github.com/GiorgiUbiria/fakebank/internal/logger"
	appmw "github.com/GiorgiUbiria/fakebank/internal/middleware"
	"github.com/GiorgiUbiria/fakebank/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler is the HTTP face of the ledger. It holds no state of its own.
type Handler struct {
	identities *identity.Service
	registry   *ledger.Registry
	engine     *ledger.Engine
	authority  *ledger.Authority
	tokens     *auth.TokenManager
	rates      currency.Rates
}

func New(identities *identity.Service, registry *ledger.Registry, engine *ledger.Engine, authority *ledger.Authority, tokens *auth.TokenManager, rates currency.Rates) *Handler {
	return &Handler{
		identities: identities,
		registry:   registry,
		engine:     engine,
		authority:  authority,
		tokens:     tokens,
		rates:      rates,
	}
}

type AccountResponse struct {
	ID            uint   `json:"id"`
	AccountNumber string `json:"account_number"`
	PaymentNumber string `json:"payment_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Balance       string `json:"balance"`
	IsAdmin       bool   `json:"is_admin"`
	IsSuspended   bool   `json:"is_suspended"`
	IsClosed      bool   `json:"is_closed"`
}

type TransactionResponse struct {
	ID            uint      `json:"id"`
	FromAccountID uint      `json:"from_account_id"`
	ToAccountID   uint      `json:"to_account_id"`
	Amount        string    `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

type AdminLogResponse struct {
	ID        uint      `json:"id"`
	AdminID   uint      `json:"admin_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func toAccount(a models.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		PaymentNumber: a.PaymentNumber,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Balance:       a.Balance.StringFixed(2),
		IsAdmin:       a.IsAdmin,
		IsSuspended:   a.IsSuspended,
		IsClosed:      a.IsClosed,
	}
}

func toAccounts(in []models.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(in))
	for _, a := range in {
		out = append(out, toAccount(a))
	}
	return out
}

func toTransactions(in []models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(in))
	for _, t := range in {
		out = append(out, TransactionResponse{
			ID:            t.ID,
			FromAccountID: t.FromAccountID,
			ToAccountID:   t.ToAccountID,
			Amount:        t.Amount.StringFixed(2),
			Timestamp:     t.CreatedAt,
		})
	}
	return out
}

func toLogs(in []models.AdminLog) []AdminLogResponse {
	out := make([]AdminLogResponse, 0, len(in))
	for _, l := range in {
		out = append(out, AdminLogResponse{ID: l.ID, AdminID: l.AdminID, Action: l.Action, Timestamp: l.CreatedAt})
	}
	return out
}

// statusFor maps ledger failure kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, ledger.ErrRecipientNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateOwner), errors.Is(err, ledger.ErrDuplicateIdentity),
		errors.Is(err, ledger.ErrAlreadySuspended), errors.Is(err, ledger.ErrAlreadyClosed):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrInvalidBalance),
		errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrSelfTransferNotAllowed),
		errors.Is(err, ledger.ErrAccountSuspended), errors.Is(err, ledger.ErrAccountClosed),
		errors.Is(err, identity.ErrMissingFields):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrIdentifierExhausted):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.Log.Error("request failed", zap.Error(err))
		httputil.WriteError(w, code, "internal error")
		return
	}
	httputil.WriteError(w, code, err.Error())
}

// caller resolves the authenticated identity of the request.
func (h *Handler) caller(r *http.Request) (models.User, ledger.Caller, bool) {
	userID, ok := appmw.UserID(r.Context())
	if !ok {
		return models.User{}, ledger.Caller{}, false
	}
	user, err := h.identities.Get(r.Context(), userID)
	if err != nil {
		return models.User{}, ledger.Caller{}, false
	}
	return user, h.identities.CallerFor(user), true
}

func unauthorized(w http.ResponseWriter) {
	httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
}

func accountIDParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	n, err := h.registry.CountNonAdmin(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"total_accounts": n})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Works Fine!"))
}
