package handlers

import (
	"net/http"

	"github.com/GiorgiUbiria/fakebank/internal/currency"
	"github.com/GiorgiUbiria/fakebank/internal/httputil"
	"github.com/GiorgiUbiria/fakebank/internal/models"
	"github.com/shopspring/decimal"
)

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	PaymentNumber string          `json:"payment_number"`
	Amount        decimal.Decimal `json:"amount"`
}

type AccountView struct {
	Account AccountResponse  `json:"account"`
	Display currency.Display `json:"display"`
}

// account returns the caller's account, opening it on first access.
func (h *Handler) account(w http.ResponseWriter, r *http.Request) (models.Account, bool) {
	user, _, ok := h.caller(r)
	if !ok {
		unauthorized(w)
		return models.Account{}, false
	}
	acct, err := h.registry.EnsureAccount(r.Context(), user.ID, user.FirstName, user.LastName)
	if err != nil {
		fail(w, err)
		return models.Account{}, false
	}
	return acct, true
}

func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AccountView{
		Account: toAccount(acct),
		Display: h.rates.Convert(acct.Balance, r.URL.Query().Get("currency")),
	})
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	var req AmountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.engine.Deposit(r.Context(), acct.ID, req.Amount)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccount(updated))
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	var req AmountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.engine.Withdraw(r.Context(), acct.ID, req.Amount)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccount(updated))
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	var req TransferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.engine.Transfer(r.Context(), acct.ID, req.PaymentNumber, req.Amount)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccount(updated))
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	txs, err := h.engine.AccountTransactions(r.Context(), acct.ID)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransactions(txs))
}
