package handlers

import (
	"net/http"

	"github.com/GiorgiUbiria/fakebank/internal/httputil"
	"github.com/GiorgiUbiria/fakebank/internal/ledger"
	"github.com/shopspring/decimal"
)

type DashboardResponse struct {
	NonAdminAccounts int64              `json:"non_admin_accounts"`
	TotalBalance     string             `json:"total_balance"`
	Logs             []AdminLogResponse `json:"logs"`
}

type BalanceRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) (ledger.Caller, bool) {
	_, c, ok := h.caller(r)
	if !ok {
		unauthorized(w)
		return ledger.Caller{}, false
	}
	return c, true
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin(w, r)
	if !ok {
		return
	}
	d, err := h.authority.Dashboard(r.Context(), c)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DashboardResponse{
		NonAdminAccounts: d.NonAdminAccounts,
		TotalBalance:     d.TotalBalance.StringFixed(2),
		Logs:             toLogs(d.Logs),
	})
}

func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin(w, r)
	if !ok {
		return
	}
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	acct, err := h.authority.CreateAdminAccount(r.Context(), c, ledger.NewIdentity{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAccount(acct))
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin(w, r)
	if !ok {
		return
	}
	if err := h.authority.ResetBank(r.Context(), c); err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) AllTransactions(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin(w, r)
	if !ok {
		return
	}
	txs, err := h.authority.ListTransactions(r.Context(), c)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransactions(txs))
}

func (h *Handler) Accounts(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin(w, r)
	if !ok {
		return
	}
	accts, err := h.authority.ListAccounts(r.Context(), c)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccounts(accts))
}

func (h *Handler) EditBalance(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin(w, r)
	if !ok {
		return
	}
	id, ok := accountIDParam(r)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	var req BalanceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	acct, err := h.authority.EditBalance(r.Context(), c, id, req.Balance)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccount(acct))
}

func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin(w, r)
	if !ok {
		return
	}
	id, ok := accountIDParam(r)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	acct, err := h.authority.SuspendAccount(r.Context(), c, id)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccount(acct))
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin(w, r)
	if !ok {
		return
	}
	id, ok := accountIDParam(r)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	acct, err := h.authority.CloseAccount(r.Context(), c, id)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccount(acct))
}

// Delete removes an account and its owner. Suspended or closed accounts need
// force=true as confirmation.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin(w, r)
	if !ok {
		return
	}
	id, ok := accountIDParam(r)
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	if _, err := h.authority.RequireAdmin(r.Context(), c); err != nil {
		fail(w, err)
		return
	}
	target, err := h.registry.FindByID(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	if (target.IsSuspended || target.IsClosed) && r.URL.Query().Get("force") != "true" {
		httputil.WriteError(w, http.StatusConflict, "account is suspended or closed, pass force=true to delete")
		return
	}
	if err := h.authority.DeleteAccount(r.Context(), c, id); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminLogs(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin(w, r)
	if !ok {
		return
	}
	logs, err := h.authority.AdminLogs(r.Context(), c)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLogs(logs))
}
