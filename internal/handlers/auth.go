package handlers

import (
	"net/http"

	"github.com/GiorgiUbiria/fakebank/internal/httputil"
	"github.com/GiorgiUbiria/fakebank/internal/ledger"
	"github.com/GiorgiUbiria/fakebank/internal/logger"
	"go.uber.org/zap"
)

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type MeResponse struct {
	ID        uint            `json:"id"`
	Username  string          `json:"username"`
	Superuser bool            `json:"superuser"`
	Account   AccountResponse `json:"account"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, acct, err := h.identities.Register(r.Context(), ledger.NewIdentity{
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
	httputil.WriteJSON(w, http.StatusCreated, MeResponse{ID: user.ID, Username: user.Username, Account: toAccount(acct)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.identities.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		fail(w, err)
		return
	}
	signed, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		logger.Log.Error("failed to sign jwt", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LoginResponse{Token: signed})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, c, ok := h.caller(r)
	if !ok {
		unauthorized(w)
		return
	}
	acct, err := h.registry.EnsureAccount(r.Context(), user.ID, user.FirstName, user.LastName)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MeResponse{ID: user.ID, Username: user.Username, Superuser: c.Superuser, Account: toAccount(acct)})
}
