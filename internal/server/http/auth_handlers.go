package httpserver

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/crudkeeper/internal/dto"
	"github.com/and161185/crudkeeper/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type loginResponse struct {
	dto.Tokens
	User dto.User `json:"user"`
}

type authHandlers struct {
	svc *service.AuthService
	log *zap.Logger
}

func (h authHandlers) register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeBody(w, r, &in); err != nil {
		writeProblem(w, r, h.log, err)
		return
	}
	u, err := h.svc.Register(r.Context(), in)
	if err != nil {
		writeProblem(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, dto.UserFromModel(u))
}

func (h authHandlers) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeBody(w, r, &in); err != nil {
		writeProblem(w, r, h.log, err)
		return
	}
	tokens, u, err := h.svc.Login(r.Context(), in.Email, in.Password, r.RemoteAddr)
	if err != nil {
		writeProblem(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, loginResponse{Tokens: dto.TokensFromModel(tokens), User: dto.UserFromModel(u)})
}

func (h authHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeBody(w, r, &in); err != nil {
		writeProblem(w, r, h.log, err)
		return
	}
	tokens, err := h.svc.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		writeProblem(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, dto.TokensFromModel(tokens))
}
