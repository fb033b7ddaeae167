package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bariatricaemcasa/backend/internal/telemetry/tracing"
	"github.com/bariatricaemcasa/backend/pkg"

	log "github.com/sirupsen/logrus"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "X-BARIATRICA-TOKEN"

type Handler struct {
	service  *Service
	verifier UserVerifier
}

func NewHandler(service *Service, verifier UserVerifier) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var loginReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	if loginReq.Email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if loginReq.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	userID, err := h.verifier.VerifyCredentials(ctx, loginReq.Email, loginReq.Password)
	if err != nil {
		if errors.Is(err, ErrWrongCredentials) {
			log.Tracef("failed login attempt for [%s]", loginReq.Email)
			http.Error(w, "login failed", http.StatusUnauthorized)
			return
		}
		log.Errorf("login, verify credentials: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	token, err := h.service.Login(ctx, userID, time.Now())
	if err != nil {
		log.Errorf("login, create session: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(LoginResponse{Token: token})
	if err != nil {
		log.Errorf("login, marshal response: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(respJson))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	token := r.Header.Get(TokenHeader)
	if token == "" {
		http.Error(w, "error, auth token empty", http.StatusBadRequest)
		return
	}

	loggedOut, err := h.service.Logout(ctx, token)
	if err != nil {
		log.Errorf("logout: %s", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}
