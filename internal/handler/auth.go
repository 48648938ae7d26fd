package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow/internal/auth"
	"github.com/BuzzLyutic/taskflow/internal/model"
	"github.com/BuzzLyutic/taskflow/internal/service"
	"github.com/BuzzLyutic/taskflow/pkg/respond"
)

type AuthHandler struct {
	service      *service.AuthService
	sessionTTL   time.Duration
	secureCookie bool
	logger       *zap.Logger
}

func NewAuthHandler(srv *service.AuthService, sessionTTL time.Duration, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:      srv,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Routes монтируется под /api/auth
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/signup", h.Signup)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in model.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	session, err := h.service.Login(r.Context(), in)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, session.Token, h.sessionTTL, h.secureCookie)
	respond.OK(w, r, http.StatusOK, session, "Login successful")
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in model.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	session, err := h.service.Signup(r.Context(), in)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	h.logger.Info("user signed up", zap.String("user_id", session.User.ID))
	auth.SetSessionCookie(w, session.Token, h.sessionTTL, h.secureCookie)
	respond.OK(w, r, http.StatusCreated, session, "Account created successfully")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookie)
	respond.Message(w, r, http.StatusOK, "Logged out")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), auth.IdentityFrom(r.Context()))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, user, "")
}
