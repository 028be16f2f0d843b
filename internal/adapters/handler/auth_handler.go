package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/services"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
)

type AuthHandler struct {
	legacy       ports.LegacyAuthService
	resolver     ports.SessionResolver
	staff        ports.StaffService
	secureCookie bool
	attempts     *prometheus.CounterVec
	logger       *slog.Logger
}

// NewAuthHandler serves login, logout and the session check. attempts may
// be nil.
func NewAuthHandler(
	legacy ports.LegacyAuthService,
	resolver ports.SessionResolver,
	staff ports.StaffService,
	secureCookie bool,
	attempts *prometheus.CounterVec,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		legacy:       legacy,
		resolver:     resolver,
		staff:        staff,
		secureCookie: secureCookie,
		attempts:     attempts,
		logger:       logger,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	AuthType      *string      `json:"authType"`
	Role          *domain.Role `json:"role"`
	UserID        *string      `json:"userId"`
	UserName      *string      `json:"userName"`
	IsAdmin       bool         `json:"isAdmin"`
	IsVolunteer   bool         `json:"isVolunteer"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	token, err := h.legacy.Login(r.Context(), clientIP(r), req.Username, req.Password)
	switch {
	case errors.Is(err, domain.ErrTooManyAttempts):
		h.countAttempt("throttled")
		writeError(w, r, h.logger, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		return
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.countAttempt("failure")
		writeError(w, r, h.logger, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		writeServiceError(w, r, h.logger, err, "", "Internal server error")
		return
	}

	h.countAttempt("success")
	http.SetCookie(w, &http.Cookie{
		Name:     services.LegacyCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(services.LegacySessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	logging.FromContext(r.Context(), h.logger).Info("legacy admin login")
	writeJSON(w, r, h.logger, http.StatusOK, SuccessResponse{Success: true})
}

// Logout only clears the cookie; legacy tokens are not tracked server side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     services.LegacyCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, r, h.logger, http.StatusOK, SuccessResponse{Success: true})
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.FromContext(r.Context(), h.logger).Error("session check failed", "panic", rec)
			writeJSON(w, r, h.logger, http.StatusOK, map[string]bool{"authenticated": false})
		}
	}()

	auth := h.resolver.Resolve(r.Context(), r)
	resp := SessionResponse{
		Authenticated: auth.Authenticated(),
		IsAdmin:       auth.IsAdmin(),
		IsVolunteer:   auth.IsVolunteer(),
	}
	if auth.Authenticated() {
		kind := string(auth.Kind)
		role := auth.Role
		resp.AuthType = &kind
		resp.Role = &role
	}
	if auth.Staff != nil {
		resp.UserID = &auth.Staff.ID
		resp.UserName = &auth.Staff.Name
		if h.staff != nil {
			h.staff.RecordLogin(r.Context(), auth.Staff.ID)
		}
	}
	writeJSON(w, r, h.logger, http.StatusOK, resp)
}

func (h *AuthHandler) countAttempt(result string) {
	if h.attempts != nil {
		h.attempts.WithLabelValues(result).Inc()
	}
}

// clientIP keys the login throttle. RealIP has already rewritten RemoteAddr
// when the service runs behind a proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
