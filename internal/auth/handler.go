// AngelaMos | 2026
// handler.go

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront-api/internal/config"
	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/middleware"
)

const (
	RefreshTokenCookie = "refreshToken"
	oauthStateCookie   = "oauthState"
	oauthStateTTL      = 10 * time.Minute
)

type Handler struct {
	service   *Service
	google    *GoogleAuth
	validator *validator.Validate
	cookies   config.CookieConfig
}

func NewHandler(service *Service, google *GoogleAuth, cookies config.CookieConfig) *Handler {
	return &Handler{
		service:   service,
		google:    google,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		cookies:   cookies,
	}
}

// RegisterRoutes mounts the account endpoints on a router already scoped to
// the users prefix. sensitive guards credential endpoints with a stricter
// rate limit.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, sensitive func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(sensitive)
		r.Post("/signup", h.Register)
		r.Post("/signin", h.Login)
		r.Post("/forget-password", h.ForgetPassword)
		r.Post("/update-password", h.UpdatePassword)
		r.Post("/resend-verification", h.ResendVerification)
	})

	r.Post("/verify", h.VerifyEmail)
	r.Post("/refresh-token", h.Refresh)
	r.Get("/google", h.GoogleLogin)
	r.Get("/google/callback", h.GoogleCallback)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/current-user", h.CurrentUser)
		r.Post("/change-password", h.ChangePassword)
		r.Post("/logout", h.Logout)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Success(w, http.StatusCreated, user, "User registered successfully")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	h.setAuthCookies(w, resp.Tokens)
	core.Success(w, http.StatusOK, resp, "User logged in successfully")
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = c.Value
	}

	if token == "" && r.ContentLength != 0 {
		var req RefreshRequest
		if err := core.DecodeJSON(r, nil, &req); err != nil {
			core.JSONError(w, err)
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}

	resp, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		h.clearAuthCookies(w)
		core.JSONError(w, err)
		return
	}

	h.setAuthCookies(w, resp.Tokens)
	core.Success(w, http.StatusOK, resp.Tokens, "Access token refreshed")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	if err := h.service.Logout(r.Context(), p, middleware.GetClaims(r.Context())); err != nil {
		core.JSONError(w, err)
		return
	}

	h.clearAuthCookies(w)
	core.Message(w, http.StatusOK, "User logged out")
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetCurrentUser(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgetPasswordRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.ForgetPassword(r.Context(), req.Email); err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, http.StatusOK, "If the account exists, a reset link has been sent")
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req UpdatePasswordRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.UpdatePassword(r.Context(), req); err != nil {
		core.JSONError(w, err)
		return
	}

	h.clearAuthCookies(w)
	core.Message(w, http.StatusOK, "Password updated successfully")
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	p := middleware.GetPrincipal(r.Context())
	if err := h.service.ChangePassword(r.Context(), p, req); err != nil {
		core.JSONError(w, err)
		return
	}

	h.clearAuthCookies(w)
	core.Message(w, http.StatusOK, "Password changed, please sign in again")
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req); err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, http.StatusOK, "Email verified successfully")
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest
	if err := core.DecodeJSON(r, h.validator, &req); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		core.JSONError(w, err)
		return
	}

	core.Message(w, http.StatusOK, "If the account exists, a verification link has been sent")
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		core.JSONError(w, core.ConfigurationError("google sign-in"))
		return
	}

	state, err := core.GenerateSecureToken(16)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		core.JSONError(w, core.ConfigurationError("google sign-in"))
		return
	}

	c, err := r.Cookie(oauthStateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || !core.CompareTokenHash(state, core.HashToken(c.Value)) {
		core.JSONError(w, core.UnauthorizedError("invalid oauth state"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		core.BadRequest(w, "missing authorization code")
		return
	}

	resp, err := h.google.SignIn(r.Context(), code)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/", MaxAge: -1})
	h.setAuthCookies(w, resp.Tokens)

	if h.google.successRedirect != "" {
		http.Redirect(w, r, h.google.successRedirect, http.StatusFound)
		return
	}

	core.Success(w, http.StatusOK, resp, "User logged in successfully")
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, tokens TokenResponse) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, tokens.AccessToken, tokens.ExpiresAt))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, tokens.RefreshToken, tokens.refreshExpiresAt))
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		c := h.cookie(name, "", time.Time{})
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h *Handler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: sameSite(h.cookies.SameSite),
	}
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
