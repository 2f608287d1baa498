package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/val/markdown-notes/internal/api/middleware"
	"github.com/val/markdown-notes/internal/api/response"
	"github.com/val/markdown-notes/internal/config"
	"github.com/val/markdown-notes/internal/domain"
	"github.com/val/markdown-notes/internal/service"
)

var validate = validator.New()

type AccountHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
	cfg            *config.Config
}

func NewAccountHandler(authService *service.AuthService, profileService *service.ProfileService, cfg *config.Config) *AccountHandler {
	return &AccountHandler{
		authService:    authService,
		profileService: profileService,
		cfg:            cfg,
	}
}

type CreateAccountRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

type ChangeUsernameRequest struct {
	NewUsername string `json:"newUsername"`
}

type ChangePasswordRequest struct {
	OriginalPassword string `json:"originalPassword"`
	NewPassword      string `json:"newPassword"`
}

type DeleteProfileRequest struct {
	Password string `json:"password"`
}

type AdminUserRequest struct {
	Email string `json:"email" validate:"required"`
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Validation("Missing mandatory fields")
	}
	if err := validate.Struct(v); err != nil {
		return domain.Validation("Missing mandatory fields")
	}
	return nil
}

// Login exchanges Basic credentials for a session token. The token travels
// both in the response body and in the HTTP-only jwt cookie.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if header == "" {
		response.HandleError(w, r, domain.Validation("Missing auth header"))
		return
	}

	scheme, credentials, found := strings.Cut(header, " ")
	if !found || scheme != "Basic" || credentials == "" {
		response.HandleError(w, r, domain.Validation("Invalid auth type"))
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(credentials)
	if err != nil {
		response.HandleError(w, r, domain.Validation("Invalid auth type"))
		return
	}

	email, password, found := strings.Cut(string(decoded), ":")
	if !domain.ValidEmailFormat(email) {
		response.HandleError(w, r, domain.Validation("Invalid email format"))
		return
	}
	if !found || password == "" {
		response.HandleError(w, r, domain.Validation("Invalid authentication credentials"))
		return
	}

	token, err := h.authService.Login(r.Context(), email, password)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	h.setTokenCookie(w, token)
	response.JSON(w, http.StatusCreated, "Token succesfully created", token)
}

// CreateAccount registers a new, unverified user and mails the verification
// code. An already-authenticated client is told to log out first.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.CookieName); err == nil {
		if _, err := h.authService.ValidateToken(cookie.Value); err == nil {
			response.HandleError(w, r, domain.Validation("Already logged in"))
			return
		}
	}

	var req CreateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		response.HandleError(w, r, err)
		return
	}

	if err := h.authService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, "Account succesfully created. Check email for verification code", map[string]bool{
		"needsVerification": true,
	})
}

// IsAuthenticated is a cheap cookie peek for the client: signature and expiry
// only, no store lookup, never an error status.
func (h *AccountHandler) IsAuthenticated(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.CookieName)
	if err != nil {
		response.JSON(w, http.StatusOK, "User not logged in", map[string]bool{"authenticated": false})
		return
	}

	if _, err := h.authService.ValidateToken(cookie.Value); err != nil {
		response.JSON(w, http.StatusOK, "User not logged in", map[string]bool{"authenticated": false})
		return
	}

	response.JSON(w, http.StatusOK, "User is logged in", map[string]bool{"authenticated": true})
}

func (h *AccountHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Code == "" {
		response.HandleError(w, r, domain.Validation("Missing email or verification code"))
		return
	}

	if err := h.authService.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, "Email successfully verified", nil)
}

func (h *AccountHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	err := h.authService.ResendVerification(r.Context(), req.Email)
	if errors.Is(err, service.ErrAlreadyVerified) {
		response.JSON(w, http.StatusOK, "User already verified", nil)
		return
	}
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, "Verification email sent", nil)
}

func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		response.HandleError(w, r, domain.Validation("Profile not found"))
		return
	}

	user, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, "Profile retrieved", user)
}

func (h *AccountHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		response.HandleError(w, r, domain.Validation("User not logged in"))
		return
	}

	var req ChangeUsernameRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	rows, err := h.profileService.ChangeUsername(r.Context(), userID, req.NewUsername)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, "Username succesfully updated", map[string]int64{"rowsAffected": rows})
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		response.HandleError(w, r, domain.Validation("User not logged in"))
		return
	}

	var req ChangePasswordRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	rows, err := h.profileService.ChangePassword(r.Context(), userID, req.OriginalPassword, req.NewPassword)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, "Password succesfully updated", map[string]int64{"rowsAffected": rows})
}

func (h *AccountHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		response.HandleError(w, r, domain.Validation("User not logged in"))
		return
	}

	var req DeleteProfileRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	rows, err := h.profileService.Delete(r.Context(), userID, req.Password)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	h.clearTokenCookie(w)
	response.JSON(w, http.StatusOK, "Account succesfully deleted", map[string]int64{"rowsAffected": rows})
}

// Logout clears the cookie; there is no server-side session to tear down.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ClaimsFrom(r.Context()); !ok {
		response.Fail(w, http.StatusUnauthorized, "User not logged in")
		return
	}

	h.clearTokenCookie(w)
	response.JSON(w, http.StatusOK, "Logout succesful", nil)
}

// GetUserByEmail is the admin lookup; the password hash never leaves the
// server because the model marshals it away.
func (h *AccountHandler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	var req AdminUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		response.HandleError(w, r, domain.Validation("Missing mandatory fields"))
		return
	}

	user, err := h.authService.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, "User succesfully retrieved", user)
}

func userIDFrom(r *http.Request) (uint, bool) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return 0, false
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, false
	}
	return id, true
}

func (h *AccountHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(service.TokenLifetime.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: h.sameSite(),
	})
}

func (h *AccountHandler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: h.sameSite(),
	})
}

// SameSite=None is required in production where the SPA and the API live on
// different origins; Lax keeps local development working over plain HTTP.
func (h *AccountHandler) sameSite() http.SameSite {
	if h.cfg.IsProduction() {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
