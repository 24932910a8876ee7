package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"tush00nka/beseda/internal/pkg/auth"
	"tush00nka/beseda/internal/pkg/httputils"
	"tush00nka/beseda/internal/service"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// AuthHandler — граница аутентификации: обмен внешнего identity assertion
// на локального пользователя, выпуск токенов, куки, online/offline на входе
// и выходе.
type AuthHandler struct {
	userService service.UserService
	tokens      *auth.TokenManager
	oauth       *oauth2.Config
	frontendURL string
	cookieOpts  auth.CookieOptions
}

func NewAuthHandler(
	userService service.UserService,
	tokens *auth.TokenManager,
	oauth *oauth2.Config,
	frontendURL string,
	cookieOpts auth.CookieOptions,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		oauth:       oauth,
		frontendURL: frontendURL,
		cookieOpts:  cookieOpts,
	}
}

func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/google/url", h.googleAuthURL).Methods("GET", "OPTIONS")
	router.HandleFunc("/auth/google/callback", h.googleCallback).Methods("GET")
	router.HandleFunc("/auth/validate", h.validateToken).Methods("GET", "OPTIONS")
	router.HandleFunc("/logout", h.logout).Methods("POST", "OPTIONS")
}

type AuthURLResponse struct {
	URL string `json:"url"`
}

// @Summary Google auth URL
// @Description Вернуть URL для редиректа на Google OAuth
// @Tags auth
// @Produce json
// @Success 200 {object} AuthURLResponse
// @Router /auth/google/url [get]
func (h *AuthHandler) googleAuthURL(w http.ResponseWriter, r *http.Request) {
	httputils.ResponseJSON(w, http.StatusOK, AuthURLResponse{
		URL: h.oauth.AuthCodeURL("state", oauth2.AccessTypeOffline),
	})
}

type googleUserInfo struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// @Summary Google callback
// @Description Обменять код авторизации на сессию: апсерт пользователя, токены, куки
// @Tags auth
// @Success 302
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /auth/google/callback [get]
func (h *AuthHandler) googleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		httputils.ResponseError(w, http.StatusBadRequest, "authorization code is required")
		return
	}

	ctx := r.Context()

	oauthToken, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "failed to exchange authorization code")
		return
	}

	info, err := h.fetchUserInfo(ctx, oauthToken)
	if err != nil {
		log.Printf("auth: failed to fetch user info: %v", err)
		httputils.ResponseError(w, http.StatusInternalServerError, "failed to fetch user profile")
		return
	}

	user, err := h.userService.FindOrCreateOAuthUser(ctx, service.OAuthProfile{
		GoogleID:  info.ID,
		Email:     info.Email,
		FirstName: info.GivenName,
		LastName:  info.FamilyName,
		Avatar:    info.Picture,
	})
	if err != nil {
		log.Printf("auth: failed to upsert oauth user: %v", err)
		httputils.ResponseError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	accessToken, err := h.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		httputils.ResponseError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	refreshToken, err := h.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		httputils.ResponseError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	if err := h.userService.StoreRefreshToken(ctx, user.ID, refreshToken); err != nil {
		httputils.ResponseError(w, http.StatusInternalServerError, "failed to store refresh token")
		return
	}

	// Статус присутствия не должен блокировать вход
	if err := h.userService.SetOnline(ctx, user.ID, true); err != nil {
		log.Printf("auth: failed to set user %d online: %v", user.ID, err)
	}

	auth.SetAuthCookies(w, accessToken, refreshToken, h.tokens.AccessTTL(), h.tokens.RefreshTTL(), h.cookieOpts)

	http.Redirect(w, r, h.frontendURL, http.StatusFound)
}

func (h *AuthHandler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	resp, err := h.oauth.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

// @Summary Logout
// @Description Завершить сессию: снять флаг онлайна, очистить куки
// @Tags auth
// @Produce json
// @Success 200 {object} LogoutResponse
// @Failure 401 {object} httputils.ErrorResponse
// @Router /logout [post]
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	claims, err := currentClaims(r, h.tokens)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.userService.SetOnline(r.Context(), claims.UserID, false); err != nil {
		log.Printf("auth: failed to set user %d offline: %v", claims.UserID, err)
	}

	auth.ClearAuthCookies(w, h.cookieOpts)

	httputils.ResponseJSON(w, http.StatusOK, LogoutResponse{Success: true})
}

type ValidateTokenResponse struct {
	Valid bool `json:"valid"`
}

// @Summary Validate token
// @Description Проверить access-токен; невалидный токен чистит куки
// @Tags auth
// @Produce json
// @Success 200 {object} ValidateTokenResponse
// @Router /auth/validate [get]
func (h *AuthHandler) validateToken(w http.ResponseWriter, r *http.Request) {
	_, err := currentClaims(r, h.tokens)
	if err != nil {
		// Самолечение клиента: протухшие куки снимаем сразу
		auth.ClearAuthCookies(w, h.cookieOpts)
		httputils.ResponseJSON(w, http.StatusOK, ValidateTokenResponse{Valid: false})
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, ValidateTokenResponse{Valid: true})
}
